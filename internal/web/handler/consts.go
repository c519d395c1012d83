package handler

const (
	// APIPath is the prefix of the account API.
	APIPath = "/api/v1"

	// AdminAPIPath is the prefix of the graph and system API.
	AdminAPIPath = "/api"

	// RouterRootPath is the root path of a route group.
	RouterRootPath = "/"

	// DefaultPageSize for paginated lists.
	DefaultPageSize = 20

	// MaxPageSize caps the page size a client may request.
	MaxPageSize = 100
)
