package auth

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/keyward/keyward/internal/iamerr"
)

// GraphReader is the part of the graph store the Resolver needs.
type GraphReader interface {
	PermissionCodesByPrincipalID(ctx context.Context, id uint64) ([]string, error)
	RoleCodesByPrincipalID(ctx context.Context, id uint64) ([]string, error)
}

// CodeSet is a de-duplicated set of role or permission codes.
type CodeSet map[string]struct{}

// NewCodeSet builds a set from codes.
func NewCodeSet(codes ...string) CodeSet {
	s := make(CodeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}

	return s
}

// Has reports exact membership of code.
func (s CodeSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Sorted returns the codes in ascending order.
func (s CodeSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}

	slices.Sort(out)

	return out
}

// Grants is the resolved role and permission set of one principal.
type Grants struct {
	PrincipalID uint64   `json:"principalId"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Resolver answers access decisions by reading the graph store on every call.
type Resolver struct {
	graph GraphReader
}

// NewResolver returns a Resolver over graph.
func NewResolver(graph GraphReader) *Resolver {
	return &Resolver{graph: graph}
}

// ResolvePermissionCodes returns the union of permission codes reachable through
// the principal's roles. Store failures are wrapped in iamerr.ErrResolutionFailed.
func (r *Resolver) ResolvePermissionCodes(ctx context.Context, principalID uint64) (CodeSet, error) {
	codes, err := r.graph.PermissionCodesByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, iamerr.Resolution(err)
	}

	return NewCodeSet(codes...), nil
}

// ResolveRoleCodes returns the principal's role codes.
// Store failures are wrapped in iamerr.ErrResolutionFailed.
func (r *Resolver) ResolveRoleCodes(ctx context.Context, principalID uint64) (CodeSet, error) {
	codes, err := r.graph.RoleCodesByPrincipalID(ctx, principalID)
	if err != nil {
		return nil, iamerr.Resolution(err)
	}

	return NewCodeSet(codes...), nil
}

// HasPermission reports whether the principal holds code. It is false whenever err is set.
func (r *Resolver) HasPermission(ctx context.Context, principalID uint64, code string) (bool, error) {
	set, err := r.ResolvePermissionCodes(ctx, principalID)

	return decide("permission", set.Has(code), err)
}

// HasRole reports whether the principal is a member of role code. It is false whenever err is set.
func (r *Resolver) HasRole(ctx context.Context, principalID uint64, code string) (bool, error) {
	set, err := r.ResolveRoleCodes(ctx, principalID)

	return decide("role", set.Has(code), err)
}

// HasAnyPermission reports whether the principal holds at least one of codes.
func (r *Resolver) HasAnyPermission(ctx context.Context, principalID uint64, codes ...string) (bool, error) {
	set, err := r.ResolvePermissionCodes(ctx, principalID)

	return decide("any_permission", slices.ContainsFunc(codes, set.Has), err)
}

// HasAllPermissions reports whether the principal holds every one of codes.
func (r *Resolver) HasAllPermissions(ctx context.Context, principalID uint64, codes ...string) (bool, error) {
	set, err := r.ResolvePermissionCodes(ctx, principalID)

	all := !slices.ContainsFunc(codes, func(c string) bool { return !set.Has(c) })

	return decide("all_permissions", all, err)
}

// Snapshot resolves roles and permissions concurrently.
func (r *Resolver) Snapshot(ctx context.Context, principalID uint64) (*Grants, error) {
	var roles, perms CodeSet

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		roles, err = r.ResolveRoleCodes(gctx, principalID)

		return err
	})

	g.Go(func() error {
		var err error
		perms, err = r.ResolvePermissionCodes(gctx, principalID)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Grants{
		PrincipalID: principalID,
		Roles:       roles.Sorted(),
		Permissions: perms.Sorted(),
	}, nil
}

func decide(check string, ok bool, err error) (bool, error) {
	switch {
	case err != nil:
		accessDecisions.WithLabelValues(check, decisionResolution).Inc()
		return false, err
	case ok:
		accessDecisions.WithLabelValues(check, decisionAllow).Inc()
		return true, nil
	default:
		accessDecisions.WithLabelValues(check, decisionDeny).Inc()
		return false, nil
	}
}
