// Package auth authenticates principals and answers access decisions.
//
// # Authentication
//
// Authenticator.Authenticate accepts one login identifier and dispatches on its
// shape: an identifier containing "@" is an email, an 11 digit mobile number is
// a phone, anything else is an account name. It then checks, in order, that the
// principal exists, is active and is not locked, verifies the password and
// applies the lockout transition for the outcome. Counter updates and the last
// login stamp are written before Authenticate returns.
//
// # Lockout
//
// LockoutPolicy is a pure state machine over models.LockoutState. Five
// consecutive failures lock the principal for thirty minutes. An expired lock
// lets the next attempt through but keeps the counter; only a successful login
// resets it. Failures caused by the hasher itself are not counted.
//
// # Authorization
//
// Resolver computes the effective role and permission codes of a principal from
// the graph store on every call and holds no state. Store failures surface as
// iamerr.ErrResolutionFailed and every HasX method answers false alongside the
// error, so callers that ignore the error still deny.
//
// Fiber middleware is provided for route protection:
//
//	app.Get("/api/roles",
//	    auth.Authenticated(tokens),
//	    auth.RequirePermission(resolver, auth.PermRoleManage),
//	    handler,
//	)
package auth
