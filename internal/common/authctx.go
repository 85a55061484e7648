package common

import "context"

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyRoles
)

// WithUserID stores the authenticated shopper id on the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserID returns the authenticated shopper id, if any.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(string)
	return id, ok && id != ""
}

// WithRoles stores the token's role claims on the context.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ctxKeyRoles, roles)
}

// HasRole reports whether the request carries the given role claim.
func HasRole(ctx context.Context, role string) bool {
	roles, ok := ctx.Value(ctxKeyRoles).([]string)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
