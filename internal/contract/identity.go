package contract

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// maxUserIDLength bounds user ids stored alongside reports.
const maxUserIDLength = 128

type userIDKey struct{}

// Authenticate validates userID and returns a context carrying it.
// Every entrypoint runs it before handing the context to the scan pipeline.
func Authenticate(ctx context.Context, userID string) (context.Context, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return ctx, ErrNoIdentity
	}
	if len(id) > maxUserIDLength {
		return ctx, fmt.Errorf("user id exceeds %d characters", maxUserIDLength)
	}
	if strings.ContainsFunc(id, unicode.IsSpace) {
		return ctx, fmt.Errorf("user id %q must not contain whitespace", id)
	}
	return context.WithValue(ctx, userIDKey{}, id), nil
}

// UserIDFrom returns the authenticated user id carried by ctx.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// RequireUserID is UserIDFrom that fails with ErrNoIdentity.
func RequireUserID(ctx context.Context) (string, error) {
	id, ok := UserIDFrom(ctx)
	if !ok {
		return "", ErrNoIdentity
	}
	return id, nil
}
