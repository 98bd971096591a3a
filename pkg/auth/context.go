package auth

import "context"

type contextKey string

const (
	userIDKey        contextKey = "user_id"
	walletAddressKey contextKey = "wallet_address"
	sessionTokenKey  contextKey = "session_token"
)

// WithSession stores the authenticated session identity in the context
func WithSession(ctx context.Context, userID, walletAddress, token string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, walletAddressKey, walletAddress)
	return context.WithValue(ctx, sessionTokenKey, token)
}

// UserIDFromContext extracts the authenticated user id from the context
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// WalletAddressFromContext extracts the authenticated wallet address from the context
func WalletAddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(walletAddressKey).(string)
	return addr, ok
}

// SessionTokenFromContext extracts the bearer token of the current session
func SessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok
}
