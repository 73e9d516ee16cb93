// README: Verified caller identity shared by the token verifiers and the auth middleware.
package infra

import "context"

// Token holds the verified token data used by downstream middleware.
type Token struct {
	UID    string
	Role   string
	Claims map[string]interface{}
}

// TokenVerifier verifies a raw bearer token string and returns token data.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
}
