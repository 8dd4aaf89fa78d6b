package auth

import "context"

// AuthVerifier valida un bearer token del proveedor de identidad y devuelve claims.
// nil en el router = modo dev (headers X-Debug-*).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
