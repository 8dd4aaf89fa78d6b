package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wcu-registry/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenEmpty     = errors.New("token is empty")
	ErrNotConfigured  = errors.New("supabase verifier not configured")
	ErrMissingSubject = errors.New("token missing sub")
)

// tokenClaims es el subset de claims que emite Supabase Auth.
// El rol de negocio (admin) vive en app_metadata, que solo el backend puede escribir.
type tokenClaims struct {
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	AppMetadata map[string]any `json:"app_metadata"`
	jwt.RegisteredClaims
}

type Config struct {
	// JWTSecret es el secreto HS256 del proyecto.
	JWTSecret string
	// Audience esperada; Supabase usa "authenticated". Vacío = no se valida.
	Audience string
	Leeway   time.Duration
}

// Verifier implementa auth.AuthVerifier validando el JWT localmente.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(cfg Config) *Verifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &Verifier{
		secret: []byte(strings.TrimSpace(cfg.JWTSecret)),
		parser: jwt.NewParser(opts...),
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || len(v.secret) == 0 {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var tc tokenClaims
	_, err := v.parser.ParseWithClaims(token, &tc, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return auth.Claims{}, fmt.Errorf("supabase verify failed: %w", err)
	}

	sub := strings.TrimSpace(tc.Subject)
	if sub == "" {
		return auth.Claims{}, ErrMissingSubject
	}

	return auth.Claims{
		UserID: sub,
		Email:  strings.ToLower(strings.TrimSpace(tc.Email)),
		Role:   resolveRole(tc),
	}, nil
}

// resolveRole: app_metadata.role tiene prioridad; el claim "role" de Supabase
// suele ser "authenticated", que no es un rol de negocio.
func resolveRole(tc tokenClaims) string {
	if tc.AppMetadata != nil {
		if r, ok := tc.AppMetadata["role"].(string); ok && strings.TrimSpace(r) != "" {
			return strings.TrimSpace(r)
		}
	}
	if strings.EqualFold(tc.Role, auth.RoleAdmin) {
		return auth.RoleAdmin
	}
	return ""
}
