package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"clam-storefront/internal/logger"
)

// ErrNoToken is returned when the request carries no bearer token.
var ErrNoToken = errors.New("no bearer token")

// Claims represents the JWT claims we expect. The registered subject
// identifies the shopper that owns a cart.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole checks if the claims carry any of the given roles.
func (c *Claims) HasRole(allowed ...string) bool {
	set := make(map[string]struct{}, len(c.Roles))
	for _, r := range c.Roles {
		set[r] = struct{}{}
	}
	for _, a := range allowed {
		if _, ok := set[a]; ok {
			return true
		}
	}
	return false
}

// Verifier validates HMAC-signed tokens with a shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse validates and parses a JWT token string.
func (v *Verifier) Parse(tokenStr string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, errors.New("JWT_SECRET not set")
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token failed")
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// FromRequest parses the bearer token of r. It returns ErrNoToken when the
// Authorization header is missing or not a bearer token.
func (v *Verifier) FromRequest(r *http.Request) (*Claims, error) {
	tokenStr := BearerToken(r)
	if tokenStr == "" {
		return nil, ErrNoToken
	}
	return v.Parse(tokenStr)
}

// BearerToken extracts the Bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}

	parts := strings.SplitN(h, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// RequireRole rejects requests without a valid token carrying one of roles.
func (v *Verifier) RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := v.FromRequest(r)
		if err != nil {
			logger.Debugf("RequireRole: %v", err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if !claims.HasRole(roles...) {
			logger.Debugf("RequireRole: subject %q lacks roles %v", claims.Subject, roles)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		next(w, r)
	}
}
