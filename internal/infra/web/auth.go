package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"membership-platform/internal/infra/logging"
)

const sessionCookie = "admin_session"

// AuthManager mints and verifies admin session tokens. The admin key from
// config is exchanged at login for a short-lived HS256 JWT, delivered both
// in the response body and as an HttpOnly cookie.
type AuthManager struct {
	adminKey string
	secret   []byte
	ttl      time.Duration
	secure   bool
}

func NewAuthManager(adminKey, jwtSecret string, ttl time.Duration, secureCookie bool) *AuthManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthManager{
		adminKey: adminKey,
		secret:   []byte(jwtSecret),
		ttl:      ttl,
		secure:   secureCookie,
	}
}

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Exchange validates the admin key and returns a signed session token.
func (a *AuthManager) Exchange(adminKey string) (string, error) {
	if a.adminKey == "" || adminKey != a.adminKey {
		return "", errors.New("invalid admin key")
	}
	now := time.Now()
	claims := adminClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *AuthManager) setCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// parseFromRequest accepts the token as a Bearer header or session cookie.
func (a *AuthManager) parseFromRequest(r *http.Request) (*adminClaims, error) {
	tok := ""
	if hdr := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		tok = strings.TrimSpace(hdr[7:])
	} else if c, err := r.Cookie(sessionCookie); err == nil {
		tok = c.Value
	}
	if tok == "" {
		return nil, errors.New("missing token")
	}

	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// RequireAdmin guards the admin API. The verified subject is stashed in the
// request context so handlers can attribute actions to an actor.
func (a *AuthManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.parseFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		ctx := logging.WithAdminID(r.Context(), claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
