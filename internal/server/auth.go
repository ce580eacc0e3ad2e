package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Token scopes. Read tokens may browse and search; write tokens may also
// change locations, settings and directory metadata.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

const (
	tokenIssuer     = "tagdeck"
	defaultTokenTTL = 24 * time.Hour
	maxTokenTTL     = 30 * 24 * time.Hour
	claimsKey       = "claims"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidScope = errors.New("scope must be read or write")
)

// Claims are carried by issued tokens. An empty Locations list grants
// every location.
type Claims struct {
	jwt.RegisteredClaims
	Scope     string   `json:"scope"`
	Locations []string `json:"locations,omitempty"`
}

func (c *Claims) CanWrite() bool {
	return c != nil && c.Scope == ScopeWrite
}

// AllowsLocation reports whether the token may act on location id
func (c *Claims) AllowsLocation(id string) bool {
	if c == nil {
		return false
	}
	return len(c.Locations) == 0 || slices.Contains(c.Locations, id)
}

// Authenticator accepts the API key and tokens signed with the JWT secret.
// The API key holds full write access.
type Authenticator struct {
	apiKey []byte
	secret []byte
}

func NewAuthenticator(apiKey, secret string) *Authenticator {
	return &Authenticator{apiKey: []byte(apiKey), secret: []byte(secret)}
}

// IsAPIKey compares key against the API key in constant time
func (a *Authenticator) IsAPIKey(key string) bool {
	return len(a.apiKey) > 0 && subtle.ConstantTimeCompare([]byte(key), a.apiKey) == 1
}

// IssueToken signs a token for scope, optionally limited to locations
func (a *Authenticator) IssueToken(scope string, locations []string, ttl time.Duration) (string, error) {
	if scope != ScopeRead && scope != ScopeWrite {
		return "", ErrInvalidScope
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope:     scope,
		Locations: locations,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies signature, issuer and expiry of a token
func (a *Authenticator) ParseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != ScopeRead && claims.Scope != ScopeWrite {
		return nil, ErrInvalidScope
	}
	return claims, nil
}

// Authenticate resolves a presented credential to claims
func (a *Authenticator) Authenticate(credential string) (*Claims, error) {
	if a.IsAPIKey(credential) {
		return &Claims{Scope: ScopeWrite}, nil
	}
	return a.ParseToken(credential)
}

// requestToken reads the credential from the Authorization header, or from
// the token query parameter for event streams and sockets.
func requestToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return token
		}
		return h
	}
	return c.Query("token")
}

// ClaimsFrom returns the claims stored by AuthMiddleware
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// TokenRequest is the body of POST /api/token
type TokenRequest struct {
	Scope      string   `json:"scope" binding:"required"`
	Locations  []string `json:"locations"`
	TTLMinutes int      `json:"ttl_minutes"`
}

// IssueTokenHandler handles POST /api/token. Only the API key may mint
// tokens so shared tokens cannot be widened.
func IssueTokenHandler(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.IsAPIKey(requestToken(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "tokens can only be issued with the API key"})
			return
		}

		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "scope is required"})
			return
		}

		ttl := defaultTokenTTL
		if req.TTLMinutes > 0 {
			ttl = min(time.Duration(req.TTLMinutes)*time.Minute, maxTokenTTL)
		}

		token, err := a.IssueToken(req.Scope, req.Locations, ttl)
		if errors.Is(err, ErrInvalidScope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"scope":      req.Scope,
			"locations":  req.Locations,
			"expires_at": time.Now().Add(ttl).UTC(),
		})
	}
}
