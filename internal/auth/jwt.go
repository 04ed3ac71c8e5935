package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

var (
	mu         sync.RWMutex
	jwtSecret  = []byte("dev-only-secret")
	tokenTTL   = 15 * time.Minute
	ErrNoToken = errors.New("missing or invalid token")
)

// Claims are the access token claims. Subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Configure sets the signing secret and token lifetime.
func Configure(secret string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()

	jwtSecret = []byte(secret)
	if ttl > 0 {
		tokenTTL = ttl
	}
}

func GenerateToken(user models.User) (string, error) {
	mu.RLock()
	secret, ttl := jwtSecret, tokenTTL
	mu.RUnlock()

	now := time.Now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenStr string) (*Claims, error) {
	mu.RLock()
	secret := jwtSecret
	mu.RUnlock()

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenClaims parses the claims out of an Authorization header value.
func TokenClaims(authorization string) (*Claims, error) {
	tokenStr, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || tokenStr == "" {
		return nil, ErrNoToken
	}
	return ParseToken(tokenStr)
}

func (c *Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}
