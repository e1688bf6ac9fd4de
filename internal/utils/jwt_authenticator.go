package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// AuthenticatedUser is the caller identity extracted from a validated admin token
type AuthenticatedUser struct {
	Sub      string   `json:"sub"`
	Iss      string   `json:"iss"`
	ClientId string   `json:"client_id"`
	Exp      int64    `json:"exp"`
	Aud      []string `json:"aud"`
	Roles    []string `json:"roles"`
	Scopes   []string `json:"scopes"`
}

// JwtAuthenticator validates RS/ES signed bearer tokens against a JWKS endpoint
type JwtAuthenticator struct {
	JwksUri  string
	cacheTTL time.Duration

	mu        sync.Mutex
	keySet    jwk.Set
	fetchedAt time.Time
}

func NewJwtAuthenticator(jwksUri string) *JwtAuthenticator {
	return &JwtAuthenticator{
		JwksUri:  jwksUri,
		cacheTTL: 5 * time.Minute,
	}
}

// ValidateToken verifies the token signature and standard claims and returns the caller
func (a *JwtAuthenticator) ValidateToken(tokenString string) (*AuthenticatedUser, error) {
	if a.JwksUri == "" {
		return nil, fmt.Errorf("JWKS URI not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header is missing kid")
		}
		return a.fetchKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	return a.mapClaimsToUser(claims)
}

// fetchKey returns the raw public key for kid, refreshing the cached key set when stale
func (a *JwtAuthenticator) fetchKey(ctx context.Context, kid string) (interface{}, error) {
	set, err := a.keys(ctx)
	if err != nil {
		return nil, err
	}

	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, fmt.Errorf("key %s not found in JWKS", kid)
	}

	var raw interface{}
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to extract public key: %w", err)
	}
	return raw, nil
}

func (a *JwtAuthenticator) keys(ctx context.Context) (jwk.Set, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keySet != nil && time.Since(a.fetchedAt) < a.cacheTTL {
		return a.keySet, nil
	}

	set, err := jwk.Fetch(ctx, a.JwksUri)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	a.keySet = set
	a.fetchedAt = time.Now()
	return set, nil
}

func (a *JwtAuthenticator) mapClaimsToUser(claims map[string]interface{}) (*AuthenticatedUser, error) {
	user := &AuthenticatedUser{
		Sub:      stringClaim(claims, "sub"),
		Iss:      stringClaim(claims, "iss"),
		ClientId: stringClaim(claims, "client_id"),
		Aud:      stringsClaim(claims, "aud"),
		Roles:    stringsClaim(claims, "roles"),
		Scopes:   stringsClaim(claims, "scopes"),
	}

	switch exp := claims["exp"].(type) {
	case float64:
		user.Exp = int64(exp)
	case int64:
		user.Exp = exp
	case nil:
	default:
		return nil, fmt.Errorf("invalid exp claim type %T", exp)
	}
	return user, nil
}

func stringClaim(claims map[string]interface{}, name string) string {
	v, _ := claims[name].(string)
	return v
}

// stringsClaim accepts both a single string and a list of strings
func stringsClaim(claims map[string]interface{}, name string) []string {
	switch v := claims[name].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
