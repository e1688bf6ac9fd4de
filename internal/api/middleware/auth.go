package middleware

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/swapit-router/internal/utils"
)

const userLocalsKey = "user"

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	// ResourceID is the expected audience for token validation
	ResourceID string
	// ResourceMetadataURL is advertised in the WWW-Authenticate header of 401 responses
	ResourceMetadataURL string
	// TokenValidator checks opaque tokens when no JWTAuthenticator is set
	TokenValidator func(token string, audience []string) error
	// JWTAuthenticator validates JWTs against a JWKS and takes precedence over TokenValidator
	JWTAuthenticator *utils.JwtAuthenticator
	// RequiredScope, when set, must be among the token's scopes
	RequiredScope string
	// SkipWellKnown lets .well-known metadata through without a token
	SkipWellKnown bool
}

// DefaultAuthConfig accepts any non-empty bearer token
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		SkipWellKnown: true,
		TokenValidator: func(token string, audience []string) error {
			if token == "" {
				return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
			}
			return nil
		},
	}
}

// AuthMiddleware returns a Fiber middleware for Bearer token authentication.
// JWT callers are stored in the request locals, see GetAuthenticatedUser.
func AuthMiddleware(config ...AuthConfig) fiber.Handler {
	cfg := DefaultAuthConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	return func(c *fiber.Ctx) error {
		if cfg.SkipWellKnown && strings.Contains(c.Path(), ".well-known") {
			return c.Next()
		}

		token := bearerToken(c)
		if token == "" {
			return cfg.challenge(c, "Missing or invalid Bearer token")
		}

		if cfg.JWTAuthenticator == nil {
			if err := cfg.TokenValidator(token, cfg.audience()); err != nil {
				return cfg.reject(c, "Invalid token", "")
			}
			return c.Next()
		}

		user, err := cfg.JWTAuthenticator.ValidateToken(token)
		switch {
		case err != nil:
			return cfg.reject(c, "Invalid token", err.Error())
		case cfg.ResourceID != "" && !slices.Contains(user.Aud, cfg.ResourceID):
			return cfg.reject(c, "Invalid audience", "")
		case cfg.RequiredScope != "" && !slices.Contains(user.Scopes, cfg.RequiredScope):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "Forbidden",
				"message": fmt.Sprintf("Token is missing the %s scope", cfg.RequiredScope),
			})
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (cfg AuthConfig) audience() []string {
	if cfg.ResourceID == "" {
		return nil
	}
	return []string{cfg.ResourceID}
}

// challenge answers a request without credentials, pointing the client at the resource metadata
func (cfg AuthConfig) challenge(c *fiber.Ctx, message string) error {
	header := `Bearer realm="OAuth"`
	if cfg.ResourceMetadataURL != "" {
		header = fmt.Sprintf(`Bearer realm="OAuth", resource_metadata="%s"`, cfg.ResourceMetadataURL)
	}
	c.Set(fiber.HeaderWWWAuthenticate, header)
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": message,
	})
}

// reject answers a request whose credentials did not validate
func (cfg AuthConfig) reject(c *fiber.Ctx, message, details string) error {
	c.Set(fiber.HeaderWWWAuthenticate, `Bearer realm="Access to protected resource", error="invalid_token"`)
	body := fiber.Map{
		"error":   "Unauthorized",
		"message": message,
	}
	if details != "" {
		body["details"] = details
	}
	return c.Status(fiber.StatusUnauthorized).JSON(body)
}

// GetAuthenticatedUser returns the JWT caller of the request, or nil for unauthenticated routes
func GetAuthenticatedUser(c *fiber.Ctx) *utils.AuthenticatedUser {
	user, _ := c.Locals(userLocalsKey).(*utils.AuthenticatedUser)
	return user
}
