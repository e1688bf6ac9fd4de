package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// handleOAuthProtectedResource serves the OAuth 2.0 protected resource metadata for the admin routes and /mcp
func (s *APIServer) handleOAuthProtectedResource(c *fiber.Ctx) error {
	auth := s.svc.Config.Auth
	if auth.JwksURI == "" {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{
			Error:   "NotFound",
			Message: "authentication is not configured",
		})
	}

	authorizationServers := []string{}
	if auth.AuthorizationServer != "" {
		authorizationServers = append(authorizationServers, auth.AuthorizationServer)
	}

	resource := auth.ResourceID
	if resource == "" {
		resource = c.BaseURL()
	}

	scopes := []string{}
	if auth.AdminScope != "" {
		scopes = append(scopes, auth.AdminScope)
	}

	return c.JSON(fiber.Map{
		"resource":                 resource,
		"authorization_servers":    authorizationServers,
		"jwks_uri":                 auth.JwksURI,
		"bearer_methods_supported": []string{"header"},
		"scopes_supported":         scopes,
	})
}

// resourceMetadataURL is advertised to clients that call protected routes without a token
func (s *APIServer) resourceMetadataURL() string {
	resource := strings.TrimSuffix(s.svc.Config.Auth.ResourceID, "/")
	if !strings.HasPrefix(resource, "http") {
		return ""
	}
	return resource + "/.well-known/oauth-protected-resource"
}
