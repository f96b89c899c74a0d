package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/lestari-hub/forestry-service/internal/config"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/rbac"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// CasdoorAuthMiddleware authenticates requests against Casdoor-issued JWTs
// and resolves the caller's profile for permission checks.
type CasdoorAuthMiddleware struct {
	client      *casdoorsdk.Client
	profileRepo repositories.ProfileRepository
	evaluator   *rbac.Evaluator
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, profileRepo repositories.ProfileRepository, evaluator *rbac.Evaluator) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client:      client,
		profileRepo: profileRepo,
		evaluator:   evaluator,
	}
}

// AuthMiddleware validates the bearer token and stores the caller's identity
// in the request context.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Authorization header missing",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Invalid token",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		profile, err := cam.resolveProfile(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "Failed to resolve user identity",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		c.Set("user_id", profile.ID)
		c.Set("user_role", profile.Role)
		c.Set("user_email", profile.Email)

		c.Next()
	}
}

// RequirePermission gates a route on one permission from the RBAC table.
// AuthMiddleware must run first.
func (cam *CasdoorAuthMiddleware) RequirePermission(perm rbac.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error: "User not authenticated",
			})
			c.Abort()
			return
		}

		if !cam.evaluator.HasPermission(c.Request.Context(), perm, userID) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error: "Forbidden: " + string(perm),
				Details: map[string]interface{}{
					"permission": string(perm),
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// resolveProfile looks up the caller in the profile store. A valid token for
// a user without a provisioned profile is rejected, keeping the store the
// single source of truth for roles.
func (cam *CasdoorAuthMiddleware) resolveProfile(ctx context.Context, claims *casdoorsdk.Claims) (*models.UserProfile, error) {
	userID := claims.Id
	if userID == "" {
		userID = claims.User.Id
	}
	if userID == "" {
		return nil, fmt.Errorf("token carries no user ID")
	}

	profile, err := cam.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("no profile for user %s: %w", userID, err)
	}
	return profile, nil
}
