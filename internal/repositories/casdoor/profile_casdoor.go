package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// roleProperty is the Casdoor user property carrying the dashboard role.
const roleProperty = "forestry_role"

type ProfileCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig

	cachePrefix string
	cacheTTL    time.Duration
}

func NewProfileCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.ProfileRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &ProfileCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "profile:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (p *ProfileCasdoor) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", p.cachePrefix, key)
}

func (p *ProfileCasdoor) getProfileFromCache(ctx context.Context, key string) (*models.UserProfile, error) {
	if p.redis == nil {
		return nil, nil // Cache not available
	}

	cacheKey := p.getCacheKey(key)
	data, err := p.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not found in cache
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached profile: %w", err)
	}

	return &profile, nil
}

func (p *ProfileCasdoor) setProfileCache(ctx context.Context, key string, profile *models.UserProfile) error {
	if p.redis == nil {
		return nil // Cache not available
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile for cache: %w", err)
	}

	cacheKey := p.getCacheKey(key)
	return p.redis.Set(ctx, cacheKey, data, p.cacheTTL).Err()
}

func (p *ProfileCasdoor) invalidateProfileCache(ctx context.Context, profile *models.UserProfile) {
	if p.redis == nil || profile == nil {
		return
	}

	p.redis.Del(ctx,
		p.getCacheKey(fmt.Sprintf("id:%s", profile.ID)),
		p.getCacheKey(fmt.Sprintf("email:%s", profile.Email)),
	)
}

// ===== CONVERSION METHODS =====

func (p *ProfileCasdoor) convertCasdoorUserToProfile(casdoorUser *casdoorsdk.User) *models.UserProfile {
	if casdoorUser == nil {
		return nil
	}

	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	return &models.UserProfile{
		ID:        casdoorUser.Id,
		FullName:  casdoorUser.DisplayName,
		Email:     casdoorUser.Email,
		Role:      p.resolveRole(casdoorUser),
		AvatarURL: &casdoorUser.Avatar,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// resolveRole determines the dashboard role for a Casdoor user. The explicit
// role property wins, then Casdoor role assignments, then the admin flag.
func (p *ProfileCasdoor) resolveRole(casdoorUser *casdoorsdk.User) models.UserRole {
	if prop, ok := casdoorUser.Properties[roleProperty]; ok {
		if role := models.UserRole(strings.ToLower(prop)); models.IsValidRole(role) {
			return role
		}
	}

	var roles []models.UserRole
	seen := make(map[models.UserRole]bool)
	for _, casdoorRole := range casdoorUser.Roles {
		mapped := p.mapCasdoorRoleName(casdoorRole.Name)
		if !seen[mapped] {
			roles = append(roles, mapped)
			seen[mapped] = true
		}
	}

	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	if len(roles) == 0 {
		return models.RoleViewer // Default role
	}
	return roles[0] // First role is primary
}

func (p *ProfileCasdoor) mapCasdoorRoleName(name string) models.UserRole {
	if role := models.UserRole(strings.ToLower(name)); models.IsValidRole(role) {
		return role
	}

	switch strings.ToLower(name) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "monitoring", "evaluation":
		return models.RoleMonev
	case "planner":
		return models.RoleProgramPlanner
	case "implementer":
		return models.RoleProgramImplementer
	default:
		return models.RoleViewer // Default role
	}
}

// ===== BASIC READ OPERATIONS =====

// GetByID retrieves a profile by Casdoor user ID
func (p *ProfileCasdoor) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	if cached, err := p.getProfileFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	casdoorUser, err := p.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("profile not found with ID %s: %w", id, repositories.ErrNotFound)
	}

	profile := p.convertCasdoorUserToProfile(casdoorUser)

	p.setProfileCache(ctx, cacheKey, profile)
	p.setProfileCache(ctx, fmt.Sprintf("email:%s", profile.Email), profile)

	return profile, nil
}

// GetByEmail retrieves a profile by email
func (p *ProfileCasdoor) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	if cached, err := p.getProfileFromCache(ctx, cacheKey); err == nil && cached != nil {
		return cached, nil
	}

	casdoorUser, err := p.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("profile not found with email %s: %w", email, repositories.ErrNotFound)
	}

	profile := p.convertCasdoorUserToProfile(casdoorUser)

	p.setProfileCache(ctx, cacheKey, profile)
	p.setProfileCache(ctx, fmt.Sprintf("id:%s", profile.ID), profile)

	return profile, nil
}

// ===== LIST AND SEARCH OPERATIONS =====

// List retrieves a paginated list of profiles with optional filters
func (p *ProfileCasdoor) List(ctx context.Context, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	if filters.Limit <= 0 {
		filters.Limit = 10
	}
	if filters.Limit > 100 {
		filters.Limit = 100
	}

	// Casdoor uses 1-indexed pages
	page := (filters.Offset / filters.Limit) + 1
	if page < 1 {
		page = 1
	}

	queryMap := make(map[string]string)
	if filters.Query != "" {
		queryMap["field"] = "email"
		queryMap["value"] = filters.Query
	}

	casdoorUsers, count, err := p.client.GetPaginationUsers(page, filters.Limit, queryMap)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get users from Casdoor: %w", err)
	}

	profiles := make([]*models.UserProfile, 0, len(casdoorUsers))
	for _, casdoorUser := range casdoorUsers {
		profile := p.convertCasdoorUserToProfile(casdoorUser)
		if profile == nil {
			continue
		}
		if filters.Role != nil && profile.Role != *filters.Role {
			continue
		}
		profiles = append(profiles, profile)

		p.setProfileCache(ctx, fmt.Sprintf("id:%s", profile.ID), profile)
		p.setProfileCache(ctx, fmt.Sprintf("email:%s", profile.Email), profile)
	}

	return profiles, int64(count), nil
}

// Search searches for profiles by query string
func (p *ProfileCasdoor) Search(ctx context.Context, query string, filters repositories.ProfileFilters) ([]*models.UserProfile, int64, error) {
	filters.Query = query
	return p.List(ctx, filters)
}

// ===== WRITE OPERATIONS =====

// UpdateRole stores the new role on the Casdoor user and drops the cached
// profile so the next permission check sees it.
func (p *ProfileCasdoor) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	casdoorUser, err := p.client.GetUserByUserId(id)
	if err != nil {
		return fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return fmt.Errorf("profile not found with ID %s: %w", id, repositories.ErrNotFound)
	}

	if casdoorUser.Properties == nil {
		casdoorUser.Properties = make(map[string]string)
	}
	casdoorUser.Properties[roleProperty] = string(role)

	ok, err := p.client.UpdateUserForColumns(casdoorUser, []string{"properties"})
	if err != nil {
		return fmt.Errorf("failed to update user role in Casdoor: %w", err)
	}
	if !ok {
		return fmt.Errorf("Casdoor rejected role update for user %s", id)
	}

	p.invalidateProfileCache(ctx, p.convertCasdoorUserToProfile(casdoorUser))

	return nil
}
