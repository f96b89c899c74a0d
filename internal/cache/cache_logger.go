package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates a cache pattern with logging.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateGrantCache invalidates all grant-related caches after a write.
func InvalidateGrantCache(ctx context.Context, cm *CacheManager, grantID string) {
	SafeDelete(ctx, cm.Grant,
		fmt.Sprintf("id:%s", grantID),
		fmt.Sprintf("details:%s", grantID))
	SafeInvalidatePattern(ctx, cm.Grant, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "dashboard:*")
}

// InvalidateCarbonCache invalidates all carbon-project caches after a write.
func InvalidateCarbonCache(ctx context.Context, cm *CacheManager, projectID string) {
	SafeDelete(ctx, cm.Carbon,
		fmt.Sprintf("id:%s", projectID),
		fmt.Sprintf("details:%s", projectID))
	SafeInvalidatePattern(ctx, cm.Carbon, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, "dashboard:*")
}

// InvalidateProfileCache drops a cached profile after a role change so the
// next permission check sees the new role.
func InvalidateProfileCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Profile, fmt.Sprintf("id:%s", userID))
}
