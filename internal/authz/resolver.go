package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MembershipStore is the persistence-side view of the project_members
// relation. The projects module provides the implementation.
type MembershipStore interface {
	// ProjectIDs returns the ids of projects the user is a member of.
	ProjectIDs(ctx context.Context, userID int64) ([]int64, error)
	// AllProjectIDs returns every project id, used for the admin bypass.
	AllProjectIDs(ctx context.Context) ([]int64, error)
	// IsMember reports whether a membership row exists.
	IsMember(ctx context.Context, projectID, userID int64) (bool, error)
}

// Resolver computes which projects a user may act on. Admins implicitly
// have access to every project; every other role is scoped to explicit
// membership rows, regardless of how broad its permission set is.
type Resolver struct {
	store MembershipStore
	cache *redis.Client
	ttl   time.Duration
}

// NewResolver constructs a Resolver. The cache client is optional; when nil
// every check hits the store directly.
func NewResolver(store MembershipStore, cache *redis.Client, ttl time.Duration) *Resolver {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Resolver{store: store, cache: cache, ttl: ttl}
}

// ProjectIDsFor returns the set of project ids the user may act on.
func (r *Resolver) ProjectIDsFor(ctx context.Context, userID int64, role Role) ([]int64, error) {
	if IsAdmin(role) {
		return r.store.AllProjectIDs(ctx)
	}
	return r.store.ProjectIDs(ctx, userID)
}

// HasAccess reports whether the user may act on the project. Admin bypasses
// the membership check entirely, even for project ids that do not exist.
func (r *Resolver) HasAccess(ctx context.Context, userID, projectID int64, role Role) (bool, error) {
	if IsAdmin(role) {
		return true, nil
	}

	key := membershipKey(projectID, userID)
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, key).Result(); err == nil {
			return cached == "1", nil
		}
	}

	member, err := r.store.IsMember(ctx, projectID, userID)
	if err != nil {
		return false, err
	}

	if r.cache != nil {
		value := "0"
		if member {
			value = "1"
		}
		// Best effort; an unreachable cache must not fail the check.
		_ = r.cache.Set(ctx, key, value, r.ttl).Err()
	}
	return member, nil
}

// Invalidate drops the cached membership answer for a (project, user) pair.
// Called when members are added to or removed from a project.
func (r *Resolver) Invalidate(ctx context.Context, projectID, userID int64) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Del(ctx, membershipKey(projectID, userID)).Err()
}

func membershipKey(projectID, userID int64) string {
	return fmt.Sprintf("membership:%d:%d", projectID, userID)
}
