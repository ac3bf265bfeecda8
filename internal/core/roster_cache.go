package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vaultsight-backend-go/internal/cache"
	"vaultsight-backend-go/internal/db"
	"vaultsight-backend-go/internal/models"
)

// rosterCache implements the RosterCache interface as a read-through wrapper
// around the member repository. Entries are keyed by organization id with a
// short TTL so duplicate roster fetches within one generation run are
// avoided; switching organizations either invalidates explicitly or lets the
// entry expire.
type rosterCache struct {
	memberRepo db.MemberRepository
	store      cache.Cache
	ttl        time.Duration
	logger     *zap.Logger
}

// NewRosterCache creates a new RosterCache instance.
func NewRosterCache(mr db.MemberRepository, store cache.Cache, ttl time.Duration, logger *zap.Logger) RosterCache {
	return &rosterCache{
		memberRepo: mr,
		store:      store,
		ttl:        ttl,
		logger:     logger,
	}
}

func rosterKey(orgID string) string {
	return "roster:" + orgID
}

// GetMembers returns the cached roster for an organization, fetching and
// caching it on a miss. Cache failures degrade to a direct fetch; they are
// never fatal.
func (c *rosterCache) GetMembers(ctx context.Context, orgID string) ([]models.OrgMember, error) {
	if c.memberRepo == nil || c.store == nil {
		return nil, errors.New("rosterCache: component not initialized")
	}
	if orgID == "" {
		return nil, errors.New("orgID cannot be empty for GetMembers")
	}

	key := rosterKey(orgID)
	if cached, err := c.store.Get(key); err == nil && cached != "" {
		var members []models.OrgMember
		if err := json.Unmarshal([]byte(cached), &members); err == nil {
			return members, nil
		}
		// Unreadable entry; drop it and fall through to a fresh fetch.
		c.logger.Warn("Discarding unreadable roster cache entry", zap.String("orgId", orgID))
		_ = c.store.Delete(key)
	}

	members, err := c.memberRepo.GetByOrganizationID(ctx, orgID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member roster for org '%s': %w", orgID, err)
	}

	if encoded, err := json.Marshal(members); err == nil {
		if err := c.store.Set(key, string(encoded), c.ttl); err != nil {
			c.logger.Warn("Failed to cache member roster", zap.String("orgId", orgID), zap.Error(err))
		}
	}

	return members, nil
}

// Invalidate drops the cached roster for an organization.
func (c *rosterCache) Invalidate(orgID string) error {
	if c.store == nil {
		return errors.New("rosterCache: store not initialized")
	}
	return c.store.Delete(rosterKey(orgID))
}
