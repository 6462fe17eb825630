package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/persistence"
)

const (
	publicIssuesCacheKey = "issues:public"
	publicIssuesCacheTTL = 30 * time.Second
)

// issueListCache keeps the unfiltered public issue list in Redis. Mutations
// drop the key; a stale miss just falls through to Postgres.
type issueListCache struct {
	redis *persistence.Redis
}

func (c *issueListCache) get(ctx context.Context) ([]domain.Issue, bool) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return nil, false
	}
	raw, err := c.redis.Client.Get(ctx, publicIssuesCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var issues []domain.Issue
	if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, false
	}
	return issues, true
}

func (c *issueListCache) set(ctx context.Context, issues []domain.Issue) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	raw, err := json.Marshal(issues)
	if err != nil {
		return
	}
	_ = c.redis.Client.Set(ctx, publicIssuesCacheKey, raw, publicIssuesCacheTTL).Err()
}

func (c *issueListCache) invalidate(ctx context.Context) {
	if c == nil || c.redis == nil || c.redis.Client == nil {
		return
	}
	_ = c.redis.Client.Del(ctx, publicIssuesCacheKey).Err()
}
