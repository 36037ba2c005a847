package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yenja7/onboarding-api/internal/models"
)

// DraftRepository stores wizard drafts as JSON in Redis under draft:{ownerID}.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository constructs a draft repository with the retention TTL.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &DraftRepository{client: client, ttl: ttl}
}

func draftKey(ownerID string) string {
	return "draft:" + ownerID
}

// Get returns the owner's draft, or nil when none exists.
func (r *DraftRepository) Get(ctx context.Context, ownerID string) (*models.WizardDraft, error) {
	raw, err := r.client.Get(ctx, draftKey(ownerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get draft %s: %w", ownerID, err)
	}

	var draft models.WizardDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal draft %s: %w", ownerID, err)
	}
	return &draft, nil
}

// Save writes the draft back, refreshing its TTL.
func (r *DraftRepository) Save(ctx context.Context, draft *models.WizardDraft) error {
	draft.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", draft.OwnerID, err)
	}
	if err := r.client.Set(ctx, draftKey(draft.OwnerID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft %s: %w", draft.OwnerID, err)
	}
	return nil
}

// Delete removes the owner's draft.
func (r *DraftRepository) Delete(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, draftKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis delete draft %s: %w", ownerID, err)
	}
	return nil
}
