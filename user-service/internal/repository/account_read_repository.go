package repository

import (
	"context"
	"time"

	"github.com/undersounds/undersounds/shared/models"
	"github.com/undersounds/undersounds/shared/redis"
)

const accountViewTTL = 10 * time.Minute

// AccountReadRepository serves account views, hitting the Redis cache first
// and falling back to the write store. Cache misses are repopulated on the
// way out.
type AccountReadRepository struct {
	cache  *redis.ViewCache[models.AccountView]
	writes *AccountWriteRepository
}

func NewAccountReadRepository(client *redis.Client, writes *AccountWriteRepository) *AccountReadRepository {
	return &AccountReadRepository{
		cache:  redis.NewViewCache[models.AccountView](client.Client, "account:view:", accountViewTTL),
		writes: writes,
	}
}

func (r *AccountReadRepository) GetView(ctx context.Context, id string) (*models.AccountView, error) {
	if view, ok := r.cache.Get(ctx, id); ok {
		return view, nil
	}

	account, err := r.writes.GetByID(id)
	if err != nil {
		return nil, err
	}
	view := models.NewAccountView(account)
	r.cache.Put(ctx, id, view)
	return view, nil
}

// CacheView refreshes the cached view for an account after a write.
func (r *AccountReadRepository) CacheView(ctx context.Context, account *models.Account) *models.AccountView {
	view := models.NewAccountView(account)
	r.cache.Put(ctx, account.ID, view)
	return view
}

func (r *AccountReadRepository) InvalidateView(ctx context.Context, id string) {
	r.cache.Invalidate(ctx, id)
}
