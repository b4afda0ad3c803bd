package query

import (
	"context"

	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/models"
)

// ViewReader serves cached account projections.
type ViewReader interface {
	GetView(ctx context.Context, id string) (*models.AccountView, error)
}

// AccountQueryService answers plain account reads through the view cache.
type AccountQueryService struct {
	views ViewReader
}

func NewAccountQueryService(views ViewReader) *AccountQueryService {
	return &AccountQueryService{views: views}
}

func (s *AccountQueryService) GetAccount(ctx context.Context, query cqrs.GetAccountQuery) (*models.AccountView, error) {
	return s.views.GetView(ctx, query.AccountID)
}
