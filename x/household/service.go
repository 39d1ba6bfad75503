package household

import (
	"context"

	"github.com/aldea-dev/aldea/core"
)

type service struct {
	repository Repository
}

// NewService creates a new household service
func NewService(repository Repository) core.HouseholdService {
	return &service{repository: repository}
}

func (s *service) Get(ctx context.Context, id string) (core.Household, error) {
	ctx, span := tracer.Start(ctx, "Household.Service.Get")
	defer span.End()

	return s.repository.Get(ctx, id)
}

// GetMine resolves the requester's household within the active tenant.
func (s *service) GetMine(ctx context.Context, requester core.Requester) (core.Household, error) {
	ctx, span := tracer.Start(ctx, "Household.Service.GetMine")
	defer span.End()

	if requester.HouseholdID != nil {
		return s.repository.Get(ctx, *requester.HouseholdID)
	}
	return s.repository.GetByTenantUser(ctx, requester.UserID, requester.TenantID)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Household.Service.Count")
	defer span.End()

	return s.repository.Count(ctx)
}
