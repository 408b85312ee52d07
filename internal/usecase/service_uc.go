// File: internal/usecase/service_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"membership-platform/internal/domain"
	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
)

var _ ServiceUseCase = (*serviceUC)(nil)

// ServiceUseCase manages the service catalog.
type ServiceUseCase interface {
	Create(ctx context.Context, in ServiceInput) (*model.Service, error)
	Update(ctx context.Context, id string, in ServiceInput) (*model.Service, error)
	Delete(ctx context.Context, id, actorID string) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	ListAll(ctx context.Context) ([]*model.Service, error)
}

// ServiceInput carries the editable service fields. DurationDays zero means
// subscriptions to the service never expire.
type ServiceInput struct {
	Name         string
	Description  string
	DurationDays int
	PriceMinor   int64
	Perks        []string
}

type serviceUC struct {
	services repository.ServiceRepository
	clock    domain.Clock
	log      *zerolog.Logger
}

func NewServiceUseCase(services repository.ServiceRepository, clock domain.Clock, logger *zerolog.Logger) *serviceUC {
	l := logger.With().Str("component", "ServiceUC").Logger()
	return &serviceUC{services: services, clock: clock, log: &l}
}

func (u *serviceUC) Create(ctx context.Context, in ServiceInput) (*model.Service, error) {
	svc, err := model.NewService(uuid.NewString(), in.Name, in.Description, in.DurationDays, in.PriceMinor, in.Perks, u.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := u.services.Save(ctx, repository.NoTX, svc); err != nil {
		return nil, err
	}
	u.log.Info().Str("service_id", svc.ID).Str("name", svc.Name).Msg("service created")
	return svc, nil
}

func (u *serviceUC) Update(ctx context.Context, id string, in ServiceInput) (*model.Service, error) {
	svc, err := u.services.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if in.DurationDays < 0 {
		return nil, domain.NewValidationError("duration_days", "must not be negative")
	}
	if in.PriceMinor < 0 {
		return nil, domain.NewValidationError("price", "must not be negative")
	}
	svc.Name = in.Name
	svc.Description = in.Description
	svc.DurationDays = in.DurationDays
	svc.PriceMinor = in.PriceMinor
	svc.Perks = in.Perks
	svc.UpdatedAt = u.clock.Now()
	if err := u.services.Save(ctx, repository.NoTX, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (u *serviceUC) Delete(ctx context.Context, id, actorID string) error {
	return u.services.SoftDelete(ctx, repository.NoTX, id, actorID, u.clock.Now())
}

func (u *serviceUC) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return u.services.FindByID(ctx, repository.NoTX, id)
}

func (u *serviceUC) ListAll(ctx context.Context) ([]*model.Service, error) {
	return u.services.ListAll(ctx, repository.NoTX)
}
