package model

import (
	"time"

	"membership-platform/internal/domain"
)

// Service is the catalog entry behind service subscriptions.
// DurationDays == 0 means the subscription never expires.
type Service struct {
	ID           string // UUID
	Name         string
	Description  string
	DurationDays int
	PriceMinor   int64
	Perks        []string

	CurrentPurchases int

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ServiceSnapshot mirrors PlanSnapshot for service subscriptions.
type ServiceSnapshot struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days"`
	Perks        []string `json:"perks,omitempty"`
}

func NewService(id, name, description string, durationDays int, priceMinor int64, perks []string, now time.Time) (*Service, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if priceMinor < 0 {
		return nil, domain.NewValidationError("price", "must not be negative")
	}
	if durationDays < 0 {
		return nil, domain.NewValidationError("duration_days", "must not be negative")
	}
	return &Service{
		ID:           id,
		Name:         name,
		Description:  description,
		DurationDays: durationDays,
		PriceMinor:   priceMinor,
		Perks:        perks,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) Snapshot() ServiceSnapshot {
	perks := make([]string, len(s.Perks))
	copy(perks, s.Perks)
	return ServiceSnapshot{
		Name:         s.Name,
		Description:  s.Description,
		DurationDays: s.DurationDays,
		Perks:        perks,
	}
}

func (s *Service) Available() bool { return !s.IsDeleted }
