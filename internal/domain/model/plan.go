package model

import (
	"time"

	"membership-platform/internal/domain"
)

// MembershipPlan is the purchasable catalog entry. CurrentPurchases is a
// denormalized counter maintained by a separate write from entitlement
// creation; the reconciler worker recomputes it from entitlement counts.
type MembershipPlan struct {
	ID           string // UUID
	Name         string
	Description  string
	DurationDays int // ignored when IsLifetime
	IsLifetime   bool
	PriceMinor   int64 // minor units (paise)
	Perks        []string

	CurrentPurchases int

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanSnapshot is the immutable copy of plan fields captured into an
// entitlement at purchase time, so the entitlement stays displayable even if
// the plan is later edited or soft-deleted.
type PlanSnapshot struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	DurationDays int      `json:"duration_days"`
	IsLifetime   bool     `json:"is_lifetime"`
	Perks        []string `json:"perks,omitempty"`
}

func NewMembershipPlan(id, name, description string, durationDays int, lifetime bool, priceMinor int64, perks []string, now time.Time) (*MembershipPlan, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if priceMinor < 0 {
		return nil, domain.NewValidationError("price", "must not be negative")
	}
	if !lifetime && durationDays <= 0 {
		return nil, domain.NewValidationError("duration_days", "must be positive for non-lifetime plans")
	}
	return &MembershipPlan{
		ID:           id,
		Name:         name,
		Description:  description,
		DurationDays: durationDays,
		IsLifetime:   lifetime,
		PriceMinor:   priceMinor,
		Perks:        perks,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Snapshot captures the immutable copy stored on the entitlement.
func (p *MembershipPlan) Snapshot() PlanSnapshot {
	perks := make([]string, len(p.Perks))
	copy(perks, p.Perks)
	return PlanSnapshot{
		Name:         p.Name,
		Description:  p.Description,
		DurationDays: p.DurationDays,
		IsLifetime:   p.IsLifetime,
		Perks:        perks,
	}
}

// Available reports whether the plan can still be sold.
func (p *MembershipPlan) Available() bool { return !p.IsDeleted }
