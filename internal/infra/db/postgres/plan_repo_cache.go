package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"membership-platform/internal/domain/model"
	"membership-platform/internal/domain/ports/repository"
	"membership-platform/internal/infra/metrics"
	red "membership-platform/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Writes invalidate. The
// catalog is tiny and read on every purchase and approval, so the hit rate is
// effectively total.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.MembershipPlan, error) {
	key := fmt.Sprintf("plan:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan", "hit")
		var plan model.MembershipPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			return &plan, nil
		}
	} else if err != redis.Nil {
		metrics.IncCacheRequest("plan", "error")
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if plan != nil {
		bytes, _ := json.Marshal(plan)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plan, nil
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.MembershipPlan, error) {
	const key = "plans:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("plan_list", "hit")
		var plans []*model.MembershipPlan
		if json.Unmarshal([]byte(val), &plans) == nil {
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		bytes, _ := json.Marshal(plans)
		d.cache.Set(ctx, key, bytes, d.ttl)
	}
	return plans, nil
}

func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.MembershipPlan) error {
	d.invalidate(ctx, plan.ID)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) SoftDelete(ctx context.Context, tx repository.Tx, id, actorID string, now time.Time) error {
	d.invalidate(ctx, id)
	return d.inner.SoftDelete(ctx, tx, id, actorID, now)
}

func (d *planRepoCacheDecorator) IncrementPurchases(ctx context.Context, tx repository.Tx, id string, delta int) error {
	d.invalidate(ctx, id)
	return d.inner.IncrementPurchases(ctx, tx, id, delta)
}

func (d *planRepoCacheDecorator) SetPurchaseCount(ctx context.Context, tx repository.Tx, id string, count int) error {
	d.invalidate(ctx, id)
	return d.inner.SetPurchaseCount(ctx, tx, id, count)
}

func (d *planRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	d.cache.Del(ctx, fmt.Sprintf("plan:%s", id), "plans:all")
}
