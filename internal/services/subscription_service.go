package services

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"
)

// SubscriptionStore is the storage surface the subscription service needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
	GetSubscription(ctx context.Context, id int64) (*core.Subscription, error)
	CreateSubscription(ctx context.Context, v core.ValidSubscription, now time.Time) (*core.Subscription, error)
	UpdateSubscription(ctx context.Context, id int64, patch core.SubscriptionPatch, now time.Time) (*core.Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) (bool, error)
}

// SubscriptionResult mirrors TransactionResult for subscription operations.
type SubscriptionResult struct {
	Success      bool               `json:"success"`
	Subscription *core.Subscription `json:"subscription,omitempty"`
	NotFound     bool               `json:"-"`
	Errors       []core.FieldError  `json:"errors,omitempty"`
}

// SubscriptionService manages recurring payment templates. Subscriptions
// publish no events; the billing processor creates transactions from them
// and those carry the events.
type SubscriptionService struct {
	store   SubscriptionStore
	catalog *core.Catalog
	now     func() time.Time
}

func NewSubscriptionService(store SubscriptionStore, catalog *core.Catalog) *SubscriptionService {
	return &SubscriptionService{
		store:   store,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *SubscriptionService) List(ctx context.Context) ([]core.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	for i := range subs {
		s.enrich(&subs[i])
	}
	return subs, nil
}

func (s *SubscriptionService) Get(ctx context.Context, rawID string) (SubscriptionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return SubscriptionResult{Errors: []core.FieldError{*fieldErr}}, nil
	}

	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return SubscriptionResult{}, err
	}
	if sub == nil {
		return SubscriptionResult{NotFound: true}, nil
	}
	s.enrich(sub)
	return SubscriptionResult{Success: true, Subscription: sub}, nil
}

func (s *SubscriptionService) Create(ctx context.Context, in core.SubscriptionInput) (SubscriptionResult, error) {
	res := core.ValidateSubscriptionCreate(in)
	if !res.Success {
		return SubscriptionResult{Errors: res.Errors}, nil
	}

	sub, err := s.store.CreateSubscription(ctx, res.Data, s.now())
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("create subscription: %w", err)
	}
	s.enrich(sub)
	return SubscriptionResult{Success: true, Subscription: sub}, nil
}

func (s *SubscriptionService) Update(ctx context.Context, rawID string, in core.SubscriptionInput) (SubscriptionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return SubscriptionResult{Errors: []core.FieldError{*fieldErr}}, nil
	}

	res := core.ValidateSubscriptionUpdate(in)
	if !res.Success {
		return SubscriptionResult{Errors: res.Errors}, nil
	}

	sub, err := s.store.UpdateSubscription(ctx, id, res.Data, s.now())
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("update subscription %d: %w", id, err)
	}
	if sub == nil {
		return SubscriptionResult{NotFound: true}, nil
	}
	s.enrich(sub)
	return SubscriptionResult{Success: true, Subscription: sub}, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, rawID string) (SubscriptionResult, error) {
	id, fieldErr := core.ValidateID(rawID)
	if fieldErr != nil {
		return SubscriptionResult{Errors: []core.FieldError{*fieldErr}}, nil
	}

	deleted, err := s.store.DeleteSubscription(ctx, id)
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("delete subscription %d: %w", id, err)
	}
	if !deleted {
		return SubscriptionResult{NotFound: true}, nil
	}
	return SubscriptionResult{Success: true}, nil
}

func (s *SubscriptionService) enrich(sub *core.Subscription) {
	if s.catalog == nil || sub.CategoryID == nil {
		return
	}
	sub.Category = s.catalog.Lookup(*sub.CategoryID)
}
