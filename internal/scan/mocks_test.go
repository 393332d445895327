package scan

import (
	"context"
	"time"

	"github.com/arbscan/arbscan/internal/domain"
)

type (
	nameDelegate        func() string
	isDexDelegate       func() bool
	loadDelegate        func(context.Context) ([]string, error)
	fetchDelegate       func(context.Context, string) (domain.Quote, error)
	feeScheduleDelegate func() domain.FeeSchedule
)

type mockGateway struct {
	nameFn  nameDelegate
	isDexFn isDexDelegate
	loadFn  loadDelegate
	fetchFn fetchDelegate
	feesFn  feeScheduleDelegate
}

func (m *mockGateway) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockGateway) IsDex() bool {
	if m.isDexFn != nil {
		return m.isDexFn()
	}

	return false
}

func (m *mockGateway) LoadSupportedInstruments(ctx context.Context) ([]string, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}

	return nil, nil
}

func (m *mockGateway) FetchQuote(ctx context.Context, instrument string) (domain.Quote, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, instrument)
	}

	return domain.Quote{}, nil
}

func (m *mockGateway) FeeSchedule() domain.FeeSchedule {
	if m.feesFn != nil {
		return m.feesFn()
	}

	return domain.FeeSchedule{}
}

type resolveDelegate func(context.Context, string) (domain.VenueGateway, error)

type mockResolver struct {
	resolveFn resolveDelegate
}

func (m *mockResolver) GetOrInit(ctx context.Context, venueID string) (domain.VenueGateway, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, venueID)
	}

	return nil, nil
}

type (
	setQuoteDelegate func(context.Context, string, string, domain.Quote, time.Duration) error
	getQuoteDelegate func(context.Context, string, string) (domain.Quote, error)
)

type mockQuoteCache struct {
	setFn setQuoteDelegate
	getFn getQuoteDelegate
}

func (m *mockQuoteCache) SetQuote(
	ctx context.Context,
	venueID, instrument string,
	q domain.Quote,
	ttl time.Duration,
) error {
	if m.setFn != nil {
		return m.setFn(ctx, venueID, instrument, q, ttl)
	}

	return nil
}

func (m *mockQuoteCache) GetQuote(ctx context.Context, venueID, instrument string) (domain.Quote, error) {
	if m.getFn != nil {
		return m.getFn(ctx, venueID, instrument)
	}

	return domain.Quote{}, domain.ErrNotFound
}
