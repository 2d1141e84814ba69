package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/infrastructure/cache"
	"epages-rest-layer/internal/infrastructure/fakeshop"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedResource_ThrottlesFetches(t *testing.T) {
	clock := newManualClock()
	loads := 0
	r := NewCachedResource("counter", func(context.Context) (int, error) {
		loads++
		return loads, nil
	}, CacheOptions{Store: cache.NewMemoryStore(), Clock: clock, Wait: 500 * time.Millisecond}, zerolog.Nop())
	ctx := context.Background()

	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(499 * time.Millisecond)
	v, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, loads)

	clock.Advance(time.Millisecond)
	v, err = r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, loads)
}

func TestCachedResource_FailedReloadLeavesItEmpty(t *testing.T) {
	clock := newManualClock()
	store := cache.NewMemoryStore()
	fail := false
	r := NewCachedResource("value", func(context.Context) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}, CacheOptions{Store: store, Clock: clock, Wait: time.Second}, zerolog.Nop())
	ctx := context.Background()

	_, err := r.Get(ctx)
	require.NoError(t, err)
	assert.True(t, r.IsFresh(ctx))

	clock.Advance(time.Second)
	fail = true
	_, err = r.Get(ctx)
	assert.Error(t, err)
	assert.False(t, r.IsFresh(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestCachedResource_ResetForcesReload(t *testing.T) {
	clock := newManualClock()
	loads := 0
	r := NewCachedResource("value", func(context.Context) (int, error) {
		loads++
		return loads, nil
	}, CacheOptions{Store: cache.NewMemoryStore(), Clock: clock}, zerolog.Nop())
	ctx := context.Background()

	_, _ = r.Get(ctx)
	require.NoError(t, r.Reset(ctx))
	assert.False(t, r.IsFresh(ctx))
	v, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestStaticResources_ZeroCacheOptions(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetLocales("de_DE", "de_DE", "en_GB")
	shop.SetInformation(domain.PagePrivacyPolicy, "de_DE", domain.Information{Name: "Datenschutz"})
	ctx := context.Background()

	locales := NewLocales(client, CacheOptions{}, zerolog.Nop())
	var def string
	require.NotPanics(t, func() {
		var err error
		def, err = locales.Default(ctx)
		require.NoError(t, err)
	})
	assert.Equal(t, "de_DE", def)
	_, err := locales.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/locales"), 1)

	pages := NewInformationPages(client, CacheOptions{}, zerolog.Nop())
	for i := 0; i < 2; i++ {
		info, err := pages.Page(ctx, domain.PagePrivacyPolicy, "de_DE")
		require.NoError(t, err)
		assert.Equal(t, "Datenschutz", info.Name)
	}
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/legal/"+domain.PagePrivacyPolicy), 1)
	require.NoError(t, pages.Reset(ctx))
}

func TestLocales_CachesAndSelects(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetLocales("de_DE", "de_DE", "en_GB")
	clock := newManualClock()
	locales := NewLocales(client, testCacheOptions(clock), zerolog.Nop())
	ctx := context.Background()

	def, err := locales.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "de_DE", def)
	items, err := locales.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"de_DE", "en_GB"}, items)
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/locales"), 1)

	require.NoError(t, locales.Use(ctx, "en_GB"))
	used, err := locales.Used(ctx)
	require.NoError(t, err)
	assert.Equal(t, "en_GB", used)
	assert.ErrorIs(t, locales.Use(ctx, "fr_FR"), domain.ErrValidation)

	clock.Advance(time.Minute)
	_, err = locales.Default(ctx)
	require.NoError(t, err)
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/locales"), 2)

	require.NoError(t, locales.Reset(ctx))
	used, err = locales.Used(ctx)
	require.NoError(t, err)
	assert.Equal(t, "de_DE", used)
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/locales"), 3)
}

func TestLocales_RateLimitedLoadStaysEmpty(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetLocales("de_DE", "de_DE")
	shop.SetFault(func(*http.Request) *fakeshop.Fault {
		return &fakeshop.Fault{Status: http.StatusTooManyRequests}
	})
	locales := NewLocales(client, testCacheOptions(newManualClock()), zerolog.Nop())
	ctx := context.Background()

	_, err := locales.Default(ctx)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	shop.SetFault(nil)
	def, err := locales.Default(ctx)
	require.NoError(t, err)
	assert.Equal(t, "de_DE", def)
}

func TestCurrencies(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetCurrencies("EUR", "EUR", "GBP", "euro")
	currencies := NewCurrencies(client, testCacheOptions(newManualClock()), zerolog.Nop())
	ctx := context.Background()

	items, err := currencies.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"EUR", "GBP"}, items)
	used, err := currencies.Used(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", used)
}

func TestCurrencies_MissingDefaultIsWrongResponse(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetCurrencies("", "EUR")
	currencies := NewCurrencies(client, testCacheOptions(newManualClock()), zerolog.Nop())

	_, err := currencies.Default(context.Background())
	assert.ErrorIs(t, err, domain.ErrWrongResponse)
}

func TestInformationPages_CachedPerPageAndLocale(t *testing.T) {
	shop, client := newTestShop(t)
	shop.SetInformation(domain.PageTermsAndConditions, "de_DE", domain.Information{Name: "AGB", Title: "Allgemeine Geschäftsbedingungen"})
	shop.SetInformation(domain.PageTermsAndConditions, "en_GB", domain.Information{Name: "Terms", Title: "Terms and Conditions"})
	clock := newManualClock()
	pages := NewInformationPages(client, testCacheOptions(clock), zerolog.Nop())
	ctx := context.Background()

	de, err := pages.Page(ctx, domain.PageTermsAndConditions, "de_DE")
	require.NoError(t, err)
	assert.Equal(t, "AGB", de.Name)
	en, err := pages.Page(ctx, domain.PageTermsAndConditions, "en_GB")
	require.NoError(t, err)
	assert.Equal(t, "Terms and Conditions", en.Title)
	_, err = pages.Page(ctx, domain.PageTermsAndConditions, "de_DE")
	require.NoError(t, err)

	reqs := shop.RequestsTo(http.MethodGet, "/legal/"+domain.PageTermsAndConditions)
	require.Len(t, reqs, 2)
	assert.Equal(t, "de_DE", reqs[0].Query.Get("locale"))
	assert.Equal(t, "en_GB", reqs[1].Query.Get("locale"))

	require.NoError(t, pages.Reset(ctx))
	_, err = pages.Page(ctx, domain.PageTermsAndConditions, "de_DE")
	require.NoError(t, err)
	assert.Len(t, shop.RequestsTo(http.MethodGet, "/legal/"+domain.PageTermsAndConditions), 3)
}

func TestInformationPages_Validation(t *testing.T) {
	shop, client := newTestShop(t)
	pages := NewInformationPages(client, testCacheOptions(newManualClock()), zerolog.Nop())
	ctx := context.Background()

	_, err := pages.Page(ctx, "imprint", "de_DE")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = pages.Page(ctx, domain.PagePrivacyPolicy, "german")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, shop.Requests())

	_, err = pages.Page(ctx, domain.PagePrivacyPolicy, "de_DE")
	assert.ErrorIs(t, err, domain.ErrWrongResponse)
}
