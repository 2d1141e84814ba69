package application

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/infrastructure/cache"
	"epages-rest-layer/internal/infrastructure/fakeshop"
	"epages-rest-layer/internal/infrastructure/rest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// newTestShop serves a fake shop and returns a client connected to it.
func newTestShop(t *testing.T) (*fakeshop.Server, *rest.Client) {
	t.Helper()
	shop := fakeshop.New("DemoShop", zerolog.Nop())
	shop.RequireToken("secret", false)
	srv := httptest.NewServer(shop.Handler())
	t.Cleanup(srv.Close)

	session := domain.NewSession()
	require.True(t, session.Connect(strings.TrimPrefix(srv.URL, "http://"), "DemoShop", "secret", false))
	return shop, rest.NewClient(session)
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testCacheOptions(clock *manualClock) CacheOptions {
	return CacheOptions{Store: cache.NewMemoryStore(), Clock: clock, Wait: time.Minute, Namespace: "DemoShop"}
}
