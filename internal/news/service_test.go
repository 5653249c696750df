package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"etrade-assistant/internal/types"
)

type fakeMarket struct {
	items []types.NewsItem
	err   error
	calls int
}

func (f *fakeMarket) Quote(ctx context.Context, symbol string) (*types.Quote, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMarket) History(ctx context.Context, symbol, interval, period string) ([]types.Candle, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeMarket) News(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	f.calls++
	return f.items, f.err
}

type fakeScraper struct {
	items []types.NewsItem
	calls int
}

func (f *fakeScraper) Headlines(ctx context.Context, symbol string, max int) ([]types.NewsItem, error) {
	f.calls++
	return f.items, nil
}

func TestHeadlineCache(t *testing.T) {
	cache := newHeadlineCache(1 * time.Second)

	symbol := "AAPL"
	items := []types.NewsItem{{Headline: "Apple beats earnings", Source: "Finviz"}}

	cache.set(symbol, items)

	retrieved, found := cache.get(symbol)
	if !found {
		t.Fatal("Expected to find cached headlines")
	}
	if len(retrieved) != 1 || retrieved[0].Headline != "Apple beats earnings" {
		t.Errorf("Cached items wrong: %+v", retrieved)
	}

	// Test expiration
	time.Sleep(2 * time.Second)
	if _, found = cache.get(symbol); found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestHeadlinesPrefersBrokerageFeed(t *testing.T) {
	market := &fakeMarket{items: []types.NewsItem{{Headline: "From the feed"}}}
	scraper := &fakeScraper{items: []types.NewsItem{{Headline: "Scraped"}}}

	svc := NewService(market, DefaultServiceConfig())
	svc.scraper = scraper

	items := svc.Headlines(context.Background(), "AAPL")
	if len(items) != 1 || items[0].Headline != "From the feed" {
		t.Errorf("Expected feed headlines, got %+v", items)
	}
	if scraper.calls != 0 {
		t.Error("Scraper must not run when the feed delivers")
	}
}

func TestHeadlinesFallsBackToScraping(t *testing.T) {
	market := &fakeMarket{err: errors.New("feed down")}
	scraper := &fakeScraper{items: []types.NewsItem{{Headline: "Scraped", Source: "Finviz"}}}

	svc := NewService(market, DefaultServiceConfig())
	svc.scraper = scraper

	items := svc.Headlines(context.Background(), "AAPL")
	if len(items) != 1 || items[0].Headline != "Scraped" {
		t.Errorf("Expected scraped headlines, got %+v", items)
	}
	if scraper.calls != 1 {
		t.Errorf("Scraper calls %d, want 1", scraper.calls)
	}
}

func TestHeadlinesCachesResults(t *testing.T) {
	market := &fakeMarket{items: []types.NewsItem{{Headline: "Cached once"}}}

	svc := NewService(market, DefaultServiceConfig())

	svc.Headlines(context.Background(), "AAPL")
	svc.Headlines(context.Background(), "AAPL")

	if market.calls != 1 {
		t.Errorf("Feed hit %d times for two lookups, want 1", market.calls)
	}
}

func TestHeadlinesDisabled(t *testing.T) {
	market := &fakeMarket{items: []types.NewsItem{{Headline: "Should not appear"}}}
	svc := NewService(market, &ServiceConfig{Enabled: false, CacheDuration: time.Minute})

	if items := svc.Headlines(context.Background(), "AAPL"); items != nil {
		t.Errorf("Disabled service must return nothing, got %+v", items)
	}
	if market.calls != 0 {
		t.Error("Disabled service must not hit the feed")
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newHeadlineCache(100 * time.Millisecond)

	for _, sym := range []string{"AAPL", "MSFT", "NVDA"} {
		cache.set(sym, []types.NewsItem{{Headline: sym}})
	}

	time.Sleep(200 * time.Millisecond)
	cache.cleanup()

	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()

	if count != 0 {
		t.Errorf("Expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestClearCache(t *testing.T) {
	svc := NewService(nil, DefaultServiceConfig())

	svc.cache.set("AAPL", []types.NewsItem{{Headline: "x"}})
	if len(svc.CachedSymbols()) != 1 {
		t.Fatal("Expected 1 cached symbol")
	}

	svc.ClearCache()
	if len(svc.CachedSymbols()) != 0 {
		t.Error("Expected cache to be empty after clear")
	}
}
