package news

import (
	"context"
	"sync"
	"time"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

// Service provides recent headlines for a symbol with caching. The
// brokerage news feed is preferred; public sources are scraped only when
// the feed yields nothing, so an unauthenticated session still gets news.
type Service struct {
	market  interfaces.MarketData // may be nil when no session is available
	scraper headlineSource
	cache   *headlineCache
	cfg     *ServiceConfig
}

// headlineSource lets tests substitute the web scraper.
type headlineSource interface {
	Headlines(ctx context.Context, symbol string, max int) ([]types.NewsItem, error)
}

// ServiceConfig configures the headline service
type ServiceConfig struct {
	MaxItems       int           // Maximum headlines returned per symbol
	CacheDuration  time.Duration // How long to cache headlines
	ScraperTimeout time.Duration // Timeout for scraping operations
	Enabled        bool          // Whether news retrieval is enabled
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		MaxItems:       5,
		CacheDuration:  15 * time.Minute,
		ScraperTimeout: 30 * time.Second,
		Enabled:        true,
	}
}

// headlineCache stores fetched headlines temporarily
type headlineCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	items     []types.NewsItem
	timestamp time.Time
}

func newHeadlineCache(ttl time.Duration) *headlineCache {
	cache := &headlineCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	// Start cleanup goroutine
	go cache.cleanupLoop()

	return cache
}

// get retrieves cached headlines if still fresh
func (c *headlineCache) get(symbol string) ([]types.NewsItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[symbol]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) > c.ttl {
		return nil, false
	}
	return entry.items, true
}

func (c *headlineCache) set(symbol string, items []types.NewsItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[symbol] = &cacheEntry{
		items:     items,
		timestamp: time.Now(),
	}
}

// cleanupLoop periodically removes expired entries
func (c *headlineCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *headlineCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for symbol, entry := range c.data {
		if now.Sub(entry.timestamp) > c.ttl {
			delete(c.data, symbol)
		}
	}
}

// NewService creates a new headline service. market may be nil; the service
// then relies on scraping alone.
func NewService(market interfaces.MarketData, cfg *ServiceConfig) *Service {
	if cfg == nil {
		cfg = DefaultServiceConfig()
	}
	return &Service{
		market:  market,
		scraper: NewScraper(cfg.ScraperTimeout),
		cache:   newHeadlineCache(cfg.CacheDuration),
		cfg:     cfg,
	}
}

// Headlines returns recent headlines for a symbol, cached or fresh. Fetch
// failures degrade to an empty list rather than an error so a news outage
// never blocks an analysis run.
func (s *Service) Headlines(ctx context.Context, symbol string) []types.NewsItem {
	if !s.cfg.Enabled {
		return nil
	}

	if cached, ok := s.cache.get(symbol); ok {
		logger.Debug(ctx, "Using cached headlines", "symbol", symbol, "count", len(cached))
		return cached
	}

	items := s.fetchFresh(ctx, symbol)
	s.cache.set(symbol, items)
	return items
}

// RefreshHeadlines forces a fresh fetch, bypassing the cache.
func (s *Service) RefreshHeadlines(ctx context.Context, symbol string) []types.NewsItem {
	items := s.fetchFresh(ctx, symbol)
	s.cache.set(symbol, items)
	return items
}

func (s *Service) fetchFresh(ctx context.Context, symbol string) []types.NewsItem {
	if s.market != nil {
		items, err := s.market.News(ctx, symbol, s.cfg.MaxItems)
		if err != nil {
			logger.Warn(ctx, "Brokerage news feed failed, falling back to scraping",
				"symbol", symbol, "error", err)
		} else if len(items) > 0 {
			return items
		}
	}

	items, err := s.scraper.Headlines(ctx, symbol, s.cfg.MaxItems)
	if err != nil {
		logger.ErrorWithErr(ctx, "Headline scraping failed", err, "symbol", symbol)
		return nil
	}
	return items
}

// ClearCache removes all cached headlines
func (s *Service) ClearCache() {
	s.cache.mu.Lock()
	defer s.cache.mu.Unlock()
	s.cache.data = make(map[string]*cacheEntry)
}

// CachedSymbols returns the symbols with cached headlines
func (s *Service) CachedSymbols() []string {
	s.cache.mu.RLock()
	defer s.cache.mu.RUnlock()

	symbols := make([]string, 0, len(s.cache.data))
	for symbol := range s.cache.data {
		symbols = append(symbols, symbol)
	}
	return symbols
}
