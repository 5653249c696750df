package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper pulls headlines from public finance sites
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines one site to scrape
type Source struct {
	Name      string
	BaseURL   string
	QuotePath string // e.g. "/quote.ashx?t={symbol}"
	Selectors Selectors
	RateLimit time.Duration
}

// Selectors defines CSS selectors for extracting headline data
type Selectors struct {
	Row   string
	Title string
	URL   string
}

// NewScraper creates a scraper with the default sources
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:      "Finviz",
			BaseURL:   "https://finviz.com",
			QuotePath: "/quote.ashx?t={symbol}",
			Selectors: Selectors{
				Row:   "table#news-table tr",
				Title: "a.tab-link-news",
				URL:   "a.tab-link-news",
			},
			RateLimit: 2 * time.Second,
		},
		{
			Name:      "YahooFinance",
			BaseURL:   "https://finance.yahoo.com",
			QuotePath: "/quote/{symbol}/news",
			Selectors: Selectors{
				Row:   "li.stream-item",
				Title: "h3",
				URL:   "a",
			},
			RateLimit: 2 * time.Second,
		},
	}
}

// Headlines fetches headlines for a symbol from all sources in order,
// stopping once enough items are collected.
func (s *Scraper) Headlines(ctx context.Context, symbol string, max int) ([]types.NewsItem, error) {
	logger.Info(ctx, "Scraping headlines", "symbol", symbol, "sources", len(s.sources))

	var all []types.NewsItem
	for _, source := range s.sources {
		if len(all) >= max {
			break
		}
		items, err := s.scrapeSource(ctx, source, symbol, max-len(all))
		if err != nil {
			logger.Warn(ctx, "Source failed", "source", source.Name, "symbol", symbol, "error", err)
			continue
		}
		all = append(all, items...)

		// Rate limiting between sources
		time.Sleep(source.RateLimit)
	}

	// Google News as the last resort
	if len(all) == 0 {
		items, err := s.scrapeGoogleNews(ctx, symbol, max)
		if err != nil {
			return nil, err
		}
		all = items
	}

	logger.Info(ctx, "Headline scraping completed", "symbol", symbol, "count", len(all))
	return all, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, max int) ([]types.NewsItem, error) {
	var items []types.NewsItem

	c := colly.NewCollector(
		colly.AllowedDomains(hostOf(source.BaseURL)),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML(source.Selectors.Row, func(e *colly.HTMLElement) {
		if len(items) >= max {
			return
		}

		// goquery handles rows where the link wraps nested markup that
		// ChildText would flatten badly.
		link := e.DOM.Find(source.Selectors.URL).First()
		title := strings.TrimSpace(e.DOM.Find(source.Selectors.Title).First().Text())
		if title == "" {
			return
		}

		href, _ := link.Attr("href")
		if href != "" && !strings.HasPrefix(href, "http") {
			href = source.BaseURL + href
		}

		items = append(items, types.NewsItem{
			Headline: title,
			Source:   source.Name,
			URL:      href,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "Scraping error", "source", source.Name, "url", r.Request.URL.String(), "error", err)
	})

	quoteURL := source.BaseURL + strings.ReplaceAll(source.QuotePath, "{symbol}", strings.ToUpper(symbol))
	if err := c.Visit(quoteURL); err != nil {
		return nil, fmt.Errorf("failed to visit %s: %w", quoteURL, err)
	}
	c.Wait()

	return items, nil
}

// scrapeGoogleNews searches Google News for the symbol (fallback method)
func (s *Scraper) scrapeGoogleNews(ctx context.Context, symbol string, max int) ([]types.NewsItem, error) {
	var items []types.NewsItem

	c := colly.NewCollector(
		colly.AllowedDomains("news.google.com", "www.google.com"),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if len(items) >= max {
			return
		}

		title := headlineText(e.DOM)
		link := e.ChildAttr("a", "href")
		if title == "" || link == "" {
			return
		}
		if strings.HasPrefix(link, "./articles/") {
			link = "https://news.google.com" + link[1:]
		}

		items = append(items, types.NewsItem{
			Headline: title,
			Source:   "GoogleNews",
			URL:      link,
		})
	})

	query := url.QueryEscape(symbol + " stock news")
	searchURL := fmt.Sprintf("https://news.google.com/search?q=%s&hl=en-US&gl=US&ceid=US:en", query)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("failed to scrape Google News: %w", err)
	}
	c.Wait()

	logger.Info(ctx, "Google News scraping completed", "symbol", symbol, "count", len(items))
	return items, nil
}

// headlineText picks the first non-empty heading inside an article node.
func headlineText(sel *goquery.Selection) string {
	for _, tag := range []string{"h3", "h4", "a"} {
		if text := strings.TrimSpace(sel.Find(tag).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
