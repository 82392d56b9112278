// Package catalog fetches and caches the remote embeddable-widget catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jmespath/go-jmespath"
	"go.uber.org/zap"

	"cpwidget/pkg/metrics"
)

// Catalog endpoint, relative to the tenant host.
const ConfigURL = "/app/embeddablewidget?widgetRef=widgets-aem"

const DefaultTTL = 24 * time.Hour

var (
	errStatus = errors.New("catalog: unexpected status")

	generalExpr = jmespath.MustCompile("[?type=='" + TypeGeneral + "']")
	widgetExpr  = jmespath.MustCompile("[?type=='" + TypeWidget + "']")
)

type Options struct {
	TTL     time.Duration
	Client  *http.Client
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Cache holds one process-wide catalog body. Reads never fail: a failed
// refresh serves the last good body, or nothing.
type Cache struct {
	log    *zap.SugaredLogger
	ttl    time.Duration
	client *http.Client
	now    func() time.Time
	m      *metrics.Metrics

	mu          sync.RWMutex
	lastFetched int64 // epoch millis
	body        []byte
}

func New(log *zap.SugaredLogger, opts Options) *Cache {
	c := &Cache{log: log, ttl: opts.TTL, client: opts.Client, now: opts.Now, m: opts.Metrics}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.m == nil {
		c.m = metrics.Nop()
	}
	return c
}

// Catalog returns all entries, in catalog order.
func (c *Cache) Catalog(ctx context.Context, host string) []Entry {
	var out []Entry
	if body := c.raw(ctx, host); len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			c.log.Errorw("catalog parse", "err", err)
			return nil
		}
	}
	return out
}

// GeneralSettings returns the single entry of type general.
func (c *Cache) GeneralSettings(ctx context.Context, host string) (Entry, bool) {
	entries := c.filter(c.raw(ctx, host), generalExpr)
	if len(entries) == 0 {
		return Entry{}, false
	}
	return entries[0], true
}

// Widgets returns the entries of type widget, in catalog order.
func (c *Cache) Widgets(ctx context.Context, host string) []Entry {
	return c.filter(c.raw(ctx, host), widgetExpr)
}

// Widget returns the widget entry whose widgetRef matches.
func (c *Cache) Widget(ctx context.Context, host, widgetRef string) (Entry, bool) {
	for _, e := range c.Widgets(ctx, host) {
		if e.WidgetRef == widgetRef {
			return e, true
		}
	}
	return Entry{}, false
}

func (c *Cache) filter(body []byte, expr *jmespath.JMESPath) []Entry {
	if len(body) == 0 {
		return nil
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		c.log.Errorw("catalog parse", "err", err)
		return nil
	}
	res, err := expr.Search(doc)
	if err != nil || res == nil {
		return nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil
	}
	var out []Entry
	if err := json.Unmarshal(b, &out); err != nil {
		c.log.Errorw("catalog decode", "err", err)
		return nil
	}
	return out
}

// raw returns the cached body, refreshing it once the TTL has elapsed.
func (c *Cache) raw(ctx context.Context, host string) []byte {
	now := c.now().UnixMilli()
	c.mu.RLock()
	fresh := c.lastFetched != 0 && now <= c.lastFetched+c.ttl.Milliseconds()
	body := c.body
	c.mu.RUnlock()
	if fresh {
		c.m.CatalogFetches.WithLabelValues(metrics.OutcomeCached).Inc()
		return body
	}

	fetched, err := c.fetch(ctx, host)
	if err != nil {
		c.log.Errorw("catalog fetch failed, serving stale copy", "host", host, "err", err, "stale_bytes", len(body))
		c.m.CatalogFetches.WithLabelValues(metrics.OutcomeStale).Inc()
		return body
	}
	c.mu.Lock()
	c.body = fetched
	c.lastFetched = now
	c.mu.Unlock()
	c.m.CatalogFetches.WithLabelValues(metrics.OutcomeFetched).Inc()
	return fetched
}

func (c *Cache) fetch(ctx context.Context, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+ConfigURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", errStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// a body that does not decode as entries must not replace the last good one
	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return body, nil
}
