package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpwidget/pkg/logger"
)

const catalogJSON = `[
  {"name":"General","ref":"general","type":"general","options":[
    {"name":"Host","ref":"commonConfig.captivateHostName","type":"string","default":"https://captivateprime.adobe.com","mandatory":true},
    {"name":"Token","ref":"auth.accessToken","type":"string","hidden":"true"},
    {"name":"Links","ref":"commonConfig.disableLinks","type":"boolean","default":false}
  ]},
  {"name":"Trending","ref":"trending","widgetRef":"com.adobe.captivateprime.lostrip.trending","type":"widget","options":[
    {"name":"Theme","ref":"theme.background","type":"color","default":"#ffffff"}
  ]},
  {"name":"Catalog","ref":"catalog","widgetRef":"com.adobe.captivateprime.catalog","type":"widget","options":[]}
]`

type fakeRemote struct {
	srv   *httptest.Server
	calls atomic.Int32
	fail  atomic.Bool
	body  atomic.Pointer[string]
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	f := &fakeRemote{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		assert.Equal(t, "/app/embeddablewidget", r.URL.Path)
		assert.Equal(t, "widgets-aem", r.URL.Query().Get("widgetRef"))
		if f.fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if b := f.body.Load(); b != nil {
			_, _ = w.Write([]byte(*b))
			return
		}
		_, _ = w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newCache(t *testing.T, clk *clock) *Cache {
	t.Helper()
	return New(logger.Nop(), Options{TTL: time.Hour, Now: clk.now, Client: &http.Client{Timeout: time.Second}})
}

func TestCatalogParsesInOrder(t *testing.T) {
	remote := newFakeRemote(t)
	c := newCache(t, &clock{t: time.UnixMilli(1_000)})

	entries := c.Catalog(context.Background(), remote.srv.URL)
	require.Len(t, entries, 3)
	assert.Equal(t, "general", entries[0].Type)

	gen, ok := c.GeneralSettings(context.Background(), remote.srv.URL)
	require.True(t, ok)
	require.Len(t, gen.Options, 3)
	assert.Equal(t, []string{"commonConfig.captivateHostName", "auth.accessToken", "commonConfig.disableLinks"},
		[]string{gen.Options[0].Ref, gen.Options[1].Ref, gen.Options[2].Ref})
	assert.True(t, gen.Options[0].IsMandatory())
	assert.True(t, gen.Options[1].IsHidden())
	assert.Equal(t, "false", gen.Options[2].Default())

	widgets := c.Widgets(context.Background(), remote.srv.URL)
	require.Len(t, widgets, 2)
	assert.Equal(t, "com.adobe.captivateprime.lostrip.trending", widgets[0].WidgetRef)

	w, ok := c.Widget(context.Background(), remote.srv.URL, "com.adobe.captivateprime.catalog")
	require.True(t, ok)
	assert.Equal(t, "Catalog", w.Name)
	assert.EqualValues(t, 1, remote.calls.Load())
}

func TestTTLWindow(t *testing.T) {
	remote := newFakeRemote(t)
	clk := &clock{t: time.UnixMilli(1_000_000)}
	c := newCache(t, clk)
	ctx := context.Background()

	c.Catalog(ctx, remote.srv.URL)
	clk.t = clk.t.Add(30 * time.Minute)
	c.Catalog(ctx, remote.srv.URL)
	assert.EqualValues(t, 1, remote.calls.Load())

	clk.t = time.UnixMilli(1_000_000).Add(time.Hour)
	c.Catalog(ctx, remote.srv.URL)
	assert.EqualValues(t, 1, remote.calls.Load(), "exactly at lastFetched+TTL is still fresh")

	clk.t = clk.t.Add(time.Millisecond)
	c.Catalog(ctx, remote.srv.URL)
	assert.EqualValues(t, 2, remote.calls.Load())
}

func TestFailureServesStale(t *testing.T) {
	remote := newFakeRemote(t)
	clk := &clock{t: time.UnixMilli(5_000)}
	c := newCache(t, clk)
	ctx := context.Background()

	require.Len(t, c.Catalog(ctx, remote.srv.URL), 3)

	remote.fail.Store(true)
	clk.t = clk.t.Add(2 * time.Hour)
	assert.Len(t, c.Catalog(ctx, remote.srv.URL), 3)
	// timestamp untouched by the failure, so the next read retries
	assert.Len(t, c.Widgets(ctx, remote.srv.URL), 2)
	assert.EqualValues(t, 3, remote.calls.Load())
}

func TestNeverFetchedIsEmpty(t *testing.T) {
	remote := newFakeRemote(t)
	remote.fail.Store(true)
	c := newCache(t, &clock{t: time.UnixMilli(1)})
	ctx := context.Background()

	assert.Empty(t, c.Catalog(ctx, remote.srv.URL))
	_, ok := c.GeneralSettings(ctx, remote.srv.URL)
	assert.False(t, ok)
	assert.Empty(t, c.Widgets(ctx, "http://127.0.0.1:1"))
}

func TestMalformedBodyIsAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()
	c := newCache(t, &clock{t: time.UnixMilli(1)})
	assert.Empty(t, c.Catalog(context.Background(), srv.URL))
}

func TestUndecodableEntriesServeStale(t *testing.T) {
	remote := newFakeRemote(t)
	clk := &clock{t: time.UnixMilli(10_000)}
	c := newCache(t, clk)
	ctx := context.Background()

	require.Len(t, c.Catalog(ctx, remote.srv.URL), 3)

	for _, bad := range []string{
		`[{"name":5,"ref":"general","type":"general","options":[]}]`,
		`[{"name":"General","ref":"general","type":"general","options":{}}]`,
	} {
		bad := bad
		remote.body.Store(&bad)
		clk.t = clk.t.Add(2 * time.Hour)
		assert.Len(t, c.Catalog(ctx, remote.srv.URL), 3)
		assert.Len(t, c.Widgets(ctx, remote.srv.URL), 2)
		_, ok := c.GeneralSettings(ctx, remote.srv.URL)
		assert.True(t, ok)
	}

	// timestamp kept, so a healed remote is picked up on the next read
	remote.body.Store(nil)
	clk.t = clk.t.Add(30 * time.Minute)
	calls := remote.calls.Load()
	assert.Len(t, c.Catalog(ctx, remote.srv.URL), 3)
	assert.Equal(t, calls+1, remote.calls.Load())
	c.Catalog(ctx, remote.srv.URL)
	assert.Equal(t, calls+1, remote.calls.Load())
}

func TestConcurrentReadsAcrossExpiry(t *testing.T) {
	remote := newFakeRemote(t)
	clk := &clock{t: time.UnixMilli(20_000)}
	c := newCache(t, clk)
	ctx := context.Background()
	require.Len(t, c.Catalog(ctx, remote.srv.URL), 3)

	clk.t = clk.t.Add(time.Hour + time.Millisecond)

	var wg sync.WaitGroup
	counts := make([][2]int, 32)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			counts[i] = [2]int{len(c.Catalog(ctx, remote.srv.URL)), len(c.Widgets(ctx, remote.srv.URL))}
		}(i)
	}
	wg.Wait()

	for _, n := range counts {
		assert.Equal(t, [2]int{3, 2}, n)
	}
	assert.GreaterOrEqual(t, remote.calls.Load(), int32(2))
	assert.LessOrEqual(t, remote.calls.Load(), int32(1+2*32))
}
