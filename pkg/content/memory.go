package content

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"cpwidget/pkg/props"
)

type memNode struct {
	page  bool
	props props.Map
}

type memTree struct {
	log   *zap.SugaredLogger
	mu    sync.RWMutex
	nodes map[string]*memNode
}

// NewMemoryTree builds a tree from seed nodes. Used for dev and tests.
func NewMemoryTree(log *zap.SugaredLogger, nodes []Node) Tree {
	t := &memTree{log: log, nodes: map[string]*memNode{}}
	for _, n := range nodes {
		t.put(Clean(n.Path), n.Page, props.FromMap(n.Properties))
	}
	return t
}

func (t *memTree) put(p string, page bool, values props.Map) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[p]
	if !ok {
		n = &memNode{props: props.Map{}}
		t.nodes[p] = n
	}
	n.page = n.page || page
	for k, v := range values {
		n.props[k] = v
	}
}

func (t *memTree) ContainingPage(ctx context.Context, p string) (Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for cur := Clean(p); cur != ""; cur = parentOf(cur) {
		if n, ok := t.nodes[cur]; ok && n.page {
			return t.pageLocked(cur, n), nil
		}
	}
	return Page{}, ErrNoPage
}

func (t *memTree) Page(ctx context.Context, p string) (Page, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p = Clean(p)
	n, ok := t.nodes[p]
	if !ok || !n.page {
		return Page{}, ErrNotFound
	}
	return t.pageLocked(p, n), nil
}

// pageLocked builds a Page; the parent is the nearest page above p.
func (t *memTree) pageLocked(p string, n *memNode) Page {
	pg := Page{Path: p, Properties: t.contentPropsLocked(p, n)}
	for cur := parentOf(p); cur != ""; cur = parentOf(cur) {
		if pn, ok := t.nodes[cur]; ok && pn.page {
			pg.Parent = cur
			break
		}
	}
	return pg
}

// contentPropsLocked prefers the jcr:content child, the way CMS pages store their properties.
func (t *memTree) contentPropsLocked(p string, n *memNode) props.Map {
	if c, ok := t.nodes[strings.TrimSuffix(p, "/")+"/jcr:content"]; ok {
		return c.props.Clone()
	}
	return n.props.Clone()
}

func (t *memTree) Properties(ctx context.Context, p string) (props.Map, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[Clean(p)]
	if !ok {
		return nil, ErrNotFound
	}
	return n.props.Clone(), nil
}

func (t *memTree) WriteProperties(ctx context.Context, p string, values props.Map) error {
	t.put(Clean(p), false, values)
	t.log.Debugw("content write", "path", p, "keys", len(values))
	return nil
}

func (t *memTree) Children(ctx context.Context, p string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p = Clean(p)
	prefix := strings.TrimSuffix(p, "/") + "/"
	seen := map[string]struct{}{}
	for k := range t.nodes {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		name := strings.SplitN(k[len(prefix):], "/", 2)[0]
		if name != "" {
			seen[name] = struct{}{}
		}
	}
	if len(seen) == 0 {
		if _, ok := t.nodes[p]; !ok {
			return nil, ErrNotFound
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
