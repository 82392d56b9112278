// Package resolver finds the tenant configuration that applies to a content page.
package resolver

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"cpwidget/pkg/content"
	"cpwidget/pkg/props"
)

// DefaultMaxDepth bounds the ancestor walk.
const DefaultMaxDepth = 64

type Resolver struct {
	tree     content.Tree
	log      *zap.SugaredLogger
	maxDepth int
}

func New(tree content.Tree, log *zap.SugaredLogger, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{tree: tree, log: log, maxDepth: maxDepth}
}

// Resolve returns the property bag of the nearest tenant configuration for
// pagePath, or an empty map when none resolves.
func (r *Resolver) Resolve(ctx context.Context, pagePath string) props.Map {
	node := r.configNode(ctx, pagePath)
	if node == "" {
		r.log.Errorw("no tenant configuration", "path", pagePath)
		return props.Map{}
	}
	m, err := r.tree.Properties(ctx, node)
	if err != nil {
		r.log.Errorw("tenant configuration unreadable", "path", pagePath, "node", node, "err", err)
		return props.Map{}
	}
	return m
}

// GeneralConfigs returns the resolved configuration restricted to prefixed keys, prefix removed.
func (r *Resolver) GeneralConfigs(ctx context.Context, pagePath string) props.Map {
	return r.Resolve(ctx, pagePath).StripPrefix(content.PropertyPrefix)
}

// Config reads the named tenant configuration.
func (r *Resolver) Config(ctx context.Context, name string) (props.Map, error) {
	return r.tree.Properties(ctx, content.ConfigPath(name))
}

// ConfigNames lists tenant configuration names in ascending order, excluding the reserved settings child.
func (r *Resolver) ConfigNames(ctx context.Context) ([]string, error) {
	children, err := r.tree.Children(ctx, content.ConfRoot)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(children))
	for _, c := range children {
		if strings.EqualFold(c, content.ReservedSettings) {
			continue
		}
		names = append(names, c)
	}
	sort.Strings(names)
	return names, nil
}

// configNode returns the property node of the inherited configuration pointer,
// else that of the first configuration by name.
func (r *Resolver) configNode(ctx context.Context, pagePath string) string {
	if ptr, ok := r.inheritedPointer(ctx, pagePath); ok {
		if validPointer(ptr) {
			return strings.TrimRight(ptr, "/") + content.ConfSubPath
		}
		r.log.Debugw("discarding tenant pointer", "path", pagePath, "pointer", ptr)
	}
	names, err := r.ConfigNames(ctx)
	if err != nil || len(names) == 0 {
		return ""
	}
	return content.ConfigPath(names[0])
}

// inheritedPointer walks from the containing page to the root; the nearest declaration wins.
func (r *Resolver) inheritedPointer(ctx context.Context, pagePath string) (string, bool) {
	pg, err := r.tree.ContainingPage(ctx, pagePath)
	if err != nil {
		return "", false
	}
	for depth := 1; ; depth++ {
		if v, ok := pg.Properties[content.ConfProperty]; ok {
			return v.String(), true
		}
		if pg.Parent == "" || pg.Parent == pg.Path {
			return "", false
		}
		if depth >= r.maxDepth {
			r.log.Warnw("page ancestry exceeds depth limit", "path", pagePath, "limit", r.maxDepth)
			return "", false
		}
		if pg, err = r.tree.Page(ctx, pg.Parent); err != nil {
			return "", false
		}
	}
}

// validPointer reports whether a cq:conf value names a node below the configuration root.
func validPointer(ptr string) bool {
	ptr = strings.TrimRight(ptr, "/")
	return strings.HasPrefix(ptr, content.ConfRoot+"/")
}
