package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpwidget/pkg/content"
	"cpwidget/pkg/logger"
	"cpwidget/pkg/props"
)

func confNode(name string, values map[string]any) content.Node {
	return content.Node{Path: content.ConfigPath(name), Properties: values}
}

func newTree(nodes ...content.Node) content.Tree {
	return content.NewMemoryTree(logger.Nop(), nodes)
}

func TestFallbackPicksFirstTenantByName(t *testing.T) {
	tree := newTree(
		content.Node{Path: "/content/site", Page: true},
		content.Node{Path: "/content/site/home", Page: true},
		confNode("zeta", map[string]any{"cpWidget#clientId": "z"}),
		confNode("alpha", map[string]any{"cpWidget#clientId": "a"}),
		content.Node{Path: content.ConfRoot + "/settings/cloudconfigs/cpwidget/jcr:content", Properties: map[string]any{"cpWidget#clientId": "s"}},
	)
	r := New(tree, logger.Nop(), 0)

	m := r.Resolve(context.Background(), "/content/site/home/jcr:content/par/widget")
	assert.Equal(t, "a", m.Str("cpWidget#clientId"))

	names, err := r.ConfigNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestSettingsExcludedCaseInsensitive(t *testing.T) {
	tree := newTree(
		confNode("Settings", map[string]any{"cpWidget#clientId": "s"}),
		confNode("beta", map[string]any{"cpWidget#clientId": "b"}),
	)
	r := New(tree, logger.Nop(), 0)
	assert.Equal(t, "b", r.Resolve(context.Background(), "/content/x").Str("cpWidget#clientId"))
}

func TestNearestAncestorPointerWins(t *testing.T) {
	tree := newTree(
		content.Node{Path: "/content/site", Page: true},
		content.Node{Path: "/content/site/jcr:content", Properties: map[string]any{"cq:conf": content.ConfRoot + "/alpha"}},
		content.Node{Path: "/content/site/emea", Page: true},
		content.Node{Path: "/content/site/emea/jcr:content", Properties: map[string]any{"cq:conf": content.ConfRoot + "/zeta"}},
		content.Node{Path: "/content/site/emea/de", Page: true},
		confNode("alpha", map[string]any{"cpWidget#clientId": "a"}),
		confNode("zeta", map[string]any{"cpWidget#clientId": "z"}),
	)
	r := New(tree, logger.Nop(), 0)
	ctx := context.Background()

	assert.Equal(t, "z", r.Resolve(ctx, "/content/site/emea/de/jcr:content/widget").Str("cpWidget#clientId"))
	assert.Equal(t, "a", r.Resolve(ctx, "/content/site/jcr:content/widget").Str("cpWidget#clientId"))
}

func TestInvalidPointerFallsBack(t *testing.T) {
	for _, ptr := range []string{"", "/conf/other/alpha", content.ConfRoot, content.ConfRoot + "x/zeta"} {
		t.Run(ptr, func(t *testing.T) {
			tree := newTree(
				content.Node{Path: "/content/site", Page: true},
				content.Node{Path: "/content/site/jcr:content", Properties: map[string]any{"cq:conf": ptr}},
				confNode("alpha", map[string]any{"cpWidget#clientId": "a"}),
				confNode("zeta", map[string]any{"cpWidget#clientId": "z"}),
			)
			r := New(tree, logger.Nop(), 0)
			assert.Equal(t, "a", r.Resolve(context.Background(), "/content/site").Str("cpWidget#clientId"))
		})
	}
}

func TestNothingResolvesIsEmpty(t *testing.T) {
	r := New(newTree(content.Node{Path: "/content/site", Page: true}), logger.Nop(), 0)
	m := r.Resolve(context.Background(), "/content/site")
	assert.NotNil(t, m)
	assert.Empty(t, m)

	// pointer to a tenant whose node is missing
	tree := newTree(
		content.Node{Path: "/content/site", Page: true},
		content.Node{Path: "/content/site/jcr:content", Properties: map[string]any{"cq:conf": content.ConfRoot + "/gone"}},
	)
	assert.Empty(t, New(tree, logger.Nop(), 0).Resolve(context.Background(), "/content/site"))
}

func TestGeneralConfigsStripsPrefix(t *testing.T) {
	tree := newTree(confNode("alpha", map[string]any{
		"cpWidget#commonConfig.captivateHostName": "https://x",
		"jcr:primaryType": "nt:unstructured",
	}))
	m := New(tree, logger.Nop(), 0).GeneralConfigs(context.Background(), "/content/any")
	assert.Equal(t, props.Map{"commonConfig.captivateHostName": props.String("https://x")}, m)
}

// loopTree reports every page as its own grandparent.
type loopTree struct {
	content.Tree
	pageCalls int
}

func (l *loopTree) ContainingPage(ctx context.Context, p string) (content.Page, error) {
	return content.Page{Path: "/a", Parent: "/b", Properties: props.Map{}}, nil
}

func (l *loopTree) Page(ctx context.Context, p string) (content.Page, error) {
	l.pageCalls++
	if p == "/a" {
		return content.Page{Path: "/a", Parent: "/b", Properties: props.Map{}}, nil
	}
	return content.Page{Path: "/b", Parent: "/a", Properties: props.Map{}}, nil
}

func (l *loopTree) Children(ctx context.Context, p string) ([]string, error) {
	return []string{"alpha"}, nil
}

func (l *loopTree) Properties(ctx context.Context, p string) (props.Map, error) {
	return props.Map{"cpWidget#clientId": props.String("a")}, nil
}

func TestCyclicAncestryTerminates(t *testing.T) {
	lt := &loopTree{}
	r := New(lt, logger.Nop(), 8)
	assert.Equal(t, "a", r.Resolve(context.Background(), "/a").Str("cpWidget#clientId"))
	assert.Equal(t, 7, lt.pageCalls)
}
