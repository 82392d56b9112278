package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpwidget/pkg/logger"
	"cpwidget/pkg/props"
)

const seedDoc = `
nodes:
  - path: /content/site
    page: true
  - path: /content/site/jcr:content
    properties:
      cq:conf: /conf/global/captivate-prime/alpha
  - path: /content/site/en
    page: true
  - path: /content/site/en/home/jcr:content/root/widget
    properties:
      sling:resourceType: cpwidget/components/widget
      cpWidget#widgetRefSelected: com.adobe.captivateprime.lostrip.trending
  - path: /conf/global/captivate-prime/alpha/settings/cloudconfigs/cpwidget/jcr:content
    properties:
      cpWidget#clientId: abc
      cpWidget#commonConfig.disableLinks: true
      cpWidget#size: 3
profiles:
  - id: u1
    email: u1@example.com
`

func newSeededTree(t *testing.T) Tree {
	t.Helper()
	s, err := ParseSeed([]byte(seedDoc))
	require.NoError(t, err)
	require.Len(t, s.Profiles, 1)
	return NewMemoryTree(logger.Nop(), s.Nodes)
}

func TestContainingPage(t *testing.T) {
	tree := newSeededTree(t)
	ctx := context.Background()

	pg, err := tree.ContainingPage(ctx, "/content/site/en/home/jcr:content/root/widget")
	require.NoError(t, err)
	assert.Equal(t, "/content/site/en", pg.Path)
	assert.Equal(t, "/content/site", pg.Parent)

	parent, err := tree.Page(ctx, pg.Parent)
	require.NoError(t, err)
	assert.Equal(t, "/conf/global/captivate-prime/alpha", parent.Properties.Str(ConfProperty))
	assert.Empty(t, parent.Parent)

	_, err = tree.ContainingPage(ctx, "/var/nothing")
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestPropertiesAreTyped(t *testing.T) {
	tree := newSeededTree(t)
	m, err := tree.Properties(context.Background(), ConfigPath("alpha"))
	require.NoError(t, err)
	assert.Equal(t, props.KindBool, m["cpWidget#commonConfig.disableLinks"].Kind())
	assert.Equal(t, props.KindNumber, m["cpWidget#size"].Kind())
	assert.Equal(t, "abc", m.Str("cpWidget#clientId"))

	_, err = tree.Properties(context.Background(), "/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWritePropertiesMerges(t *testing.T) {
	tree := newSeededTree(t)
	ctx := context.Background()
	p := ConfigPath("alpha")
	require.NoError(t, tree.WriteProperties(ctx, p, props.Map{"cpWidget#clientId": props.String("xyz")}))
	m, err := tree.Properties(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "xyz", m.Str("cpWidget#clientId"))
	assert.True(t, m.Has("cpWidget#size"))
}

func TestChildren(t *testing.T) {
	tree := newSeededTree(t)
	names, err := tree.Children(context.Background(), ConfRoot)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, names)

	_, err = tree.Children(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "/", Clean(""))
	assert.Equal(t, "/a/b", Clean("a//b/"))
	assert.Equal(t, "/a", Clean(" /a/b/.. "))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `/a\_b\%/`, escapeLike("/a_b%/"))
}
