package content

import (
	"context"
	"errors"
	"path"
	"strings"

	"cpwidget/pkg/props"
)

// CMS locations of the widget tenant configurations.
const (
	ConfRoot         = "/conf/global/captivate-prime"
	ConfSubPath      = "/settings/cloudconfigs/cpwidget/jcr:content"
	ReservedSettings = "settings"
	ConfProperty     = "cq:conf"
	PropertyPrefix   = "cpWidget#"
	SelectedWidget   = PropertyPrefix + "widgetRefSelected"
)

var (
	ErrNotFound = errors.New("content: node not found")
	ErrNoPage   = errors.New("content: no containing page")
)

// Page is a content page with an explicit parent reference ("" at the root).
type Page struct {
	Path       string
	Parent     string
	Properties props.Map // page content properties (jcr:content)
}

type Tree interface {
	// ContainingPage returns the nearest page at or above path.
	ContainingPage(ctx context.Context, p string) (Page, error)
	// Page returns the page stored exactly at p.
	Page(ctx context.Context, p string) (Page, error)
	// Properties returns the value map of the node at p.
	Properties(ctx context.Context, p string) (props.Map, error)
	// WriteProperties merges values into the node at p (creating it) and commits.
	WriteProperties(ctx context.Context, p string, values props.Map) error
	// Children lists the names of the direct children of p.
	Children(ctx context.Context, p string) ([]string, error)
}

// ConfigPath returns the property node of the named tenant configuration.
func ConfigPath(name string) string {
	return ConfRoot + "/" + name + ConfSubPath
}

// Clean normalises a repository path.
func Clean(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + strings.TrimSpace(p))
}

// parentOf returns the parent path, or "" for the root.
func parentOf(p string) string {
	if p == "/" || p == "" {
		return ""
	}
	return path.Dir(p)
}
