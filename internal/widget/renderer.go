// Package widget builds the page model for an embedded learning widget component.
package widget

import (
	"context"

	"go.uber.org/zap"

	"cpwidget/internal/catalog"
	"cpwidget/internal/compose"
	"cpwidget/internal/resolver"
	"cpwidget/internal/token"
	"cpwidget/pkg/content"
	"cpwidget/pkg/props"
)

// Tenant configuration keys.
const (
	HostNameKey     = content.PropertyPrefix + "commonConfig.captivateHostName"
	ClientIDKey     = content.PropertyPrefix + "clientId"
	ClientSecretKey = content.PropertyPrefix + "clientSecret"
	RefreshTokenKey = content.PropertyPrefix + "refreshToken"
)

const (
	srcPath          = "/app/embeddablewidget?widgetRef="
	communicatorPath = "/app/embeddablewidget?widgetRef=com.adobe.captivateprime.widgetcommunicator"
	// RunMode is what the client script is told about this rendering.
	RunMode = "non-author"
)

type Request struct {
	ComponentPath string
	UserID        string
	Email         string
}

// View is the model consumed by the page template.
type View struct {
	HostName              string `json:"hostName"`
	SelectedWidgetRef     string `json:"selectedWidgetRef"`
	SelectedRef           string `json:"selectedRef"`
	WidgetSrcURL          string `json:"widgetSrcUrl"`
	WidgetCommunicatorURL string `json:"widgetCommunicatorUrl"`
	WidgetConfigs         string `json:"widgetConfigs"`
	RunMode               string `json:"runMode"`
}

type Renderer struct {
	tree        content.Tree
	resolver    *resolver.Resolver
	catalog     *catalog.Cache
	tokens      *token.Service
	defaultHost string
	log         *zap.SugaredLogger
}

func NewRenderer(tree content.Tree, res *resolver.Resolver, cat *catalog.Cache, tokens *token.Service, defaultHost string, log *zap.SugaredLogger) *Renderer {
	return &Renderer{tree: tree, resolver: res, catalog: cat, tokens: tokens, defaultHost: defaultHost, log: log}
}

// HostName returns the tenant host, else the configured default.
func (r *Renderer) HostName(tenant props.Map) string {
	if tenant.Has(HostNameKey) {
		return tenant.Str(HostNameKey)
	}
	return r.defaultHost
}

// Render builds the model for the component at req.ComponentPath. Only a
// missing component is an error; every other failure degrades the view.
func (r *Renderer) Render(ctx context.Context, req Request) (View, error) {
	component, err := r.tree.Properties(ctx, req.ComponentPath)
	if err != nil {
		return View{}, err
	}
	tenant := r.resolver.Resolve(ctx, req.ComponentPath)
	host := r.HostName(tenant)
	v := View{HostName: host, RunMode: RunMode}

	accessToken := ""
	if len(tenant) > 0 {
		accessToken = r.tokens.AccessToken(ctx, token.Request{
			UserID: req.UserID,
			Email:  req.Email,
			Credentials: token.Credentials{
				HostName:     host,
				ClientID:     tenant.Str(ClientIDKey),
				ClientSecret: tenant.Str(ClientSecretKey),
				RefreshToken: tenant.Str(RefreshTokenKey),
			},
		})
	}

	widgets := r.catalog.Widgets(ctx, host)
	v.SelectedWidgetRef = component.Str(content.SelectedWidget)
	if !component.Has(content.SelectedWidget) && len(widgets) > 0 {
		v.SelectedWidgetRef = widgets[0].WidgetRef
	}
	if len(widgets) > 0 {
		selected := widgets[0]
		for _, w := range widgets {
			if w.WidgetRef == v.SelectedWidgetRef {
				selected = w
				break
			}
		}
		v.SelectedRef = selected.Ref
		v.WidgetSrcURL = host + srcPath + selected.Ref + "&resourceType=html"
		v.WidgetCommunicatorURL = host + communicatorPath
	} else {
		r.log.Warnw("no widgets in catalog", "host", host, "component", req.ComponentPath)
	}

	obj := compose.Compose(
		component.StripPrefix(content.PropertyPrefix),
		v.SelectedWidgetRef,
		accessToken,
		tenant.StripPrefix(content.PropertyPrefix),
	)
	if v.WidgetConfigs, err = compose.Marshal(obj); err != nil {
		r.log.Errorw("widget config encode", "component", req.ComponentPath, "err", err)
	}
	return v, nil
}

// Option is one selectable widget in the author dialog.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// WidgetOptions lists the widgets available to the component's tenant.
func (r *Renderer) WidgetOptions(ctx context.Context, componentPath string) []Option {
	host := r.HostName(r.resolver.Resolve(ctx, componentPath))
	var out []Option
	for _, w := range r.catalog.Widgets(ctx, host) {
		out = append(out, Option{Value: w.WidgetRef, Text: w.Name})
	}
	return out
}

// DialogFields returns the option fields of every widget for the author dialog.
func (r *Renderer) DialogFields(ctx context.Context, componentPath string) ([]catalog.Field, error) {
	component, err := r.tree.Properties(ctx, componentPath)
	if err != nil {
		return nil, err
	}
	host := r.HostName(r.resolver.Resolve(ctx, componentPath))
	widgets := r.catalog.Widgets(ctx, host)
	selected := component.Str(content.SelectedWidget)
	if !component.Has(content.SelectedWidget) && len(widgets) > 0 {
		selected = widgets[0].WidgetRef
	}
	return catalog.ComponentFields(widgets, selected, component, content.PropertyPrefix), nil
}
