package adminapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"cpwidget/internal/catalog"
	"cpwidget/internal/widget"
	"cpwidget/pkg/content"
	"cpwidget/pkg/problems"
	"cpwidget/pkg/props"
)

const (
	titleKey       = content.PropertyPrefix + "title"
	typeHintSuffix = "@TypeHint"
	deleteSuffix   = "@Delete"
)

var errInvalidNumber = errors.New("adminapi: invalid number")

func (a *App) listConfigurations(w http.ResponseWriter, r *http.Request) {
	names, err := a.resolver.ConfigNames(r.Context())
	if err != nil && !errors.Is(err, content.ErrNotFound) {
		a.log.Errorw("list configurations", "err", err)
		problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
		return
	}
	items := make([]map[string]any, 0, len(names))
	for _, n := range names {
		items = append(items, map[string]any{"name": n})
	}
	writeJSON(w, map[string]any{"items": items}, http.StatusOK)
}

func (a *App) getConfiguration(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validName(name) {
		problems.Write(w, http.StatusBadRequest, "invalid-configuration-name", "Invalid configuration name", "")
		return
	}
	stored, exists, err := a.stored(r.Context(), name)
	if err != nil {
		a.log.Errorw("read configuration", "name", name, "err", err)
		problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
		return
	}
	values := stored.Clone()
	if values.Has(widget.RefreshTokenKey) {
		values[widget.RefreshTokenKey] = props.String(Mask(values.Str(widget.RefreshTokenKey)))
	}
	fields := fixedFields(values)
	if general, ok := a.catalog.GeneralSettings(r.Context(), a.cfg.DefaultHostName); ok {
		fields = append(fields, catalog.SettingsFields(general, stored, content.PropertyPrefix)...)
	}
	writeJSON(w, map[string]any{"name": name, "exists": exists, "values": values, "fields": fields}, http.StatusOK)
}

// fixedFields are the credentials every configuration carries, ahead of the
// catalog-driven options. The title is read-only once set.
func fixedFields(values props.Map) []catalog.Field {
	text := func(name, label string) catalog.Field {
		return catalog.Field{Name: name, Label: label, Kind: catalog.KindText, Value: values.Str(name), Required: true}
	}
	title := text(titleKey, "Config Title")
	title.Disabled = values.Has(titleKey)
	return []catalog.Field{
		title,
		text(widget.RefreshTokenKey, "Admin Refresh Token"),
		text(widget.ClientIDKey, "Client Id"),
		text(widget.ClientSecretKey, "Client Secret"),
	}
}

func (a *App) saveConfiguration(w http.ResponseWriter, r *http.Request) {
	fields, err := requestFields(r)
	if err != nil {
		problems.Write(w, http.StatusBadRequest, "bad-body", "Unreadable body", "")
		return
	}
	name := chi.URLParam(r, "name")
	if name == "" {
		name = r.URL.Query().Get("item")
	}
	if name == "" {
		name = fields[titleKey]
	}
	if !validName(name) {
		problems.Write(w, http.StatusBadRequest, "invalid-configuration-name", "Invalid configuration name", "")
		return
	}

	ctx := r.Context()
	stored, _, err := a.stored(ctx, name)
	if err != nil {
		a.log.Errorw("read configuration", "name", name, "err", err)
		problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
		return
	}
	changes, err := Changes(fields, stored)
	if err != nil {
		problems.Write(w, http.StatusBadRequest, "invalid-field", "Invalid field", err.Error())
		return
	}
	if err := a.ensureSettings(ctx); err != nil {
		a.log.Errorw("create settings node", "err", err)
		problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
		return
	}
	if err := a.tree.WriteProperties(ctx, content.ConfigPath(name), changes); err != nil {
		a.log.Errorw("save configuration", "name", name, "err", err)
		problems.Write(w, http.StatusInternalServerError, "content-unavailable", "Content unavailable", "")
		return
	}
	a.log.Infow("configuration saved", "name", name, "fields", len(changes))
	writeJSON(w, map[string]any{"ok": true, "name": name}, http.StatusOK)
}

// Changes turns submitted form fields into typed property writes.
//
// A refresh token equal to the masked stored value is unchanged and dropped.
// name@TypeHint=boolean stores true, name@TypeHint=number stores an integer,
// and name@Delete without name stores false (an unticked checkbox).
func Changes(fields map[string]string, stored props.Map) (props.Map, error) {
	unchanged := stored.Has(widget.RefreshTokenKey) &&
		fields[widget.RefreshTokenKey] == Mask(stored.Str(widget.RefreshTokenKey))
	out := props.Map{}
	for name, value := range fields {
		switch {
		case name == widget.RefreshTokenKey && unchanged:
			continue
		case strings.HasSuffix(name, typeHintSuffix):
			continue
		case strings.HasSuffix(name, deleteSuffix):
			base := strings.TrimSuffix(name, deleteSuffix)
			if _, ok := fields[base]; !ok {
				out[base] = props.Bool(false)
			}
		default:
			switch fields[name+typeHintSuffix] {
			case "boolean":
				out[name] = props.Bool(true)
			case "number":
				n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %s", errInvalidNumber, name)
				}
				out[name] = props.Number(float64(n))
			default:
				out[name] = props.String(value)
			}
		}
	}
	return out, nil
}

func (a *App) stored(ctx context.Context, name string) (props.Map, bool, error) {
	m, err := a.resolver.Config(ctx, name)
	if errors.Is(err, content.ErrNotFound) {
		return props.Map{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (a *App) ensureSettings(ctx context.Context) error {
	p := content.ConfRoot + "/" + content.ReservedSettings
	_, err := a.tree.Properties(ctx, p)
	if errors.Is(err, content.ErrNotFound) {
		return a.tree.WriteProperties(ctx, p, props.Map{})
	}
	return err
}

// validName accepts a single path segment other than the reserved settings node.
func validName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return false
	}
	return !strings.EqualFold(name, content.ReservedSettings)
}
