package catalog

import (
	"strings"

	"cpwidget/pkg/props"
)

// Field kinds.
const (
	KindText     = "text"
	KindColor    = "color"
	KindCheckbox = "checkbox"
	KindSelect   = "select"
)

// refs excluded from editable forms.
const accessTokenRef = "auth.accessToken"

// Field describes one form field derived from a catalog option.
type Field struct {
	Name      string   `json:"name"` // storage key, prefixed
	Label     string   `json:"fieldLabel"`
	Kind      string   `json:"kind"`
	Value     string   `json:"value"`
	EmptyText string   `json:"emptyText,omitempty"`
	Required  bool     `json:"required"`
	Hidden    bool     `json:"renderHidden"`
	Fixed     bool     `json:"fixed,omitempty"` // hidden option pinned to its default
	Disabled  bool     `json:"disabled,omitempty"`
	Choices   []string `json:"choices,omitempty"`
	TypeHint  string   `json:"typeHint,omitempty"`
	Helpx     string   `json:"helpx,omitempty"`
	ItemType  string   `json:"itemType,omitempty"` // owning widgetRef
}

func kindOf(optType string) (string, []string) {
	switch optType {
	case "color":
		return KindColor, nil
	case "string":
		return KindText, nil
	case "boolean":
		return KindCheckbox, nil
	default:
		return KindSelect, strings.Split(optType, "|")
	}
}

// SettingsFields builds the tenant settings form from the general entry.
// Hidden options carry their default; others the stored value, else the default.
func SettingsFields(general Entry, stored props.Map, prefix string) []Field {
	out := make([]Field, 0, len(general.Options))
	for _, o := range general.Options {
		if o.Ref == accessTokenRef {
			continue
		}
		name := prefix + o.Ref
		value := o.Default()
		if !o.IsHidden() && stored.Has(name) {
			value = stored.Str(name)
		}
		f := Field{Name: name, Label: o.Name, Value: value, Required: o.IsMandatory(), Hidden: o.IsHidden(), Fixed: o.IsHidden(), Helpx: o.Helpx}
		f.Kind, f.Choices = kindOf(o.Type)
		switch f.Kind {
		case KindText, KindColor:
			f.EmptyText = o.Default()
		case KindCheckbox:
			f.TypeHint = "boolean"
			f.Required = false
		}
		out = append(out, f)
	}
	return out
}

// ComponentFields builds the author dialog for a widget component. Fields of
// widgets other than the selected one are rendered hidden.
func ComponentFields(widgets []Entry, selected string, stored props.Map, prefix string) []Field {
	var out []Field
	for _, w := range widgets {
		isSelected := w.WidgetRef != "" && w.WidgetRef == selected
		for _, o := range w.Options {
			name := prefix + o.Ref
			value := ""
			switch {
			case o.IsHidden():
				value = o.Default()
			case isSelected:
				value = stored.Str(name)
			}
			f := Field{Name: name, Label: o.Name, Value: value, Required: o.IsMandatory(), Hidden: !isSelected, Fixed: o.IsHidden(), ItemType: w.WidgetRef}
			f.Kind, f.Choices = kindOf(o.Type)
			switch f.Kind {
			case KindText, KindColor:
				f.EmptyText = w.Default()
			case KindCheckbox:
				f.Required = false
			}
			out = append(out, f)
		}
	}
	return out
}
