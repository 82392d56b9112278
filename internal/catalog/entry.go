package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Entry types in the catalog document.
const (
	TypeGeneral = "general"
	TypeWidget  = "widget"
)

// Option is one configurable field of a widget. Ref is a dotted path.
type Option struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Ref          string   `json:"ref"`
	Type         string   `json:"type"`
	Helpx        string   `json:"helpx"`
	DefaultValue flexText `json:"default"`
	Mandatory    flexBool `json:"mandatory"`
	Hidden       flexBool `json:"hidden"`
}

// Entry is one widget definition; Options keep catalog order.
type Entry struct {
	Name         string   `json:"name"`
	Ref          string   `json:"ref"`
	WidgetRef    string   `json:"widgetRef"`
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	DefaultValue flexText `json:"defaultValue"`
	Options      []Option `json:"options"`
}

// flexText accepts any JSON scalar and keeps its text form.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*f = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexText(v)
	default:
		*f = flexText(s)
	}
	return nil
}

// flexBool accepts true/false and their quoted forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" || s == "" {
		*f = false
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		*f = false
		return nil
	}
	*f = flexBool(v)
	return nil
}

// Default returns the option's default value.
func (o Option) Default() string { return string(o.DefaultValue) }

func (o Option) IsMandatory() bool { return bool(o.Mandatory) }

func (o Option) IsHidden() bool { return bool(o.Hidden) }

func (e Entry) Default() string { return string(e.DefaultValue) }
