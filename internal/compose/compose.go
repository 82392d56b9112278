// Package compose builds the nested widget configuration handed to the client script.
package compose

import (
	"bytes"
	"encoding/json"
	"strings"

	"cpwidget/pkg/props"
)

// Flat keys written by Compose.
const (
	KeyWidgetRef   = "widgetConfig.widgetRef"
	KeyType        = "type"
	KeyAccessToken = "auth.accessToken"
	ConfigType     = "acapConfig"
)

// secrets never reach the client payload.
var secrets = []string{"clientId", "clientSecret", "refreshToken"}

// Compose merges widget values, the selected widget ref, general settings and
// the access token, in that order, and nests the result on dotted keys. Secrets
// are removed from the top level last.
func Compose(widget props.Map, selectedRef, accessToken string, general props.Map) map[string]any {
	flat := make(props.Map, len(widget)+len(general)+3)
	for k, v := range widget {
		flat[k] = v
	}
	flat[KeyWidgetRef] = props.String(selectedRef)
	flat[KeyType] = props.String(ConfigType)
	for k, v := range general {
		flat[k] = v
	}
	flat[KeyAccessToken] = props.String(accessToken)

	out := Nest(flat)
	for _, k := range secrets {
		delete(out, k)
	}
	return out
}

// Nest expands dotted keys into nested objects. Keys are applied in sorted
// order; when a path needs an object where a leaf already sits, the object wins.
func Nest(flat props.Map) map[string]any {
	out := map[string]any{}
	for _, k := range flat.Keys() {
		parts := strings.Split(k, ".")
		node := out
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		leaf := parts[len(parts)-1]
		if _, isObj := node[leaf].(map[string]any); isObj {
			continue
		}
		node[leaf] = flat[k].Client()
	}
	return out
}

// Marshal serializes obj without HTML escaping, so URLs and markup in option
// values reach the client unchanged.
func Marshal(obj map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(obj); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
