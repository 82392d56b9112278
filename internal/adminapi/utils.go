package adminapi

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"

	"cpwidget/pkg/content"
	"cpwidget/pkg/props"
)

var errBadBody = errors.New("adminapi: unreadable body")

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestFields collects the prefixed fields of a form or JSON body. Only the
// first value of a repeated form field counts.
func requestFields(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, errBadBody
		}
		for k, v := range body {
			if strings.HasPrefix(k, content.PropertyPrefix) {
				out[k] = props.FromAny(v).String()
			}
		}
		return out, nil
	}
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, errBadBody
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, errBadBody
	}
	for k, vs := range r.PostForm {
		if strings.HasPrefix(k, content.PropertyPrefix) && len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out, nil
}
