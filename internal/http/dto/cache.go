package dto

import (
	"net/http"
	"strings"

	"github.com/cesargomez89/nowplaying/internal/metacache"
)

// ClearCacheRequest selects what to clear. An empty Namespaces means all.
type ClearCacheRequest struct {
	Namespaces []metacache.Namespace
}

type ClearCacheResponse struct {
	Namespaces []string `json:"namespaces"`
	Cleared    int      `json:"cleared"`
}

// ParseClearCache reads the repeatable, comma separated namespace query
// parameter.
func ParseClearCache(r *http.Request) (ClearCacheRequest, []ValidationError) {
	var (
		req  ClearCacheRequest
		errs []ValidationError
	)
	for _, raw := range r.URL.Query()["namespace"] {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			ns, ok := metacache.Lookup(name)
			if !ok {
				errs = append(errs, ValidationError{Field: "namespace", Message: "unknown namespace " + name})
				continue
			}
			req.Namespaces = append(req.Namespaces, ns)
		}
	}
	return req, errs
}

// Names lists the selected prefixes, or every prefix when none is selected.
func (r ClearCacheRequest) Names() []string {
	list := r.Namespaces
	if len(list) == 0 {
		list = metacache.Namespaces()
	}
	names := make([]string, 0, len(list))
	for _, ns := range list {
		names = append(names, strings.TrimSuffix(ns.Prefix, ":"))
	}
	return names
}
