package catalog

import (
	"net/url"
	"strings"
)

// Reserved query keys drive pagination and are never filters.
var reservedKeys = map[string]bool{"skip": true, "limit": true}

// MergeFilters returns current with updates applied. Empty values delete.
func MergeFilters(current, updates map[string]string) map[string]string {
	out := copyFilters(current)
	for k, v := range updates {
		k = strings.TrimSpace(k)
		if k == "" || reservedKeys[k] {
			continue
		}
		if strings.TrimSpace(v) == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// FiltersFromQuery takes the first non-empty value of every non-reserved key.
func FiltersFromQuery(q url.Values) map[string]string {
	out := map[string]string{}
	for k, vs := range q {
		if reservedKeys[k] {
			continue
		}
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				out[k] = v
				break
			}
		}
	}
	return out
}

func QueryFromFilters(filters map[string]string) url.Values {
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func copyFilters(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
