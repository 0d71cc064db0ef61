package shared

import (
	"net/http"
	"strconv"
)

// ListParams carries offset pagination parsed from query parameters.
type ListParams struct {
	Limit  int
	Offset int
}

// ParseListParams reads limit/offset from the request query, clamping to
// sane bounds.
func ParseListParams(r *http.Request, defaultLimit, maxLimit int) ListParams {
	p := ListParams{Limit: defaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Limit = v
		}
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			p.Offset = v
		}
	}
	return p
}
