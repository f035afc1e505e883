package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// pathID parses the single path segment following prefix as a positive
// shot ID.
func pathID(r *http.Request, prefix string) (int64, error) {
	seg := strings.TrimPrefix(r.URL.Path, prefix)
	if seg == "" || strings.Contains(seg, "/") {
		return 0, errors.New("missing shot id")
	}
	id, err := strconv.ParseInt(seg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid shot id %q", seg)
	}
	return id, nil
}

// queryFloat reads a float query parameter bounded to [lo, hi]. A missing
// parameter yields def.
func queryFloat(r *http.Request, name string, def, lo, hi float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("%s must be a number in [%g, %g]", name, lo, hi)
	}
	return v, nil
}

// queryInt reads an integer query parameter no smaller than lo. A missing
// parameter yields def.
func queryInt(r *http.Request, name string, def, lo int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < lo {
		return 0, fmt.Errorf("%s must be an integer >= %d", name, lo)
	}
	return v, nil
}
