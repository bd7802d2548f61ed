package httpmetrics

import (
	"strings"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/constants"
)

var staticPaths = map[string]struct{}{
	"/":                   {},
	"/health":             {},
	"/metrics":            {},
	"/recipes":            {},
	"/recipes/random":     {},
	"/ingredients":        {},
	"/ingredients/random": {},
	"/users/login":        {},
	"/users/register":     {},
	"/users/logout":       {},
	"/users/current":      {},
	"/user/g1w":           {},
	"/user/g1l":           {},
}

// NormalizePath maps request paths onto a bounded set of metric labels.
// Recipe names and hall names collapse into placeholders; anything unknown
// becomes "other".
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	trimmed := strings.TrimPrefix(path, constants.APIPrefix)
	if trimmed == "" {
		trimmed = "/"
	}
	if len(trimmed) > 1 {
		trimmed = strings.TrimSuffix(trimmed, "/")
	}

	if _, ok := staticPaths[trimmed]; ok {
		return trimmed
	}

	switch {
	case strings.HasPrefix(trimmed, "/recipes/hall/"):
		return "/recipes/hall/{hall}"
	case strings.HasPrefix(trimmed, "/recipes/"):
		return "/recipes/{name}"
	default:
		return "other"
	}
}
