package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownKeys are the valid flat keys in a config file.
var knownKeys = map[string]bool{
	// Credentials and endpoint
	"tenant_id": true, "client_id": true, "client_secret": true,
	"resource_url": true, "resource_url_version": true,
	// Logging settings
	"log_level": true, "log_file": true, "log_format": true,
	"log_max_size_mb": true, "log_max_backups": true, "log_retention_days": true,
	// Network settings
	"timeout": true, "max_retries": true, "retry_delay": true,
	// Transfer settings
	"disable_download_validation": true,
}

// knownKeysList is knownKeys sorted, so ties in edit distance resolve the
// same way every run.
var knownKeysList = func() []string {
	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys reports every key the TOML decoder could not place,
// with a suggestion when a known key is close.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	for _, key := range md.Undecoded() {
		field := strings.SplitN(key.String(), ".", 2)[0]
		errs = append(errs, unknownKeyError(field))
	}

	return errors.Join(errs...)
}

func unknownKeyError(field string) error {
	if suggestion := closestMatch(field, knownKeysList); suggestion != "" {
		return fmt.Errorf("unknown config key %q: did you mean %q?", field, suggestion)
	}

	return fmt.Errorf("unknown config key %q", field)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings using two
// rolling rows.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 0; i < len(a); i++ {
		curr[0] = i + 1

		for j := 0; j < len(b); j++ {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(prev[j+1]+1, curr[j]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
