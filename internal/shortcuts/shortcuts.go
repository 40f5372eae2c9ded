// Package shortcuts validates the custom_shortcuts entries from
// config.toml against the keys Panoptes' own global and Normal-mode
// dispatch already own (spec.md §9).
package shortcuts

import (
	"fmt"

	"github.com/ivanbrko/panoptes/internal/config"
)

// Reserved is the set of single-character keys the core UI already
// binds; a custom shortcut may not claim any of them.
var Reserved = map[string]bool{
	"q": true, "i": true, "g": true, "G": true, "t": true, "T": true, "j": true, "k": true,
}

// Validate checks a full custom_shortcuts list for reserved keys,
// digit keys (reserved for "jump to session N"), and duplicate keys.
// Returns all violations found, not just the first.
func Validate(entries []config.Shortcut) []error {
	var errs []error
	seen := map[string]bool{}

	for _, e := range entries {
		if e.Key == "" {
			errs = append(errs, fmt.Errorf("shortcuts: %q has no key bound", e.Name))
			continue
		}
		if len(e.Key) == 1 && e.Key[0] >= '0' && e.Key[0] <= '9' {
			errs = append(errs, fmt.Errorf("shortcuts: %q binds digit key %q, reserved for session jumps", e.Name, e.Key))
			continue
		}
		if Reserved[e.Key] {
			errs = append(errs, fmt.Errorf("shortcuts: %q binds reserved key %q", e.Name, e.Key))
			continue
		}
		if seen[e.Key] {
			errs = append(errs, fmt.Errorf("shortcuts: key %q is bound more than once", e.Key))
			continue
		}
		seen[e.Key] = true
	}
	return errs
}
