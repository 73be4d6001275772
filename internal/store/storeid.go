// Package store provides store path resolution and ID validation for
// the habits database.
package store

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// ErrInvalidStoreID indicates the store ID format is invalid.
var ErrInvalidStoreID = errors.New("invalid store ID: must be lowercase alphanumeric with hyphens, 1-4 path segments")

// storeIDRegex validates store ID format.
// Format: <segment>[/<segment>]*
// - 1-4 path segments separated by /
// - Segments: lowercase alphanumeric and hyphens (a-z, 0-9, -)
// - Segment length: 1-64 characters
// - No leading/trailing hyphens, no consecutive hyphens
// - Total max length: 256 characters
var storeIDRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?(\/[a-z0-9]([a-z0-9-]{0,62}[a-z0-9])?){0,3}$`)

// ValidateStoreID validates a store ID format.
// Returns ErrInvalidStoreID if the ID doesn't match the required pattern.
func ValidateStoreID(id string) error {
	if id == "" || len(id) > 256 {
		return ErrInvalidStoreID
	}
	// Consecutive hyphens are not caught by the regex.
	if strings.Contains(id, "--") {
		return ErrInvalidStoreID
	}
	if !storeIDRegex.MatchString(id) {
		return ErrInvalidStoreID
	}
	return nil
}

// ResolveStore determines the store ID to use based on priority chain:
// explicit > HABITS_STORE env > "default".
func ResolveStore(explicit string) (string, error) {
	if explicit != "" {
		if err := ValidateStoreID(explicit); err != nil {
			return "", fmt.Errorf("invalid store ID %q: %w", explicit, err)
		}
		return explicit, nil
	}
	if envStore := os.Getenv("HABITS_STORE"); envStore != "" {
		if err := ValidateStoreID(envStore); err != nil {
			return "", fmt.Errorf("invalid HABITS_STORE %q: %w", envStore, err)
		}
		return envStore, nil
	}
	return "default", nil
}
