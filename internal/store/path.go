package store

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultStoreRoot returns the root directory for all stores.
// Defaults to ~/.habits/stores, falls back to ./.habits/stores if the
// home dir is unavailable.
func DefaultStoreRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		cwd, _ := os.Getwd()
		return filepath.Join(cwd, ".habits", "stores")
	}
	return filepath.Join(home, ".habits", "stores")
}

// EncodeStorePath encodes a store ID for filesystem use.
// Replaces "/" with "__" for path-style store IDs.
func EncodeStorePath(storeID string) string {
	return strings.ReplaceAll(storeID, "/", "__")
}

// DecodeStorePath decodes an encoded store path back to store ID.
func DecodeStorePath(encoded string) string {
	return strings.ReplaceAll(encoded, "__", "/")
}

// DBPath returns the full path to a store's database file.
// Example: DBPath("club/rapid") -> ~/.habits/stores/club__rapid/habits.db
func DBPath(storeID string) string {
	encoded := EncodeStorePath(storeID)
	return filepath.Join(DefaultStoreRoot(), encoded, "habits.db")
}
