package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// fileBackend keeps one 0600 file per key in a private directory
type fileBackend struct {
	dir string
}

// NewFileStore returns a Store writing to dir, for hosts without a keychain.
// An empty dir selects $XDG_RUNTIME_DIR/healthmap, which the OS clears when
// the user logs out, or the user cache dir when there is none. The
// directory must be a real directory private to the current user.
func NewFileStore(dir, scope string) (Store, error) {
	if dir == "" {
		var err error
		if dir, err = defaultSessionDir(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	info, err := os.Lstat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect session directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("session directory %s is not a directory", dir)
	}
	if err := checkPrivateDir(info); err != nil {
		return nil, fmt.Errorf("session directory %s: %w", dir, err)
	}
	return newKVStore(&fileBackend{dir: dir}, scope), nil
}

func defaultSessionDir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "healthmap"), nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("no session directory available: %w", err)
	}
	return filepath.Join(cacheDir, "healthmap", "sessions"), nil
}

func (f *fileBackend) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:12])+".json")
}

func (f *fileBackend) load(key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read session file: %w", err)
	}
	return string(data), true, nil
}

func (f *fileBackend) save(key, value string) error {
	return os.WriteFile(f.path(key), []byte(value), 0600)
}

func (f *fileBackend) remove(key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
