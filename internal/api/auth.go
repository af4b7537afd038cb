package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// APIKeys maps device IDs to their bearer tokens. An empty map disables
// authentication entirely, which is the expected mode for local
// development.
type APIKeys map[string]string

// LoadAPIKeys reads a device-to-key JSON map from disk. An empty path
// returns an empty key set.
func LoadAPIKeys(path string) (APIKeys, error) {
	if path == "" {
		return APIKeys{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read api keys file: %w", err)
	}
	var keys APIKeys
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse api keys file: %w", err)
	}
	return keys, nil
}

// Enabled reports whether any keys are configured.
func (k APIKeys) Enabled() bool {
	return len(k) > 0
}

// Verify checks the Authorization header of a request and returns the
// device ID the presented key belongs to. When no keys are configured
// every request is accepted and the device ID is empty.
func (k APIKeys) Verify(r *http.Request) (string, error) {
	if !k.Enabled() {
		return "", nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", fmt.Errorf("Authorization header must use Bearer scheme")
	}

	for deviceID, key := range k {
		if key == token {
			return deviceID, nil
		}
	}
	return "", fmt.Errorf("invalid API key")
}
