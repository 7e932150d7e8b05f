package client

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL matches the API's default listen address.
const DefaultBaseURL = "http://localhost:8080"

// Profile is the persisted CLI configuration.
type Profile struct {
	BaseURL     string `yaml:"base_url"`
	BearerToken string `yaml:"bearer_token,omitempty"`
	ChunkSize   int    `yaml:"chunk_size"`
}

// DefaultProfile returns a Profile with default values.
func DefaultProfile() *Profile {
	return &Profile{
		BaseURL:   DefaultBaseURL,
		ChunkSize: DefaultChunkSize,
	}
}

// DefaultProfilePath returns ~/.assetctl.yaml.
func DefaultProfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".assetctl.yaml"), nil
}

// LoadProfile reads the profile at path. A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	if profile.BaseURL == "" {
		profile.BaseURL = DefaultBaseURL
	}
	if profile.ChunkSize <= 0 {
		profile.ChunkSize = DefaultChunkSize
	}
	return profile, nil
}

// Save persists the profile. The file holds a bearer token, so it is private to the user.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
