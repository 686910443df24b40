package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidProfile indicates a clustering profile that cannot be used.
var ErrInvalidProfile = errors.New("invalid clustering profile")

// ClusterProfile overrides how suggested clusters are presented.
//
// Example:
//
//	max_clusters: 6
//	icons: [BookOpen, Code, Lightbulb]
//	colors: ["#3b82f6", "#10b981", "#f59e0b"]
type ClusterProfile struct {
	MaxClusters int      `yaml:"max_clusters"`
	Icons       []string `yaml:"icons"`
	Colors      []string `yaml:"colors"`
}

// LoadClusterProfile reads a clustering profile from a YAML file.
func LoadClusterProfile(path string) (ClusterProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClusterProfile{}, fmt.Errorf("read clustering profile: %w", err)
	}
	return ParseClusterProfile(data)
}

// ParseClusterProfile decodes and validates a clustering profile.
func ParseClusterProfile(data []byte) (ClusterProfile, error) {
	var p ClusterProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ClusterProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if p.MaxClusters < 0 {
		return ClusterProfile{}, fmt.Errorf("%w: max_clusters must not be negative", ErrInvalidProfile)
	}
	for _, c := range p.Colors {
		if len(c) == 0 || c[0] != '#' {
			return ClusterProfile{}, fmt.Errorf("%w: color %q is not a hex color", ErrInvalidProfile, c)
		}
	}
	return p, nil
}
