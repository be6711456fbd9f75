package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dkraev/doc-anonymizer/internal/core/domain"
)

// LoadDefaultPolicy reads the operator-provided fallback policy applied to
// datasets that carry none. An empty path means mask-everything.
func LoadDefaultPolicy(path string) (domain.PolicyConfig, error) {
	if path == "" {
		return domain.DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PolicyConfig{}, fmt.Errorf("read default policy: %w", err)
	}

	var policy domain.PolicyConfig
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return domain.PolicyConfig{}, fmt.Errorf("parse default policy: %w", err)
	}
	if policy.DefaultAction == "" {
		policy.DefaultAction = domain.ActionMask
	}
	return policy, nil
}
