package categorizer

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fjacquet/purchase-ledger/internal/models"
)

// Rule maps title keywords to a category, optionally only for some providers.
type Rule struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Providers []string `yaml:"providers,omitempty"`
}

type ruleFile struct {
	Categories []Rule `yaml:"categories"`
}

// appliesTo reports whether the rule is enabled for provider.
func (r Rule) appliesTo(provider models.ProviderID) bool {
	if len(r.Providers) == 0 {
		return true
	}
	for _, p := range r.Providers {
		if models.ParseProviderID(p) == provider {
			return true
		}
	}
	return false
}

// ParseRules decodes a rules document:
//
//	categories:
//	  - name: Electronics
//	    keywords: [cable, charger, usb]
//	    providers: [amazon, aliexpress]
func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse category rules: %w", err)
	}
	for i, r := range f.Categories {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("category rule %d has no name", i+1)
		}
	}
	return f.Categories, nil
}

// LoadRules reads rules from path. A missing file yields no rules.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules: %w", err)
	}
	return ParseRules(data)
}

// Names returns the category names of rules in order, without duplicates.
func Names(rules []Rule) []string {
	seen := make(map[string]bool, len(rules))
	var out []string
	for _, r := range rules {
		if !seen[r.Name] {
			seen[r.Name] = true
			out = append(out, r.Name)
		}
	}
	return out
}
