package rulesfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/ad-autonamer/internal/core/confidence"
)

// Load reads keyword inference rules from a YAML file. An empty path yields
// the built-in rules; sections missing from the file keep their defaults.
func Load(path string) (confidence.RuleSet, error) {
	if path == "" {
		return confidence.DefaultRuleSet(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return confidence.RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (confidence.RuleSet, error) {
	var rules confidence.RuleSet
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return confidence.RuleSet{}, fmt.Errorf("parse rules file: %w", err)
	}
	def := confidence.DefaultRuleSet()
	if len(rules.Angles) == 0 {
		rules.Angles = def.Angles
	}
	if len(rules.OfferPatterns) == 0 {
		rules.OfferPatterns = def.OfferPatterns
	}
	return rules, nil
}

// NewInferer loads the rules at path and compiles them.
func NewInferer(path string) (*confidence.Inferer, error) {
	rules, err := Load(path)
	if err != nil {
		return nil, err
	}
	inferer, err := confidence.NewInferer(rules)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return inferer, nil
}
