package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"memoria_chatbot/internal/classifier"
	"memoria_chatbot/internal/core"
	"memoria_chatbot/internal/services"
	"memoria_chatbot/internal/storage"
	"memoria_chatbot/pkg"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of config.yaml
type YAMLConfig struct {
	Resolver struct {
		Policy        string   `yaml:"policy"`
		Fuzzy         *bool    `yaml:"fuzzy"`
		FuzzyCutoff   float64  `yaml:"fuzzy_cutoff"`
		CacheFailures bool     `yaml:"cache_failures"`
		SlangTokens   []string `yaml:"slang_tokens"`
	} `yaml:"resolver"`
	Memory struct {
		Files map[pkg.Category]string `yaml:"files"`
	} `yaml:"memory"`
	Messages services.Messages `yaml:"messages"`
}

// LoadConfig loads configuration from config.yaml. A missing file gives
// the defaults.
func LoadConfig(filepath string) (*YAMLConfig, error) {
	var config YAMLConfig

	data, err := os.ReadFile(filepath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("error parsing YAML: %v", err)
		}
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *YAMLConfig) applyDefaults() {
	if c.Resolver.Policy == "" {
		c.Resolver.Policy = classifier.PolicyKeyword
	}
	// fuzzy is a stage of the vocabulary flow and an opt-in for the keyword flow
	if c.Resolver.Fuzzy == nil {
		on := c.Resolver.Policy == classifier.PolicyVocabulary
		c.Resolver.Fuzzy = &on
	}
	if c.Resolver.FuzzyCutoff == 0 {
		c.Resolver.FuzzyCutoff = storage.DefaultFuzzyCutoff
	}
	if c.Resolver.SlangTokens == nil {
		c.Resolver.SlangTokens = classifier.DefaultSlangTokens
	}

	files := make(map[pkg.Category]string, len(storage.DefaultFiles))
	for cat, name := range storage.DefaultFiles {
		files[cat] = name
	}
	for cat, name := range c.Memory.Files {
		if name != "" {
			files[cat] = name
		}
	}
	c.Memory.Files = files

	defaults := services.DefaultMessages()
	if c.Messages.Ambiguous == "" {
		c.Messages.Ambiguous = defaults.Ambiguous
	}
	if c.Messages.NotFound == "" {
		c.Messages.NotFound = defaults.NotFound
	}
	if c.Messages.Failed == "" {
		c.Messages.Failed = defaults.Failed
	}
}

// Validate rejects values the resolver cannot run with
func (c *YAMLConfig) Validate() error {
	switch c.Resolver.Policy {
	case classifier.PolicyKeyword, classifier.PolicyVocabulary:
	default:
		return fmt.Errorf("resolver.policy must be %q or %q, got %q",
			classifier.PolicyKeyword, classifier.PolicyVocabulary, c.Resolver.Policy)
	}

	if c.Resolver.FuzzyCutoff <= 0 || c.Resolver.FuzzyCutoff > 1 {
		return fmt.Errorf("resolver.fuzzy_cutoff must be in (0, 1], got %v", c.Resolver.FuzzyCutoff)
	}

	for cat := range c.Memory.Files {
		if !cat.Valid() {
			return fmt.Errorf("memory.files: unknown category %q", cat)
		}
	}

	for name, template := range map[string]string{
		"messages.ambiguous": c.Messages.Ambiguous,
		"messages.failed":    c.Messages.Failed,
	} {
		if !oneStringVerb(template) {
			return fmt.Errorf("%s must contain exactly one %%s, got %q", name, template)
		}
	}
	return nil
}

// oneStringVerb reports whether template has a single %s and no other verb
func oneStringVerb(template string) bool {
	rest := strings.ReplaceAll(template, "%%", "")
	return strings.Count(rest, "%s") == 1 && strings.Count(rest, "%") == 1
}

// BuildCoreConfig creates core.Config from the YAML config
func BuildCoreConfig(yamlConfig *YAMLConfig) core.Config {
	fuzzy := yamlConfig.Resolver.Policy == classifier.PolicyVocabulary
	if yamlConfig.Resolver.Fuzzy != nil {
		fuzzy = *yamlConfig.Resolver.Fuzzy
	}

	return core.Config{
		Policy:        yamlConfig.Resolver.Policy,
		Fuzzy:         fuzzy,
		FuzzyCutoff:   yamlConfig.Resolver.FuzzyCutoff,
		CacheFailures: yamlConfig.Resolver.CacheFailures,
		SlangTokens:   yamlConfig.Resolver.SlangTokens,
		Messages:      yamlConfig.Messages,
	}
}
