package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/imposter-project/assetscheme/pkg/logger"
	"github.com/imposter-project/assetscheme/pkg/utils"
)

var (
	envVarPattern = regexp.MustCompile(`\$\{env\.([A-Z0-9_]+)(:-([^}]+))?\}`)
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// IsConfigFile reports whether the file name looks like a browser source config.
func IsConfigFile(name string) bool {
	return strings.HasSuffix(name, "-source.yaml") ||
		strings.HasSuffix(name, "-source.yml") ||
		strings.HasSuffix(name, "-source.json")
}

// LoadConfig loads all browser source configs in the specified directory.
// Browser IDs that are not set explicitly are assigned in load order.
func LoadConfig(configDir string, scanRecursive bool) ([]BrowserConfig, error) {
	var configs []BrowserConfig

	err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Skip subdirectories if not scanning recursively
		if info.IsDir() && path != configDir && !scanRecursive {
			return filepath.SkipDir
		}

		if !info.IsDir() && IsConfigFile(info.Name()) {
			logger.Infof("loading browser source config: %s", path)
			fileConfigs, err := parseConfig(path)
			if err != nil {
				return err
			}
			for i := range fileConfigs {
				fileConfigs[i].ConfigDir = configDir
				if err := resolveTemplate(&fileConfigs[i]); err != nil {
					return fmt.Errorf("source %q in %s: %w", fileConfigs[i].Name, path, err)
				}
			}
			configs = append(configs, fileConfigs...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := assignBrowserIDs(configs); err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for i := range configs {
		if err := Validate(&configs[i]); err != nil {
			return nil, err
		}
		if _, dup := names[configs[i].Name]; dup {
			return nil, fmt.Errorf("duplicate browser source name %q", configs[i].Name)
		}
		names[configs[i].Name] = struct{}{}
	}
	return configs, nil
}

// parseConfig loads and parses a YAML file, which may contain several documents.
func parseConfig(path string) ([]BrowserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return parseConfigData(data)
}

func parseConfigData(data []byte) ([]BrowserConfig, error) {
	// Substitute environment variables
	data = []byte(SubstituteEnvVars(string(data)))

	var configs []BrowserConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var cfg BrowserConfig
		err := decoder.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// resolveTemplate fills in the template text from templateFile, or the default template.
func resolveTemplate(cfg *BrowserConfig) error {
	if cfg.Source.TemplateFile != "" {
		filePath, err := utils.ValidatePath(cfg.Source.TemplateFile, cfg.ConfigDir)
		if err != nil {
			return fmt.Errorf("invalid template file path: %w", err)
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read template file: %w", err)
		}
		cfg.Source.Template = string(data)
	}
	if cfg.Source.Template == "" {
		cfg.Source.Template = DefaultTemplate
	}
	return nil
}

func assignBrowserIDs(configs []BrowserConfig) error {
	used := make(map[int]string)
	for _, cfg := range configs {
		if cfg.BrowserID == 0 {
			continue
		}
		if other, ok := used[cfg.BrowserID]; ok {
			return fmt.Errorf("browser id %d used by both %q and %q", cfg.BrowserID, other, cfg.Name)
		}
		used[cfg.BrowserID] = cfg.Name
	}

	next := 1
	for i := range configs {
		if configs[i].BrowserID != 0 {
			continue
		}
		for {
			if _, taken := used[next]; !taken {
				break
			}
			next++
		}
		configs[i].BrowserID = next
		used[next] = configs[i].Name
	}
	return nil
}

// Validate checks a single browser config.
func Validate(cfg *BrowserConfig) error {
	if cfg.Name == "" {
		return errors.New("browser source name is required")
	}
	if !namePattern.MatchString(cfg.Name) {
		return fmt.Errorf("source %q: name must be usable as a URL host", cfg.Name)
	}
	if cfg.BrowserID <= 0 {
		return fmt.Errorf("source %q: browser id must be positive", cfg.Name)
	}
	if cfg.Source.URL == "" {
		return fmt.Errorf("source %q: url is required", cfg.Name)
	}
	if cfg.Source.Width <= 0 || cfg.Source.Height <= 0 {
		return fmt.Errorf("source %q: width and height must be positive", cfg.Name)
	}
	return nil
}

// SubstituteEnvVars replaces ${env.VAR} and ${env.VAR:-default} with environment variable values
func SubstituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		envVar := groups[1]
		defaultValue := groups[3]
		if value, exists := os.LookupEnv(envVar); exists {
			return value
		}
		return defaultValue
	})
}
