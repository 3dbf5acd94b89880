package main

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"

	"github.com/imposter-project/assetscheme/internal/config"
)

//go:embed assetscheme-source-schema.json
var sourceSchema string

var documentSeparator = regexp.MustCompile(`(?m)^---\s*$`)

func loadConfigFiles(configDir string) ([]string, error) {
	var configFiles []string
	err := filepath.WalkDir(configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && config.IsConfigFile(d.Name()) {
			configFiles = append(configFiles, path)
		}
		return nil
	})
	return configFiles, err
}

// validateFile checks every document in a source file against the schema and
// returns the problems found.
func validateFile(schemaLoader gojsonschema.JSONLoader, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := config.SubstituteEnvVars(string(data))

	var problems []string
	for i, doc := range documentSeparator.Split(content, -1) {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		j, err := yaml.YAMLToJSON([]byte(doc))
		if err != nil {
			problems = append(problems, fmt.Sprintf("document %d: %v", i+1, err))
			continue
		}
		result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(j))
		if err != nil {
			return nil, err
		}
		for _, desc := range result.Errors() {
			problems = append(problems, fmt.Sprintf("document %d: %s", i+1, desc))
		}
	}
	return problems, nil
}

// validateConfig validates each source file, then loads the directory as the
// server would. It returns the number of valid files and whether the directory
// loads cleanly.
func validateConfig(configDir string) (int, bool) {
	fmt.Println("Validating source configs")
	schemaLoader := gojsonschema.NewStringLoader(sourceSchema)

	configFiles, err := loadConfigFiles(configDir)
	if err != nil {
		fmt.Printf("✗ %s - %v\n", configDir, err)
		return 0, false
	}

	var validFiles int
	for _, configFile := range configFiles {
		problems, err := validateFile(schemaLoader, configFile)
		switch {
		case err != nil:
			fmt.Printf("✗ %s - %v\n", configFile, err)
		case len(problems) == 0:
			fmt.Printf("✓ %s - Valid\n", configFile)
			validFiles++
		default:
			fmt.Printf("✗ %s - Invalid:\n", configFile)
			for _, p := range problems {
				fmt.Printf("\t - %s\n", p)
			}
		}
	}

	if _, err := config.LoadConfig(configDir, true); err != nil {
		fmt.Printf("✗ %s - %v\n", configDir, err)
		return validFiles, false
	}
	return validFiles, validFiles == len(configFiles)
}

func main() {
	parser := argparse.NewParser("validate_configs", "Validates browser source configs against the source config schema.")
	c := parser.String("c", "configs", &argparse.Options{Required: true, Help: "Location of config files"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	valid, ok := validateConfig(*c)
	fmt.Printf("Successfully validated %d files.\n", valid)
	if !ok {
		os.Exit(1)
	}
}
