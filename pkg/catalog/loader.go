// Package catalog loads and validates step catalogs for the guided
// site-analysis workflow.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/windscape/windscape/pkg/models"
)

// File is the on-disk YAML representation of a step catalog.
type File struct {
	Name  string                   `yaml:"name"`
	Steps []*models.StepDefinition `yaml:"steps"`
}

// Load reads a catalog from a YAML file, validates the document against the
// catalog schema plus per-step struct rules, and builds the catalog.
func Load(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse builds a catalog from raw YAML bytes.
func Parse(data []byte) (*models.Catalog, error) {
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := validateSchema(document); err != nil {
		return nil, fmt.Errorf("catalog document is invalid: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	validate := validator.New()

	for _, step := range file.Steps {
		if err := validate.Struct(step); err != nil {
			return nil, fmt.Errorf("invalid step %s: %w", step.ID, err)
		}
	}

	cat, err := models.NewCatalog(file.Steps)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}

	return cat, nil
}

// validateSchema checks the decoded document against the catalog JSON
// schema. YAML decoding produces the same generic shapes the schema loader
// expects, so no JSON round trip is needed.
func validateSchema(document map[string]any) error {
	schemaLoader := gojsonschema.NewGoLoader(catalogSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return err
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}

		return fmt.Errorf("validation errors: %s", strings.Join(descriptions, "; "))
	}

	return nil
}
