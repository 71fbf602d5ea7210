// ABOUTME: Reads command input documents from JSON or YAML files
// ABOUTME: YAML is converted through JSON so wire field names apply

package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// decodeInputFile reads path into v. Files ending in .yaml or .yml are
// parsed as YAML, everything else as JSON.
func decodeInputFile(path string, v any) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if data, err = json.Marshal(generic); err != nil {
			return fmt.Errorf("converting %s: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
