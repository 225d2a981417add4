package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest reads a benchmark request from a YAML or JSON file, chosen by
// extension. The loaded request is validated before it is returned.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var req Request
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse request file %q: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("failed to parse request file %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported request file extension %q (want .yaml, .yml or .json)", ext)
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request in %q: %w", path, err)
	}
	return &req, nil
}

// Validate checks the request for the fields a run cannot start without and
// fills defaults for the optional ones.
func (r *Request) Validate() error {
	if r.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if r.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(r.Prompts) == 0 {
		return fmt.Errorf("at least one prompt is required")
	}
	for i, p := range r.Prompts {
		if p.ID == "" {
			return fmt.Errorf("prompt %d: id is required", i)
		}
		if p.Content == "" {
			return fmt.Errorf("prompt %q: content is required", p.ID)
		}
	}
	if r.EvalType == "" {
		r.EvalType = "basic"
	}
	return nil
}
