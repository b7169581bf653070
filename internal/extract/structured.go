package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hyperjump/bloemist/internal/models"
	"gopkg.in/yaml.v3"
)

// catalogFile is the object form of a catalog; a bare array of categories is also accepted.
type catalogFile struct {
	Categories []models.CategoryInput `json:"categories" yaml:"categories"`
}

func extractJSON(content []byte) ([]models.CategoryInput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var cats []models.CategoryInput
		if err := json.Unmarshal(trimmed, &cats); err != nil {
			return nil, fmt.Errorf("parse JSON catalog: %w", err)
		}
		return cats, nil
	}
	var file catalogFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, fmt.Errorf("parse JSON catalog: %w", err)
	}
	return file.Categories, nil
}

func extractYAML(content []byte) ([]models.CategoryInput, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(content, &node); err != nil {
		return nil, fmt.Errorf("parse YAML catalog: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		var cats []models.CategoryInput
		if err := node.Content[0].Decode(&cats); err != nil {
			return nil, fmt.Errorf("decode YAML catalog: %w", err)
		}
		return cats, nil
	}
	var file catalogFile
	if err := node.Content[0].Decode(&file); err != nil {
		return nil, fmt.Errorf("decode YAML catalog: %w", err)
	}
	return file.Categories, nil
}
