package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"modelsync/internal/reconciler"
)

// Kind tags the outcome of rendering a watched file.
type Kind int

const (
	// DecodedNothing means the file produced no configuration.
	DecodedNothing Kind = iota

	// DecodedDocument means the file produced a declarative document.
	DecodedDocument

	// DecodedText means the file produced a string; the runner may attempt
	// to decode it as a declarative document.
	DecodedText
)

// String makes Kind satisfy the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case DecodedDocument:
		return "document"
	case DecodedText:
		return "text"
	default:
		return "nothing"
	}
}

// Decoded is the tagged result of rendering a watched file. The runner
// matches on Kind explicitly instead of duck-typing the produced value.
type Decoded struct {
	Kind Kind
	Doc  *reconciler.Document
	Text string
}

// File renders and decodes a declarative file by extension: YAML directly,
// JSON through a YAML bridge, and .tmpl scripts through the template engine.
func File(path string) (Decoded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Decoded{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data)

	case ".json":
		converted, err := sigsyaml.JSONToYAML(data)
		if err != nil {
			return Decoded{}, fmt.Errorf("invalid JSON in %s: %w", path, err)
		}
		return Parse(converted)

	case ".tmpl":
		rendered, err := renderScript(path, data)
		if err != nil {
			return Decoded{}, err
		}
		if strings.TrimSpace(rendered) == "" {
			return Decoded{Kind: DecodedNothing}, nil
		}
		return Parse([]byte(rendered))

	default:
		return Decoded{}, fmt.Errorf("unsupported format %q for %s", filepath.Ext(path), path)
	}
}

// Parse decodes YAML bytes into a tagged result. A mapping becomes a
// document, a scalar becomes text, anything else decodes to nothing.
func Parse(data []byte) (Decoded, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Decoded{}, fmt.Errorf("invalid YAML: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return Decoded{Kind: DecodedNothing}, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.MappingNode:
		doc, err := parseDocument(node)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: DecodedDocument, Doc: doc}, nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return Decoded{Kind: DecodedNothing}, nil
		}
		var text string
		if err := node.Decode(&text); err != nil {
			return Decoded{}, fmt.Errorf("invalid scalar: %w", err)
		}
		return Decoded{Kind: DecodedText, Text: text}, nil

	default:
		return Decoded{Kind: DecodedNothing}, nil
	}
}
