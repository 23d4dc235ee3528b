package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ariel-frischer/issuelog/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// SetValue validates value against the schema for key and writes it into
// the YAML config file at path, creating the file if needed. Comments and
// the order of other keys are preserved.
func SetValue(path, key, value string) (ParsedValue, error) {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return ParsedValue{}, err
	}

	doc, err := readDocument(path)
	if err != nil {
		return ParsedValue{}, err
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(parsed.Parsed); err != nil {
		return ParsedValue{}, fmt.Errorf("encoding value: %w", err)
	}

	root := doc.Content[0]
	if !setMappingValue(root, key, &valueNode) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&valueNode,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return ParsedValue{}, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return ParsedValue{}, fmt.Errorf("encoding config: %w", err)
	}

	if err := fsutil.AtomicWrite(path, buf.Bytes(), 0o644); err != nil {
		return ParsedValue{}, fmt.Errorf("writing config: %w", err)
	}
	return parsed, nil
}

// readDocument loads path as a YAML document whose root is a mapping. A
// missing or empty file yields an empty mapping.
func readDocument(path string) (*yaml.Node, error) {
	empty := &yaml.Node{
		Kind:    yaml.DocumentNode,
		Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := ValidateYAMLSyntaxFromBytes(data, path); err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return empty, nil
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, &ValidationError{Source: path, Message: "top level must be a mapping"}
	}
	return &doc, nil
}

// setMappingValue replaces the value of key in mapping m and reports whether
// the key was present. Head and line comments on the old value are kept.
func setMappingValue(m *yaml.Node, key string, value *yaml.Node) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		old := m.Content[i+1]
		value.HeadComment = old.HeadComment
		value.LineComment = old.LineComment
		m.Content[i+1] = value
		return true
	}
	return false
}
