package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Key path (e.g., "per_page")
	Type          ConfigValueType // Expected value type for validation
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"owner": {
		Path:        "owner",
		Type:        TypeString,
		Description: "Repository owner (falls back to username, then the git origin remote)",
		Default:     "",
	},
	"repo": {
		Path:        "repo",
		Type:        TypeString,
		Description: "Repository name (falls back to the git origin remote)",
		Default:     "",
	},
	"base_url": {
		Path:        "base_url",
		Type:        TypeString,
		Description: "API base URL for GitHub Enterprise",
		Default:     "",
	},
	"username": {
		Path:        "username",
		Type:        TypeString,
		Description: "Basic auth user",
		Default:     "",
	},
	"password": {
		Path:        "password",
		Type:        TypeString,
		Description: "Basic auth password (requires username)",
		Default:     "",
	},
	"token": {
		Path:        "token",
		Type:        TypeString,
		Description: "Access token (GITHUB_TOKEN is used when unset)",
		Default:     "",
	},
	"labels": {
		Path:        "labels",
		Type:        TypeList,
		Description: "Comma separated labels every item must carry",
		Default:     []string{},
	},
	"merged": {
		Path:        "merged",
		Type:        TypeBool,
		Description: "Drop pull requests that were closed without merging",
		Default:     false,
	},
	"merge_check": {
		Path:          "merge_check",
		Type:          TypeEnum,
		AllowedValues: []string{"events", "api"},
		Description:   "How merged status is decided",
		Default:       "events",
	},
	"file": {
		Path:        "file",
		Type:        TypeString,
		Description: "Changelog file to prepend to; its modification time is the default cutoff",
		Default:     "",
	},
	"header": {
		Path:        "header",
		Type:        TypeString,
		Description: "Heading line of the generated section",
		Default:     "",
	},
	"template": {
		Path:        "template",
		Type:        TypeString,
		Description: "Custom text/template file",
		Default:     "",
	},
	"format": {
		Path:          "format",
		Type:          TypeEnum,
		AllowedValues: []string{"markdown", "html"},
		Description:   "Output document format",
		Default:       "markdown",
	},
	"cache": {
		Path:        "cache",
		Type:        TypeString,
		Description: "Event cache path (.db/.sqlite selects SQLite)",
		Default:     "",
	},
	"per_page": {
		Path:        "per_page",
		Type:        TypeInt,
		Description: "Page size for API requests (1-100)",
		Default:     100,
	},
	"parallelism": {
		Path:        "parallelism",
		Type:        TypeInt,
		Description: "Workers for closure attribution (positive integer)",
		Default:     4,
	},
	"log_level": {
		Path:          "log_level",
		Type:          TypeEnum,
		AllowedValues: []string{"trace", "debug", "info", "warn", "error", "disabled"},
		Description:   "Minimum log level",
		Default:       "warn",
	},
	"log_format": {
		Path:          "log_format",
		Type:          TypeEnum,
		AllowedValues: []string{"auto", "console", "json"},
		Description:   "Log output format",
		Default:       "auto",
	},
}

// SortedKeys returns the known key paths in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// ParsedValue represents a configuration value after type inference and validation.
type ParsedValue struct {
	Raw    string      // Original string input from user
	Parsed interface{} // Value converted to correct type
	Type   ConfigValueType
}

// ValidateValue validates a value against the schema for a given key.
// Returns the parsed value or an error with details about what's wrong.
func ValidateValue(key, value string) (ParsedValue, error) {
	schema, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return validateAgainstSchema(schema, value)
}

// validateAgainstSchema validates a value against a specific schema.
func validateAgainstSchema(schema ConfigKeySchema, value string) (ParsedValue, error) {
	switch schema.Type {
	case TypeBool:
		return parseBoolValue(value)
	case TypeInt:
		return parseIntValue(value)
	case TypeList:
		return parseListValue(value)
	case TypeEnum:
		return parseEnumValue(schema, value)
	case TypeString:
		return ParsedValue{Raw: value, Parsed: value, Type: TypeString}, nil
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", schema.Type)
	}
}

// parseBoolValue parses and validates a boolean value.
func parseBoolValue(value string) (ParsedValue, error) {
	switch strings.ToLower(value) {
	case "true":
		return ParsedValue{Raw: value, Parsed: true, Type: TypeBool}, nil
	case "false":
		return ParsedValue{Raw: value, Parsed: false, Type: TypeBool}, nil
	default:
		return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
	}
}

// parseIntValue parses and validates an integer value.
func parseIntValue(value string) (ParsedValue, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("invalid integer: %q", value)
	}
	return ParsedValue{Raw: value, Parsed: n, Type: TypeInt}, nil
}

// parseListValue splits a comma separated value, dropping empty entries.
func parseListValue(value string) (ParsedValue, error) {
	items := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return ParsedValue{Raw: value, Parsed: items, Type: TypeList}, nil
}

// parseEnumValue validates a value against allowed enum options.
func parseEnumValue(schema ConfigKeySchema, value string) (ParsedValue, error) {
	for _, allowed := range schema.AllowedValues {
		if value == allowed {
			return ParsedValue{Raw: value, Parsed: value, Type: TypeEnum}, nil
		}
	}
	return ParsedValue{}, fmt.Errorf(
		"invalid value: %q (valid options: %s)",
		value,
		strings.Join(schema.AllowedValues, ", "),
	)
}
