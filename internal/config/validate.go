package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError locates a configuration problem: a YAML syntax error
// (Line and Column set) or a rejected value (Key set).
type ValidationError struct {
	Source  string
	Line    int
	Column  int
	Key     string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Source, e.Line, e.Column, e.Message)
	case e.Key != "":
		return fmt.Sprintf("%s: %s %s", e.Source, e.Key, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Source, e.Message)
	}
}

// validate checks the struct tags of Configuration. Fields are reported by
// their config key.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(koanfTagName)
	return v
}()

var yamlPosition = regexp.MustCompile(`^yaml: line (\d+):(?: column (\d+):)?\s*(.*)$`)

// ValidateYAMLSyntax checks the YAML syntax of the file at path. A missing
// or blank file is valid; the defaults apply.
func ValidateYAMLSyntax(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &ValidationError{Source: path, Message: err.Error()}
	}
	return ValidateYAMLSyntaxFromBytes(data, path)
}

// ValidateYAMLSyntaxFromBytes is ValidateYAMLSyntax for data already read
// from source.
func ValidateYAMLSyntaxFromBytes(data []byte, source string) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return syntaxError(source, err)
	}
	return nil
}

func syntaxError(source string, err error) *ValidationError {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Source: source, Message: strings.Join(typeErr.Errors, "; ")}
	}
	line, column, msg := splitYAMLError(err.Error())
	return &ValidationError{Source: source, Line: line, Column: column, Message: msg}
}

// splitYAMLError separates the position yaml.v3 puts in front of its
// messages. Column is 1 when only the line is known.
func splitYAMLError(msg string) (line, column int, text string) {
	m := yamlPosition.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0, strings.TrimPrefix(msg, "yaml: ")
	}
	line, _ = strconv.Atoi(m[1])
	column = 1
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return line, column, m[3]
}

// ValidateConfigValues checks value constraints. Every rejected key is
// reported; errors.As yields the first one.
func ValidateConfigValues(cfg *Configuration, source string) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Source: source, Message: err.Error()}
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &ValidationError{Source: source, Key: fe.Field(), Message: describeRule(fe)})
	}
	return errors.Join(errs...)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("fails the %q rule", fe.Tag())
	}
}

// koanfTagName reports fields by their config key, e.g. per_page.
func koanfTagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
