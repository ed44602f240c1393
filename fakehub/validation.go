package fakehub

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxMethods         = 200
	maxParams          = 32
	maxIdentifierChars = 100
)

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var reservedKeywords = map[string]bool{
	"true": true, "false": true, "null": true,
	"if": true, "else": true, "for": true, "while": true, "break": true, "continue": true, "return": true,
	"var": true, "let": true, "const": true, "function": true,
	"in": true, "as": true, "import": true, "package": true, "namespace": true, "loop": true, "void": true,
}

// ValidateName checks a fake name.
func ValidateName(name string) error {
	if err := validateIdentifier(name); err != nil {
		return fmt.Errorf("invalid fake name %q: %w", name, err)
	}
	return nil
}

// ValidateDefinition returns an error describing the first problem in def.
func ValidateDefinition(def Definition) error {
	if len(def) == 0 {
		return fmt.Errorf("definition cannot be empty, must contain at least one method")
	}
	if len(def) > maxMethods {
		return fmt.Errorf("definition contains %d methods, maximum allowed is %d", len(def), maxMethods)
	}

	for _, name := range def.Names() {
		spec := def[name]
		if err := validateIdentifier(name); err != nil {
			return fmt.Errorf("invalid method name %q: %w", name, err)
		}

		if len(spec.Params) > maxParams {
			return fmt.Errorf("method %q has %d parameters, maximum allowed is %d", name, len(spec.Params), maxParams)
		}
		for i, p := range spec.Params {
			if err := validateTypeName(p); err != nil {
				return fmt.Errorf("parameter %d of method %q: %w", i, name, err)
			}
		}

		if spec.Returns != "" {
			if err := validateTypeName(spec.Returns); err != nil {
				return fmt.Errorf("return type of method %q: %w", name, err)
			}
		}

		if len(spec.OutParams) > 0 && spec.Returns == "" {
			return fmt.Errorf("method %q declares out parameters without a return type", name)
		}
		for i, p := range spec.OutParams {
			if err := validateTypeName(p); err != nil {
				return fmt.Errorf("out parameter %d of method %q: %w", i, name, err)
			}
		}
	}
	return nil
}

func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxIdentifierChars {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxIdentifierChars)
	}
	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("must match pattern %s (start with letter or underscore, followed by letters, digits, or underscores)", validIdentifier)
	}
	if reservedKeywords[name] {
		return fmt.Errorf("cannot use reserved keyword %q as identifier", name)
	}
	return nil
}

func validateTypeName(typeName string) error {
	if typeName == "" {
		return fmt.Errorf("type name cannot be empty")
	}
	if strings.TrimSpace(typeName) != typeName {
		return fmt.Errorf("type %q has leading/trailing whitespace", typeName)
	}
	if _, ok := typesByName[typeName]; !ok {
		return fmt.Errorf("invalid type %q (must be one of: int, int64, float64, string, bool, bytes, timestamp, duration, any)", typeName)
	}
	return nil
}
