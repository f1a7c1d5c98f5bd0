package requirements

import (
	"fmt"
	"strings"
)

// Operator is a version comparison operator in a dependency specifier.
type Operator string

// Recognized comparison operators.
const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
)

// Specifier is a single parsed dependency line: a package name, a
// comparison operator and a version.
type Specifier struct {
	// Name is the package name as written in the manifest.
	Name string

	// Normalized is the canonical form of Name used for comparisons.
	Normalized string

	// Operator is the version comparison operator.
	Operator Operator

	// Version is the version the operator compares against.
	Version Version

	// Line is the 1-based manifest line the specifier was parsed from.
	Line int
}

// String renders the specifier in canonical form: normalized name,
// operator, version, no whitespace.
func (s *Specifier) String() string {
	return s.Normalized + string(s.Operator) + s.Version.String()
}

// NormalizeName lowercases a package name and collapses runs of the
// separator characters "-", "_" and "." into single dashes, so "My__Pack",
// "my-pack" and "MY.PACK" all name the same package.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	separator := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			separator = true
			continue
		}
		if separator {
			b.WriteByte('-')
			separator = false
		}
		b.WriteRune(r)
	}

	return b.String()
}

// validateName checks the package name character set: letters, digits,
// ".", "_" and "-", starting alphanumeric.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	for i, r := range name {
		alnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if i == 0 {
			if !alnum {
				return fmt.Errorf("%w: %q must start with a letter or digit", ErrInvalidName, name)
			}
			continue
		}
		if !alnum && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}

// operatorRunes are the characters that can open an operator token.
const operatorRunes = "<>=!~"

// parseSpecifier parses one non-blank, non-comment manifest line.
func parseSpecifier(line string, lineNumber int) (*Specifier, error) {
	// Syntax this format deliberately does not carry over from pip
	if strings.ContainsRune(line, '[') {
		return nil, fmt.Errorf("%w: extras are not supported", ErrUnsupportedSyntax)
	}
	if strings.ContainsRune(line, ';') {
		return nil, fmt.Errorf("%w: environment markers are not supported", ErrUnsupportedSyntax)
	}
	if strings.Contains(line, "@") || strings.Contains(line, "://") {
		return nil, fmt.Errorf("%w: URL specifiers are not supported", ErrUnsupportedSyntax)
	}

	opStart := strings.IndexAny(line, operatorRunes)
	if opStart < 0 {
		return nil, fmt.Errorf("%w: no operator in %q", ErrInvalidOperator, line)
	}

	name := strings.TrimSpace(line[:opStart])
	if err := validateName(name); err != nil {
		return nil, err
	}

	// The operator token is the maximal run of operator characters
	opEnd := opStart
	for opEnd < len(line) && strings.ContainsRune(operatorRunes, rune(line[opEnd])) {
		opEnd++
	}

	operator, ok := recognizeOperator(line[opStart:opEnd])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperator, line[opStart:opEnd])
	}

	version, err := ParseVersion(strings.TrimSpace(line[opEnd:]))
	if err != nil {
		return nil, err
	}

	return &Specifier{
		Name:       name,
		Normalized: NormalizeName(name),
		Operator:   operator,
		Version:    version,
		Line:       lineNumber,
	}, nil
}

func recognizeOperator(token string) (Operator, bool) {
	switch Operator(token) {
	case OpEqual, OpNotEqual, OpGreaterEqual, OpLessEqual, OpGreater, OpLess:
		return Operator(token), true
	}
	return "", false
}
