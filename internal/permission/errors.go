package permission

import "fmt"

// ParseError represents an error parsing a permission rules file.
type ParseError struct {
	File    string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// RuleError represents an invalid rule definition.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("rule error: %s", e.Message)
}
