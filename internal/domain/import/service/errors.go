package service

import (
	"fmt"
	"strings"
)

// MissingFieldError is returned when a required cell is absent or blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// InvalidAmountError is returned when the amount cell is not a decimal number
// or cannot be stored in the ledger currency. Err is set in the second case.
type InvalidAmountError struct {
	Raw string
	Err error
}

func (e *InvalidAmountError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid amount %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("invalid amount %q", e.Raw)
}

func (e *InvalidAmountError) Unwrap() error {
	return e.Err
}

// UnknownCategoryError is returned when a category is not found and may not be created.
type UnknownCategoryError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category %q not found%s", e.Name, didYouMean(e.Suggestions))
}

// UnknownAccountError is returned when an account is not found and may not be created.
type UnknownAccountError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account %q not found%s", e.Name, didYouMean(e.Suggestions))
}

func didYouMean(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return " (did you mean " + strings.Join(quoted, ", ") + "?)"
}
