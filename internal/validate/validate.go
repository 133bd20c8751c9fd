// Package validate checks question/answer submissions before anything is
// encoded or sent to the scoring service.
package validate

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Answer length limits seen across deployments. Neither is authoritative, so
// the active one is configuration.
const (
	MaxAnswerLength512  = 512
	MaxAnswerLength1024 = 1024
)

// CJK Unified Ideographs.
const (
	cjkFirst = '\u4e00'
	cjkLast  = '\u9fff'
)

var (
	ErrAnswerTooLong = errors.New("answer too long")
	ErrNoChinese     = errors.New("no chinese characters")
)

// ValidationError reports which field failed and why. Reason is one of the
// sentinel errors above so callers can use errors.Is.
type ValidationError struct {
	Field  string
	Reason error
	Limit  int
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Reason, ErrAnswerTooLong) {
		return fmt.Sprintf("validate %s: %v (limit %d characters)", e.Field, e.Reason, e.Limit)
	}
	return fmt.Sprintf("validate %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

// Validator holds the per-deployment rules. The zero value accepts anything.
type Validator struct {
	// MaxAnswerLength is counted in characters (code points); 0 disables the check.
	MaxAnswerLength int
	// RequireChinese rejects a question or answer without any CJK ideograph.
	RequireChinese bool
}

// Validate returns a *ValidationError for the first rule that fails. The
// answer length is checked first, then the question and answer script.
func (v Validator) Validate(question, answer string) error {
	if v.MaxAnswerLength > 0 && utf8.RuneCountInString(answer) > v.MaxAnswerLength {
		return &ValidationError{Field: "answer", Reason: ErrAnswerTooLong, Limit: v.MaxAnswerLength}
	}
	if v.RequireChinese {
		if !ContainsChinese(question) {
			return &ValidationError{Field: "question", Reason: ErrNoChinese}
		}
		if !ContainsChinese(answer) {
			return &ValidationError{Field: "answer", Reason: ErrNoChinese}
		}
	}
	return nil
}

// ContainsChinese reports whether s has at least one rune in U+4E00..U+9FFF.
// Compatibility ideographs are folded with NFKC first, so U+F90C counts.
func ContainsChinese(s string) bool {
	if hasCJK(s) {
		return true
	}
	if norm.NFKC.IsNormalString(s) {
		return false
	}
	return hasCJK(norm.NFKC.String(s))
}

func hasCJK(s string) bool {
	for _, r := range s {
		if r >= cjkFirst && r <= cjkLast {
			return true
		}
	}
	return false
}
