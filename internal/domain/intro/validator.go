// Package intro implements the acceptance heuristic for self-introductions.
// Pure and deterministic - no I/O, no external dependencies.
package intro

import (
	"regexp"
	"strings"
)

// MinLength is the minimum trimmed length of an acceptable intro.
const MinLength = 50

// Reason explains why an intro was rejected.
type Reason string

const (
	// ReasonTooShort - the text is below the minimum length.
	ReasonTooShort Reason = "too_short"
	// ReasonMissingFormat - the text matched fewer than two marker categories.
	ReasonMissingFormat Reason = "missing_format"
)

// Result is the verdict of the validator.
type Result struct {
	Accepted bool
	Reason   Reason
}

// formatMarkers are the semantic marker categories an intro is scanned
// against. Each pattern counts at most once, however often it matches.
var formatMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)based\s+in`),
	regexp.MustCompile(`(?i)fun\s+fact`),
	regexp.MustCompile(`(?i)contribut`),
	regexp.MustCompile(`(?i)looking\s+to`),
	regexp.MustCompile(`(?i)who\s+(am\s+i|i\s+am|are\s+you)`),
	regexp.MustCompile(`(?i)what\s+(i|do\s+you)\s+do`),
	regexp.MustCompile(`(?i)i('m|\s+am)\s`),
}

// MarkerCategories is the number of distinct marker categories.
const MarkerCategories = 7

// minMarkers is how many distinct categories an intro must hit.
const minMarkers = 2

// Validate judges whether text qualifies as a self-introduction.
//
// Texts shorter than MinLength (after trimming) are rejected as too_short.
// Longer texts must match at least two distinct marker categories to be
// accepted; otherwise they are rejected as missing_format.
func Validate(text string) Result {
	if len(strings.TrimSpace(text)) < MinLength {
		return Result{Accepted: false, Reason: ReasonTooShort}
	}

	markerCount := 0
	for _, marker := range formatMarkers {
		if marker.MatchString(text) {
			markerCount++
		}
	}

	if markerCount < minMarkers {
		return Result{Accepted: false, Reason: ReasonMissingFormat}
	}

	return Result{Accepted: true}
}
