// SPDX-License-Identifier: MPL-2.0

// Package extract pulls single values out of the human-readable output of
// conda and pip.
package extract

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrAmbiguousOutput is the sentinel wrapped by AmbiguousOutputError.
var ErrAmbiguousOutput = errors.New("ambiguous command output")

// AmbiguousOutputError reports that a value expected exactly once was found
// Count times.
type AmbiguousOutputError struct {
	What  string
	Count int
}

func (e *AmbiguousOutputError) Error() string {
	return fmt.Sprintf("expected exactly one %s in command output, found %d", e.What, e.Count)
}

func (e *AmbiguousOutputError) Unwrap() error { return ErrAmbiguousOutput }

// One returns the first capture group of the only line of output matching
// re. The pattern is applied in multi-line mode, so ^ and $ anchor to lines.
// Zero matches or more than one match is an error; the first match is never
// picked silently.
func One(output string, re *regexp.Regexp, what string) (string, error) {
	matches := re.FindAllStringSubmatch(output, -1)
	if len(matches) != 1 {
		return "", &AmbiguousOutputError{What: what, Count: len(matches)}
	}
	m := matches[0]
	if len(m) < 2 {
		return m[0], nil
	}
	return m[1], nil
}

// Line compiles a pattern for One with multi-line anchors enabled.
func Line(pattern string) *regexp.Regexp {
	return regexp.MustCompile("(?m)" + pattern)
}
