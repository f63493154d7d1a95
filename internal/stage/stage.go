// SPDX-License-Identifier: MPL-2.0

// Package stage drives the install pipeline as a small state machine whose
// transitions are performed by re-executing the program in a freshly
// activated environment.
package stage

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Prepare is the initial stage a user starts in.
	Prepare Stage = "prepare_environment"
	// ExecuteBuild builds and installs the extension; entered by relaunch only.
	ExecuteBuild Stage = "execute_build"
	// Validate runs the test suite; entered by relaunch only.
	Validate Stage = "validate_build"
)

// ErrInvalidStage is the sentinel wrapped by InvalidStageError.
var ErrInvalidStage = errors.New("invalid stage")

type (
	// Stage is a pipeline state. Its value is what --stage carries.
	Stage string

	// InvalidStageError is returned for an unknown stage marker.
	InvalidStageError struct {
		Value string
	}

	// Transition is one relaunch performed by a stage. Scoped transitions run
	// inside the recipe's prepare scope; the rest run after it is released.
	Transition struct {
		To     Stage
		Scoped bool
	}
)

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{Prepare, ExecuteBuild, Validate}
}

// ParseStage parses a --stage value. The empty string means Prepare.
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return Prepare, nil
	}
	st := Stage(s)
	if !st.IsValid() {
		return "", &InvalidStageError{Value: s}
	}
	return st, nil
}

func (s Stage) String() string { return string(s) }

// IsValid reports whether s names a known stage.
func (s Stage) IsValid() bool {
	switch s {
	case Prepare, ExecuteBuild, Validate:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s performs no further transitions.
func (s Stage) IsTerminal() bool {
	return len(Transitions(s)) == 0
}

func (e *InvalidStageError) Error() string {
	names := make([]string, 0, 3)
	for _, s := range Stages() {
		names = append(names, s.String())
	}
	return fmt.Sprintf("invalid stage %q (valid: %s)", e.Value, strings.Join(names, ", "))
}

func (e *InvalidStageError) Unwrap() error { return ErrInvalidStage }

// Transitions returns the relaunches stage s performs, in order. Only
// Prepare transitions; the relaunched stages are terminal.
func Transitions(s Stage) []Transition {
	if s == Prepare {
		return []Transition{
			{To: ExecuteBuild, Scoped: true},
			{To: Validate, Scoped: false},
		}
	}
	return nil
}
