// SPDX-License-Identifier: MPL-2.0

// Package runnertest provides a scripted runner.Commander for tests.
package runnertest

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/bqinstall/bqinstall/internal/runner"
	"github.com/bqinstall/bqinstall/pkg/types"
)

type (
	// Call is one recorded invocation.
	Call struct {
		Argv     []string
		Settings runner.Settings
	}

	// Response is returned for calls whose argv starts with Prefix.
	Response struct {
		Prefix   []string
		Stdout   string
		Stderr   string
		ExitCode int
		// Do runs before the response is returned, e.g. to create the
		// directory a clone would have produced.
		Do func(Call) error
	}

	// Fake records calls and answers them from a list of responses. The
	// first response whose prefix matches wins; unmatched calls succeed
	// with empty output.
	Fake struct {
		mu        sync.Mutex
		responses []Response
		calls     []Call
	}
)

// New returns an empty Fake.
func New() *Fake { return &Fake{} }

// On registers a successful response with the given stdout.
func (f *Fake) On(stdout string, prefix ...string) *Fake {
	return f.Add(Response{Prefix: prefix, Stdout: stdout})
}

// Fail registers a failing response.
func (f *Fake) Fail(code int, prefix ...string) *Fake {
	return f.Add(Response{Prefix: prefix, ExitCode: code})
}

// Add registers an arbitrary response.
func (f *Fake) Add(r Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, r)
	return f
}

// Run implements runner.Commander.
func (f *Fake) Run(_ context.Context, argv []string, opts ...runner.Option) (runner.Result, error) {
	call := Call{Argv: slices.Clone(argv), Settings: runner.Apply(opts...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	var resp *Response
	for i := range f.responses {
		if hasPrefix(argv, f.responses[i].Prefix) {
			resp = &f.responses[i]
			break
		}
	}
	f.mu.Unlock()

	if resp == nil {
		return runner.Result{}, nil
	}
	if resp.Do != nil {
		if err := resp.Do(call); err != nil {
			return runner.Result{}, err
		}
	}
	res := runner.Result{Stdout: resp.Stdout, Stderr: resp.Stderr}
	if resp.ExitCode != 0 {
		return res, &runner.ExecutionFailure{
			Command:  call.Argv,
			ExitCode: types.ExitCode(resp.ExitCode),
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
		}
	}
	return res, nil
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Commands returns each recorded argv joined by spaces.
func (f *Fake) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = strings.Join(c.Argv, " ")
	}
	return out
}

func hasPrefix(argv, prefix []string) bool {
	return len(argv) >= len(prefix) && slices.Equal(argv[:len(prefix)], prefix)
}
