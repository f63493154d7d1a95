// SPDX-License-Identifier: MPL-2.0

package trampoline

import (
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/bqinstall/bqinstall/internal/conda"
)

// bash writes POSIX scripts. A failed activation ends the script with
// status 1 before the command runs.
type bash struct{}

func (bash) extension() string { return ".sh" }

func (bash) mode() os.FileMode { return 0o755 }

func (bash) invocation(file string) []string { return []string{"./" + file} }

func (bash) render(activate string, env conda.Environment, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote %q: %w", a, err)
		}
		quoted = append(quoted, q)
	}
	act, err := syntax.Quote(activate, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q: %w", activate, err)
	}
	name, err := syntax.Quote(env.String(), syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote %q: %w", env, err)
	}

	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	fmt.Fprintf(&b, "source %s %s || exit 1\n", act, name)
	b.WriteString(strings.Join(quoted, " "))
	b.WriteString("\n")

	script := b.String()
	if _, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(script), "trampoline"); err != nil {
		return "", fmt.Errorf("script syntax error: %w", err)
	}
	return script, nil
}
