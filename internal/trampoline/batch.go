// SPDX-License-Identifier: MPL-2.0

package trampoline

import (
	"fmt"
	"os"
	"strings"

	"github.com/bqinstall/bqinstall/internal/conda"
)

// batch writes cmd.exe scripts. Each step is followed by an errorlevel check
// so a failing activation or command ends the script with status 1.
type batch struct{}

const crlf = "\r\n"

// cmdSpecial are characters that need quoting on a cmd.exe command line.
const cmdSpecial = " \t&|<>^()!,;="

func (batch) extension() string { return ".bat" }

func (batch) mode() os.FileMode { return 0o644 }

func (batch) invocation(file string) []string { return []string{file} }

func (batch) render(activate string, env conda.Environment, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command")
	}

	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		q, err := quoteCmd(a)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	act, err := quoteCmd(activate)
	if err != nil {
		return "", err
	}
	name, err := quoteCmd(env.String())
	if err != nil {
		return "", err
	}

	lines := []string{
		"@echo off",
		"@call " + act + " " + name,
		"if errorlevel 1 exit 1",
		strings.Join(quoted, " "),
		"if errorlevel 1 exit 1",
	}
	return strings.Join(lines, crlf) + crlf, nil
}

// quoteCmd quotes s for a line of a batch file. Percent signs are doubled
// because cmd.exe expands %VAR% in batch files even inside quotes.
func quoteCmd(s string) (string, error) {
	if strings.ContainsAny(s, "\"\r\n") {
		return "", fmt.Errorf("cannot quote %q for cmd.exe", s)
	}
	if s == "" {
		return `""`, nil
	}
	s = strings.ReplaceAll(s, "%", "%%")
	if strings.ContainsAny(s, cmdSpecial) {
		return `"` + s + `"`, nil
	}
	return s, nil
}
