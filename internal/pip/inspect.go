// SPDX-License-Identifier: MPL-2.0

package pip

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
)

const (
	probeLegacy  = "!legacy"
	probeMissing = "!missing"

	// versionProbe prints the installed version of the distribution named
	// in argv[1] via importlib.metadata, or a marker when the module or
	// distribution is absent. It is one line so it survives cmd /C.
	versionProbe = `import sys,importlib.util as u; m=__import__('importlib.metadata',fromlist=['x']) if u.find_spec('importlib.metadata') else None; d=[x for x in (m.distributions() if m else []) if (x.metadata['Name'] or '').lower()==sys.argv[1].lower()]; print('` + probeLegacy + `' if m is None else (d[0].version if d else '` + probeMissing + `'))`

	// legacyTagsProbe lists supported tags with the pre-19.2 internal API.
	legacyTagsProbe = `from pip._internal.pep425tags import get_supported; print('\n'.join('-'.join(t) for t in get_supported()))`
)

// ErrNoCompatibleTags is returned when pip reports no supported tags.
var ErrNoCompatibleTags = errors.New("pip reported no compatible tags")

// Tag is a wheel compatibility tag (cp38, cp38, win_amd64).
type Tag struct {
	Interpreter string
	ABI         string
	Platform    string
}

func (t Tag) String() string {
	return t.Interpreter + "-" + t.ABI + "-" + t.Platform
}

// ParseTag parses "interp-abi-platform".
func ParseTag(s string) (Tag, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Tag{}, fmt.Errorf("malformed compatibility tag %q", s)
	}
	return Tag{Interpreter: parts[0], ABI: parts[1], Platform: parts[2]}, nil
}

// CompatibleTags returns the tags the interpreter supports, most preferred
// first, from "pip debug --verbose". Older pips without the debug command
// are asked through their internal API instead.
func (c *Client) CompatibleTags(ctx context.Context) ([]Tag, error) {
	out, err := runner.Output(ctx, c.cmd, []string{c.python, "-m", "pip", "debug", "--verbose"})
	if err != nil {
		c.logger.Debug("pip debug unavailable, trying legacy tag API", "err", err)
		legacy, lerr := runner.Output(ctx, c.cmd, []string{c.python, "-c", legacyTagsProbe})
		if lerr != nil {
			return nil, issue.WrapWithOperation(errors.Join(err, lerr), "determine compatible wheel tags")
		}
		return parseTagLines(legacy)
	}
	return parseDebugTags(out)
}

func parseDebugTags(out string) ([]Tag, error) {
	_, after, found := strings.Cut(out, "Compatible tags:")
	if !found {
		return nil, issue.NewErrorContext().
			WithOperation("parse pip debug output").
			WithIssue(issue.AmbiguousOutputId).
			Wrap(ErrNoCompatibleTags).
			BuildError()
	}
	// Skip the remainder of the header line ("Compatible tags: 27").
	if _, rest, ok := strings.Cut(after, "\n"); ok {
		after = rest
	} else {
		after = ""
	}
	return parseTagLines(after)
}

func parseTagLines(out string) ([]Tag, error) {
	var tags []Tag
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tag, err := ParseTag(line)
		if err != nil {
			// pip appends notes such as "...[First 10 tags shown. ...]".
			continue
		}
		tags = append(tags, tag)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrNoCompatibleTags
	}
	return tags, nil
}

// PackageVersion returns the installed version of dist and whether it is
// installed. It asks importlib.metadata first and falls back to scanning
// pip list on interpreters without it.
func (c *Client) PackageVersion(ctx context.Context, dist string) (string, bool, error) {
	out, err := runner.Output(ctx, c.cmd, []string{c.python, "-c", versionProbe, dist})
	if err == nil {
		switch v := strings.TrimSpace(out); v {
		case probeMissing:
			return "", false, nil
		case probeLegacy, "":
		default:
			return v, true, nil
		}
	} else {
		c.logger.Debug("metadata probe failed, falling back to pip list", "err", err)
	}

	list, err := runner.Output(ctx, c.cmd, []string{c.pip, "list"})
	if err != nil {
		return "", false, issue.WrapWithOperation(err, "list installed packages")
	}
	sc := bufio.NewScanner(strings.NewReader(list))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 2 && strings.EqualFold(fields[0], dist) {
			return fields[1], true, nil
		}
	}
	return "", false, sc.Err()
}
