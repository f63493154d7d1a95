// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bqinstall/bqinstall/internal/pip"
)

// ErrNoCompatibleBinary is the sentinel wrapped by NoCompatibleBinaryError.
var ErrNoCompatibleBinary = errors.New("no compatible prebuilt binary")

type (
	// WheelPair is a PyOpenGL wheel and its matching accelerator wheel.
	WheelPair struct {
		GL         string
		Accelerate string
	}

	// NoCompatibleBinaryError reports that no table entry matched any of the
	// Supported tags.
	NoCompatibleBinaryError struct {
		Supported int
	}
)

// windowsWheels lists the unofficial Windows builds, newest first. Order is
// the tie-break: the first entry the interpreter supports is used, even when
// a later one would also match.
var windowsWheels = []WheelPair{
	{"PyOpenGL-3.1.5-pp37-pypy37_pp73-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-pp37-pypy37_pp73-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp310-cp310-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp310-cp310-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp310-cp310-win32.whl", "PyOpenGL_accelerate-3.1.5-cp310-cp310-win32.whl"},
	{"PyOpenGL-3.1.5-cp39-cp39-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp39-cp39-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp39-cp39-win32.whl", "PyOpenGL_accelerate-3.1.5-cp39-cp39-win32.whl"},
	{"PyOpenGL-3.1.5-cp38-cp38-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp38-cp38-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp38-cp38-win32.whl", "PyOpenGL_accelerate-3.1.5-cp38-cp38-win32.whl"},
	{"PyOpenGL-3.1.5-cp37-cp37m-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp37-cp37m-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp37-cp37m-win32.whl", "PyOpenGL_accelerate-3.1.5-cp37-cp37m-win32.whl"},
	{"PyOpenGL-3.1.5-cp36-cp36m-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp36-cp36m-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp36-cp36m-win32.whl", "PyOpenGL_accelerate-3.1.5-cp36-cp36m-win32.whl"},
	{"PyOpenGL-3.1.5-cp35-cp35m-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp35-cp35m-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp35-cp35m-win32.whl", "PyOpenGL_accelerate-3.1.5-cp35-cp35m-win32.whl"},
	{"PyOpenGL-3.1.5-cp27-cp27m-win_amd64.whl", "PyOpenGL_accelerate-3.1.5-cp27-cp27m-win_amd64.whl"},
	{"PyOpenGL-3.1.5-cp27-cp27m-win32.whl", "PyOpenGL_accelerate-3.1.5-cp27-cp27m-win32.whl"},
	{"PyOpenGL-3.1.3b2-cp34-cp34m-win_amd64.whl", "PyOpenGL_accelerate-3.1.3b2-cp34-cp34m-win_amd64.whl"},
	{"PyOpenGL-3.1.3b2-cp34-cp34m-win32.whl", "PyOpenGL_accelerate-3.1.3b2-cp34-cp34m-win32.whl"},
}

// WindowsWheels returns a copy of the wheel table in selection order.
func WindowsWheels() []WheelPair {
	return append([]WheelPair(nil), windowsWheels...)
}

func (e *NoCompatibleBinaryError) Error() string {
	return fmt.Sprintf("none of the known PyOpenGL wheels matches the %d tags this interpreter supports", e.Supported)
}

func (e *NoCompatibleBinaryError) Unwrap() error { return ErrNoCompatibleBinary }

// ParseWheelName splits name-version-interp-abi-platform.whl.
func ParseWheelName(file string) (dist, version string, tag pip.Tag, err error) {
	base, ok := strings.CutSuffix(file, ".whl")
	if !ok {
		return "", "", pip.Tag{}, fmt.Errorf("%q is not a wheel", file)
	}
	parts := strings.Split(base, "-")
	if len(parts) < 5 {
		return "", "", pip.Tag{}, fmt.Errorf("malformed wheel name %q", file)
	}
	n := len(parts)
	tag = pip.Tag{Interpreter: parts[n-3], ABI: parts[n-2], Platform: parts[n-1]}
	return parts[0], parts[1], tag, nil
}

// Select returns the first pair in table order whose tag is supported, and
// its version. Both wheels of a pair must carry the same tag.
func Select(table []WheelPair, supported []pip.Tag) (WheelPair, string, error) {
	ok := make(map[pip.Tag]bool, len(supported))
	for _, t := range supported {
		ok[t] = true
	}

	for _, pair := range table {
		_, version, tag, err := ParseWheelName(pair.GL)
		if err != nil {
			return WheelPair{}, "", err
		}
		_, _, accelTag, err := ParseWheelName(pair.Accelerate)
		if err != nil {
			return WheelPair{}, "", err
		}
		if tag != accelTag {
			return WheelPair{}, "", fmt.Errorf("wheel pair %q / %q has mismatched tags", pair.GL, pair.Accelerate)
		}
		if ok[tag] {
			return pair, version, nil
		}
	}
	return WheelPair{}, "", &NoCompatibleBinaryError{Supported: len(supported)}
}

// DownloadURL places file under base. CPython 3.5 and 3.6 builds live in a
// per-interpreter subdirectory.
func DownloadURL(base, file string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	switch {
	case strings.Contains(file, "-cp36-"):
		return base + "cp36/" + file
	case strings.Contains(file, "-cp35-"):
		return base + "cp35/" + file
	default:
		return base + file
	}
}
