// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"path"
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// IsWindows reports whether goos names the Windows family.
func IsWindows(goos string) bool { return goos == Windows }

// Current returns the GOOS of the running binary. Components that branch on
// the platform take the value as a field so tests can exercise both families.
func Current() string { return runtime.GOOS }

// Join joins path elements with the separator of goos rather than the host,
// so paths for the other family can be computed (and tested) anywhere.
func Join(goos string, elem ...string) string {
	if !IsWindows(goos) {
		return path.Join(elem...)
	}
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		if i > 0 {
			e = strings.TrimLeft(e, `\/`)
		}
		if i < len(elem)-1 {
			e = strings.TrimRight(e, `\/`)
		}
		if e != "" {
			parts = append(parts, e)
		}
	}
	return strings.Join(parts, `\`)
}
