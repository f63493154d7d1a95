// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsWindowsReservedName(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"CON":                   true,
		"nul":                   true,
		"com1.sh":               true,
		"LPT9.bat":              true,
		".bqinstall.trampoline": false,
		"console":               false,
		"COM10":                 false,
		"":                      false,
	}
	for name, want := range tests {
		if got := IsWindowsReservedName(name); got != want {
			t.Errorf("IsWindowsReservedName(%q) = %v, want %v", name, got, want)
		}
	}
}
