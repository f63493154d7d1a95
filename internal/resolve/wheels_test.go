// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/bqinstall/bqinstall/internal/pip"
)

func TestParseWheelName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		file    string
		dist    string
		version string
		tag     pip.Tag
		wantErr bool
	}{
		{
			file:    "PyOpenGL-3.1.5-cp38-cp38-win_amd64.whl",
			dist:    "PyOpenGL",
			version: "3.1.5",
			tag:     pip.Tag{Interpreter: "cp38", ABI: "cp38", Platform: "win_amd64"},
		},
		{
			file:    "PyOpenGL_accelerate-3.1.5-pp37-pypy37_pp73-win_amd64.whl",
			dist:    "PyOpenGL_accelerate",
			version: "3.1.5",
			tag:     pip.Tag{Interpreter: "pp37", ABI: "pypy37_pp73", Platform: "win_amd64"},
		},
		{file: "PyOpenGL-3.1.5.tar.gz", wantErr: true},
		{file: "PyOpenGL-cp38-win32.whl", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			t.Parallel()

			dist, version, tag, err := ParseWheelName(tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWheelName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if dist != tt.dist || version != tt.version || tag != tt.tag {
				t.Errorf("ParseWheelName() = %q, %q, %v", dist, version, tag)
			}
		})
	}
}

func TestWindowsWheelsTable(t *testing.T) {
	t.Parallel()

	table := WindowsWheels()
	if len(table) != 17 {
		t.Fatalf("len(table) = %d, want 17", len(table))
	}
	for _, pair := range table {
		for _, f := range []string{pair.GL, pair.Accelerate} {
			if strings.ContainsRune(f, '‑') {
				t.Errorf("%q contains a non-ASCII hyphen", f)
			}
		}
		_, _, glTag, err := ParseWheelName(pair.GL)
		if err != nil {
			t.Fatalf("ParseWheelName(%q) error = %v", pair.GL, err)
		}
		_, _, acTag, err := ParseWheelName(pair.Accelerate)
		if err != nil {
			t.Fatalf("ParseWheelName(%q) error = %v", pair.Accelerate, err)
		}
		if glTag != acTag {
			t.Errorf("pair %q has tags %v and %v", pair.GL, glTag, acTag)
		}
	}

	table[0].GL = "mutated"
	if WindowsWheels()[0].GL == "mutated" {
		t.Error("WindowsWheels() must return a copy")
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	tag := func(s string) pip.Tag {
		tg, err := pip.ParseTag(s)
		if err != nil {
			t.Fatal(err)
		}
		return tg
	}

	t.Run("table order wins over tag preference", func(t *testing.T) {
		t.Parallel()
		supported := []pip.Tag{tag("cp37-cp37m-win32"), tag("cp38-cp38-win_amd64")}
		pair, version, err := Select(windowsWheels, supported)
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if pair.GL != "PyOpenGL-3.1.5-cp38-cp38-win_amd64.whl" || version != "3.1.5" {
			t.Errorf("Select() = %v, %q", pair, version)
		}
	})

	t.Run("older release", func(t *testing.T) {
		t.Parallel()
		pair, version, err := Select(windowsWheels, []pip.Tag{tag("cp34-cp34m-win32")})
		if err != nil {
			t.Fatalf("Select() error = %v", err)
		}
		if pair.Accelerate != "PyOpenGL_accelerate-3.1.3b2-cp34-cp34m-win32.whl" || version != "3.1.3b2" {
			t.Errorf("Select() = %v, %q", pair, version)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		supported := []pip.Tag{tag("cp311-cp311-win_amd64"), tag("py3-none-any")}
		_, _, err := Select(windowsWheels, supported)
		if !errors.Is(err, ErrNoCompatibleBinary) {
			t.Fatalf("Select() error = %v, want ErrNoCompatibleBinary", err)
		}
		var nce *NoCompatibleBinaryError
		if !errors.As(err, &nce) || nce.Supported != 2 {
			t.Errorf("error = %#v", err)
		}
	})

	t.Run("mismatched pair", func(t *testing.T) {
		t.Parallel()
		table := []WheelPair{{"PyOpenGL-1-cp38-cp38-win32.whl", "PyOpenGL_accelerate-1-cp38-cp38-win_amd64.whl"}}
		if _, _, err := Select(table, []pip.Tag{tag("cp38-cp38-win32")}); err == nil {
			t.Error("Select() expected error for mismatched pair")
		}
	})
}

func TestDownloadURL(t *testing.T) {
	t.Parallel()

	const base = "https://download.example.org/pythonlibs/"
	tests := map[string]string{
		"PyOpenGL-3.1.5-cp38-cp38-win_amd64.whl":             base + "PyOpenGL-3.1.5-cp38-cp38-win_amd64.whl",
		"PyOpenGL-3.1.5-cp36-cp36m-win32.whl":                base + "cp36/PyOpenGL-3.1.5-cp36-cp36m-win32.whl",
		"PyOpenGL_accelerate-3.1.5-cp35-cp35m-win_amd64.whl": base + "cp35/PyOpenGL_accelerate-3.1.5-cp35-cp35m-win_amd64.whl",
		"PyOpenGL-3.1.3b2-cp34-cp34m-win32.whl":              base + "PyOpenGL-3.1.3b2-cp34-cp34m-win32.whl",
	}
	for file, want := range tests {
		if got := DownloadURL(base, file); got != want {
			t.Errorf("DownloadURL(%q) = %q, want %q", file, got, want)
		}
	}

	if got := DownloadURL(strings.TrimSuffix(base, "/"), "x.whl"); got != base+"x.whl" {
		t.Errorf("DownloadURL without trailing slash = %q", got)
	}
}
