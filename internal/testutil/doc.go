// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that touch process-global
// state (working directory, environment) or the filesystem.
package testutil
