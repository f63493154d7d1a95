// SPDX-License-Identifier: MPL-2.0

// Package runner executes external commands for the installer.
//
// Every command runs synchronously. At normal verbosity its output is
// captured and only surfaced when the command fails; in verbose mode it is
// streamed to the terminal as it happens. A non-zero exit becomes an
// *ExecutionFailure which is logged, with whatever output was captured,
// before it is returned. Nothing is retried.
package runner
