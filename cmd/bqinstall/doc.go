// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for bqinstall.
//
// The psbody command is the staged installer. It starts in the
// prepare_environment stage and relaunches itself through an activation
// trampoline for the build and validation stages, passing its flags along
// with a hidden --stage marker. The remaining commands are diagnostics
// (env), a standalone PyOpenGL installer (pyopengl) and configuration
// management (config).
package cmd
