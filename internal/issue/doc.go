// SPDX-License-Identifier: MPL-2.0

// Package issue turns installer failures into something a user can act on:
// an ActionableError names the step that failed and what to try next, and
// the Markdown catalog renders a longer help card for well-known failures.
package issue
