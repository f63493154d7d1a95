// SPDX-License-Identifier: MPL-2.0

// Package platform names the operating-system families the installer
// distinguishes between. Only two behaviours exist: Windows, and everything
// else (POSIX shells with a sourced activation script).
package platform
