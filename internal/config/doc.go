// SPDX-License-Identifier: MPL-2.0

// Package config handles installer configuration using Viper with CUE as the
// file format.
//
// Configuration is read from config.cue in the platform config directory
// ($XDG_CONFIG_HOME/bqinstall, ~/Library/Application Support/bqinstall or
// %APPDATA%\bqinstall), falling back to bqinstall.cue in the working
// directory. The file is validated against an embedded #Config schema and
// every key can be overridden with a BQINSTALL_<SECTION>_<KEY> environment
// variable. Without any file the built-in defaults pin the mesh repository
// and the standard tool names.
package config
