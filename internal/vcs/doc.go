// SPDX-License-Identifier: MPL-2.0

// Package vcs provides the pinned-checkout scope: a fresh clone of a
// repository at a fixed revision that the process works inside of, and that
// is removed again however the work ends.
//
// Two backends implement the VCS port: Git shells out to the git executable
// and GoGit clones in-process with go-git.
package vcs
