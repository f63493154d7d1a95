// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/bqinstall/bqinstall/cmd/bqinstall"

func main() {
	cmd.Execute()
}
