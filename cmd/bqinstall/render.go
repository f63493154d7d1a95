// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bqinstall/bqinstall/internal/issue"
	"github.com/bqinstall/bqinstall/internal/runner"
)

// issueStyle is the glamour style used for help cards.
const issueStyle = "dark"

// renderFailure writes the suggestions of an ActionableError in err's chain
// and the help card of the catalog entry it names. A failed external command
// without an entry of its own gets the generic command card. The error
// message itself is printed by fang.
func renderFailure(stderr io.Writer, err error, verbose bool, logger *log.Logger) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if details := suggestionsOf(ae, verbose); details != "" {
			fmt.Fprintln(stderr, renderLabelStyle.Render("What to try:"))
			fmt.Fprintln(stderr, details)
		}
	}

	id, ok := issue.IssueOf(err)
	if !ok {
		var failure *runner.ExecutionFailure
		if !errors.As(err, &failure) {
			return
		}
		id = issue.CommandFailedId
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render(issueStyle)
	if renderErr != nil {
		logger.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		return
	}
	fmt.Fprint(stderr, rendered)
	fmt.Fprintln(stderr, renderHintStyle.Render("Run with --verbose to see the full command output."))
}

// suggestionsOf returns what Format adds after the error message.
func suggestionsOf(ae *issue.ActionableError, verbose bool) string {
	rest := strings.TrimPrefix(ae.Format(verbose), ae.Error())
	return strings.Trim(rest, "\n")
}
