package formatter

import (
	"fmt"
	"time"
)

// Suggestion is the reply to a query that matched no alias.
func Suggestion(query, key, title string) string {
	return fmt.Sprintf("I couldn't find the results for **%s**;\nDid you mean **%s** (for **%s**)?\n(P.S. You can also use the `/add-alias` command to add this alias to the bot.)",
		escape(query), escape(key), escape(title))
}

// NotFound is the reply when there is nothing to suggest.
func NotFound(query string) string {
	return fmt.Sprintf("I couldn't find the results for **%s**.", escape(query))
}

// ConfirmLabel is the label of the confirmation button.
func ConfirmLabel(timeout time.Duration) string {
	return fmt.Sprintf("Yes (times out after %d seconds)", int(timeout.Round(time.Second)/time.Second))
}

// QueryBy credits the user whose confirmed query is answered publicly.
func QueryBy(userID string) string {
	return fmt.Sprintf("Query by <@%s>", userID)
}

// TimedOut is sent when notify-on-timeout is enabled.
const TimedOut = "Timed out."

// AliasAdded confirms an add-alias request.
func AliasAdded(alias, title string) string {
	return fmt.Sprintf("Added alias **%s** for **%s**.", escape(alias), escape(title))
}
