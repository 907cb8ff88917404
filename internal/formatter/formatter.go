package formatter

import (
	"fmt"

	"github.com/lomotos10/GCM-bot/internal/data"
)

// OutputFormat selects output style.
type OutputFormat int

const (
	FormatEmbed OutputFormat = iota // chat markdown with search links
	FormatText
	FormatJSON
)

// Formatter renders a chart as a string.
type Formatter interface {
	Format(c *data.Chart, format OutputFormat) (string, error)
}

type formatter struct{}

// New returns a Formatter.
func New() Formatter {
	return &formatter{}
}

// Format dispatches to the appropriate formatter by format.
func (f *formatter) Format(c *data.Chart, format OutputFormat) (string, error) {
	if c == nil {
		return "", fmt.Errorf("no chart")
	}
	switch format {
	case FormatJSON:
		return formatJSON(c)
	case FormatText:
		return formatText(c), nil
	default:
		e := Info(c)
		return e.Title + "\n" + e.Description, nil
	}
}

// ParseFormat maps "embed", "text" and "json" to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "embed", "markdown":
		return FormatEmbed, nil
	case "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatEmbed, fmt.Errorf("unknown format %q", s)
}
