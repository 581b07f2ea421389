package vertag

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
)

// traceLevel sits one tier below charmbracelet/log's own DebugLevel,
// the same way that library's levels extend log/slog's: each tier is
// four apart, so a level below Debug is simply Debug minus four.
const traceLevel = clog.DebugLevel - 4

// Logger is the leveled sink the Versioner logs through. Predicates
// are pure and must be checked before formatting a message — the
// Versioner never lets a disabled level change control flow, but it
// does skip building expensive messages (like the candidate table)
// when the corresponding level wouldn't be emitted anyway.
type Logger interface {
	IsTrace() bool
	IsDebug() bool
	IsInfo() bool
	IsWarn() bool
	Trace(msg string, keyvals ...any)
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	// Warn logs a warning tagged with a numeric code, e.g. 1001 for
	// "not a working directory".
	Warn(code int, msg string, keyvals ...any)
}

// LoggerOptions controls the canonical Logger construction.
type LoggerOptions struct {
	// Out is the destination. Defaults to os.Stderr.
	Out io.Writer
	// Level is one of: "trace", "debug", "info", "warn". Defaults to "info".
	Level string
	// Format controls output: "auto" (default), "pretty", or "json".
	// When "auto", TTY → pretty; non-TTY → json.
	Format string
}

// NewLogger builds the canonical Logger, backed by charmbracelet/log
// with a synthetic trace tier below its own debug level.
func NewLogger(opts LoggerOptions) Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	cl := clog.NewWithOptions(out, clog.Options{})
	cl.SetLevel(parseLevel(opts.Level))
	cl.SetFormatter(chooseFormatter(out, opts.Format))
	cl.SetReportTimestamp(false)
	return &charmLogger{l: cl}
}

func parseLevel(s string) clog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return traceLevel
	case "debug":
		return clog.DebugLevel
	case "warn", "warning":
		return clog.WarnLevel
	default:
		return clog.InfoLevel
	}
}

func chooseFormatter(w io.Writer, format string) clog.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return clog.JSONFormatter
	case "pretty", "text":
		return clog.TextFormatter
	default:
		if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return clog.TextFormatter
		}
		return clog.JSONFormatter
	}
}

type charmLogger struct{ l *clog.Logger }

func (c *charmLogger) IsTrace() bool { return c.l.GetLevel() <= traceLevel }
func (c *charmLogger) IsDebug() bool { return c.l.GetLevel() <= clog.DebugLevel }
func (c *charmLogger) IsInfo() bool  { return c.l.GetLevel() <= clog.InfoLevel }
func (c *charmLogger) IsWarn() bool  { return c.l.GetLevel() <= clog.WarnLevel }

func (c *charmLogger) Trace(msg string, keyvals ...any) { c.l.Log(traceLevel, msg, keyvals...) }
func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(code int, msg string, keyvals ...any) {
	c.l.Warn(msg, append(append([]any{}, keyvals...), "code", code)...)
}

// Nop returns a Logger that discards everything and reports every
// level disabled, so callers never pay to format a message for it.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) IsTrace() bool                       { return false }
func (nopLogger) IsDebug() bool                       { return false }
func (nopLogger) IsInfo() bool                        { return false }
func (nopLogger) IsWarn() bool                        { return false }
func (nopLogger) Trace(string, ...any)                {}
func (nopLogger) Debug(string, ...any)                {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(int, string, ...any)             {}

// candidateTable renders every candidate as a column-aligned table,
// marking the selected one with "*", for the debug enumeration of
// candidates.
// Building it is gated on IsDebug() by the caller so a disabled debug
// level never pays for the allocation.
func candidateTable(candidates []Candidate, selected Candidate) string {
	var buf strings.Builder
	tw := tablewriter.NewWriter(&buf)
	tw.SetHeader([]string{"index", "height", "sha", "tag", "version", "selected"})
	for _, c := range candidates {
		mark := ""
		if c.Commit.Sha == selected.Commit.Sha && c.Index == selected.Index {
			mark = "*"
		}
		tw.Append([]string{
			fmt.Sprintf("%d", c.Index),
			fmt.Sprintf("%d", c.Height),
			c.Commit.ShortSha(),
			displayTag(c.Tag),
			c.Version.String(),
			mark,
		})
	}
	tw.Render()
	return buf.String()
}

func displayTag(tag string) string {
	if tag == "" {
		return "<synthetic>"
	}
	return tag
}
