package vertag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingLogger counts formatted calls per level, used to assert that
// a disabled level's sink is never invoked — never by poking at
// charmbracelet/log's own internals.
type recordingLogger struct {
	trace, debug, info, warn int
	traceOn, debugOn, infoOn, warnOn bool
}

func (r *recordingLogger) IsTrace() bool { return r.traceOn }
func (r *recordingLogger) IsDebug() bool { return r.debugOn }
func (r *recordingLogger) IsInfo() bool  { return r.infoOn }
func (r *recordingLogger) IsWarn() bool  { return r.warnOn }

func (r *recordingLogger) Trace(string, ...any)           { r.trace++ }
func (r *recordingLogger) Debug(string, ...any)           { r.debug++ }
func (r *recordingLogger) Info(string, ...any)            { r.info++ }
func (r *recordingLogger) Warn(int, string, ...any)       { r.warn++ }

func TestGetVersionNeverFormatsDebugTableWhenDebugDisabled(t *testing.T) {
	repo, err := newTestRepo()
	require.NoError(t, err)
	head, err := commitFile(repo, "a.txt", "a")
	require.NoError(t, err)
	require.NoError(t, lightweightTag(repo, "1.0.0", head))

	view := NewGitViewFromRepository(repo)
	log := &recordingLogger{infoOn: true}
	opts := baseOptions()
	opts.Logger = log
	require.NoError(t, opts.normalize())

	_, err = getVersion(view, opts)
	require.NoError(t, err)
	require.Equal(t, 0, log.debug)
	require.Equal(t, 1, log.info)
}

func TestGetVersionEmitsWarningOnNonWorkingDirectory(t *testing.T) {
	view := &GitView{}
	log := &recordingLogger{warnOn: true}
	opts := baseOptions()
	opts.Logger = log
	require.NoError(t, opts.normalize())

	_, err := getVersion(view, opts)
	require.NoError(t, err)
	require.Equal(t, 1, log.warn)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, traceLevel, parseLevel("trace"))
	require.Equal(t, traceLevel, parseLevel("TRACE"))
	require.NotEqual(t, traceLevel, parseLevel("debug"))
	require.NotEqual(t, traceLevel, parseLevel(""))
}

func TestNopLoggerReportsEveryLevelDisabled(t *testing.T) {
	log := Nop()
	require.False(t, log.IsTrace())
	require.False(t, log.IsDebug())
	require.False(t, log.IsInfo())
	require.False(t, log.IsWarn())
}

func TestCandidateTableMarksSelectedRow(t *testing.T) {
	v1, _ := ParseVersion("1.0.0", "")
	v2, _ := ParseVersion("1.1.0", "")
	candidates := []Candidate{
		{Commit: Commit{Sha: "aaaa111"}, Tag: "1.0.0", Version: v1, Index: 0},
		{Commit: Commit{Sha: "bbbb222"}, Tag: "1.1.0", Version: v2, Index: 1},
	}
	out := candidateTable(candidates, candidates[1])
	require.Contains(t, out, "1.1.0")
	require.Contains(t, out, "1.0.0")

	var selectedRow, otherRow string
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.Contains(line, "bbbb222"):
			selectedRow = line
		case strings.Contains(line, "aaaa111"):
			otherRow = line
		}
	}
	require.Contains(t, selectedRow, "*")
	require.NotEmpty(t, otherRow)
	require.NotContains(t, otherRow, "*")
}

func TestDisplayTag(t *testing.T) {
	require.Equal(t, "<synthetic>", displayTag(""))
	require.Equal(t, "v1.0.0", displayTag("v1.0.0"))
}
