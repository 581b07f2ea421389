package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/coremodule/vertag"
)

// buildVersion is set by the release pipeline; "dev" outside of it.
var buildVersion = "dev"

type CLI struct {
	Repo          string `short:"r" help:"Git working directory to analyze" default:"."`
	TagPrefix     string `help:"Prefix stripped from tag names before parsing"`
	MinMajorMinor string `help:"Minimum major.minor floor, e.g. '2.0'"`
	BuildMetadata string `help:"Build metadata appended to the final version"`
	AutoIncrement string `short:"a" help:"Component bumped when height is applied: major, minor, or patch (default: minor)"`
	DefaultPre    string `name:"default-pre" help:"Dot-separated default pre-release identifiers (default: alpha.0)"`
	IgnoreHeight  bool   `help:"Drop the height transformation entirely"`
	JSON          bool   `short:"j" help:"Output as JSON"`
	Explain       bool   `help:"Print every candidate the walk considered, not just the selected one"`
	LogLevel      string `help:"trace, debug, info, or warn" default:"warn"`
	LogFormat     string `help:"auto, pretty, or json" default:"auto"`
	ShowVersion   bool   `name:"version" help:"Show build version and exit"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("vertag"),
		kong.Description("Compute a deterministic SemVer version from Git repository history"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := cli.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "vertag: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		fmt.Println(buildVersion)
		return nil
	}

	file, err := loadProjectFile(c.Repo)
	if err != nil {
		return fmt.Errorf("loading project file: %w", err)
	}

	opts, err := c.buildOptions(file)
	if err != nil {
		return err
	}

	out := os.Stdout
	interactive := isatty.IsTerminal(out.Fd())

	sp := newSpinner(interactive)
	sp.Start()
	version, err := vertag.GetVersion(opts)
	sp.Stop()
	if err != nil {
		return err
	}

	if c.Explain {
		if err := c.printExplain(opts); err != nil {
			return err
		}
	}

	return c.render(out, version, interactive)
}

// buildOptions assembles vertag.Options from, in increasing priority:
// built-in defaults, the optional project file, and explicit flags.
func (c *CLI) buildOptions(file *projectFile) (vertag.Options, error) {
	opts := vertag.Options{
		WorkDir: c.Repo,
		Logger:  vertag.NewLogger(vertag.LoggerOptions{Level: c.LogLevel, Format: c.LogFormat}),
	}

	if file != nil {
		opts.TagPrefix = file.TagPrefix
		opts.BuildMetadata = file.BuildMetadata
		if file.AutoIncrement != "" {
			opts.AutoIncrement = vertag.AutoIncrement(file.AutoIncrement)
		}
		if len(file.DefaultPre) > 0 {
			opts.DefaultPreReleaseIdentifiers = file.DefaultPre
		}
		opts.IgnoreHeight = file.IgnoreHeight
		if file.MinMajorMinor != "" {
			mm, err := parseMajorMinor(file.MinMajorMinor)
			if err != nil {
				return opts, fmt.Errorf("project file min_major_minor: %w", err)
			}
			opts.MinMajorMinor = mm
		}
	}

	if c.TagPrefix != "" {
		opts.TagPrefix = c.TagPrefix
	}
	if c.BuildMetadata != "" {
		opts.BuildMetadata = c.BuildMetadata
	}
	if c.AutoIncrement != "" {
		opts.AutoIncrement = vertag.AutoIncrement(c.AutoIncrement)
	}
	if c.DefaultPre != "" {
		opts.DefaultPreReleaseIdentifiers = strings.Split(c.DefaultPre, ".")
	}
	if c.IgnoreHeight {
		opts.IgnoreHeight = true
	}
	if c.MinMajorMinor != "" {
		mm, err := parseMajorMinor(c.MinMajorMinor)
		if err != nil {
			return opts, fmt.Errorf("--min-major-minor: %w", err)
		}
		opts.MinMajorMinor = mm
	}

	return opts, nil
}

func parseMajorMinor(s string) (vertag.MajorMinor, error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return vertag.MajorMinor{}, fmt.Errorf("expected MAJOR.MINOR, got %q", s)
	}
	major, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return vertag.MajorMinor{}, fmt.Errorf("major %q: %w", parts[0], err)
	}
	minor, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return vertag.MajorMinor{}, fmt.Errorf("minor %q: %w", parts[1], err)
	}
	return vertag.MajorMinor{Major: major, Minor: minor}, nil
}

func (c *CLI) render(out *os.File, version vertag.Version, interactive bool) error {
	if c.JSON {
		return json.NewEncoder(out).Encode(map[string]any{
			"version": version.String(),
			"major":   version.Major,
			"minor":   version.Minor,
			"patch":   version.Patch,
		})
	}

	if interactive {
		fmt.Fprintln(out, summaryStyle.Render(version.String()))
		return nil
	}

	fmt.Fprintln(out, version.String())
	return nil
}

var summaryStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("42"))

func newSpinner(interactive bool) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " computing version..."
	if !interactive {
		s.Writer = discard{}
	}
	return s
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// printExplain renders every candidate the walk considered, sized to the
// terminal width when one is available, regardless of the configured
// log level.
func (c *CLI) printExplain(opts vertag.Options) error {
	candidates, selected, err := vertag.Explain(opts)
	if err != nil {
		return err
	}

	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"index", "height", "sha", "tag", "version", "selected"})

	width := terminalWidth()
	if width > 0 {
		tw.SetColWidth(width / 6)
	}

	for _, cand := range candidates {
		mark := ""
		if cand.Commit.Sha == selected.Commit.Sha && cand.Index == selected.Index {
			mark = "*"
		}
		tw.Append([]string{
			strconv.Itoa(cand.Index),
			strconv.FormatUint(cand.Height, 10),
			cand.Commit.ShortSha(),
			explainTag(cand.Tag),
			cand.Version.String(),
			mark,
		})
	}
	tw.Render()
	return nil
}

func explainTag(tag string) string {
	if tag == "" {
		return "<synthetic>"
	}
	return tag
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// projectFile is the shape of vertag.yml / .vertag.yml in the
// directory named by --repo. Every field is optional; a missing file is not an
// error, and a malformed one is.
type projectFile struct {
	TagPrefix     string   `yaml:"tag_prefix"`
	MinMajorMinor string   `yaml:"min_major_minor"`
	BuildMetadata string   `yaml:"build_metadata"`
	AutoIncrement string   `yaml:"auto_increment"`
	DefaultPre    []string `yaml:"default_pre_release_identifiers"`
	IgnoreHeight  bool     `yaml:"ignore_height"`
}

func loadProjectFile(workDir string) (*projectFile, error) {
	for _, name := range []string{"vertag.yml", ".vertag.yml"} {
		path := workDir + string(os.PathSeparator) + name
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		var pf projectFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		return &pf, nil
	}
	return nil, nil
}
