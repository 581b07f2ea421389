package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coremodule/vertag"
)

func TestParseMajorMinor(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		mm, err := parseMajorMinor("2.5")
		require.NoError(t, err)
		require.Equal(t, vertag.MajorMinor{Major: 2, Minor: 5}, mm)
	})

	t.Run("missing minor", func(t *testing.T) {
		_, err := parseMajorMinor("2")
		require.Error(t, err)
	})

	t.Run("non-numeric", func(t *testing.T) {
		_, err := parseMajorMinor("a.b")
		require.Error(t, err)
	})
}

func TestLoadProjectFileMissingIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	pf, err := loadProjectFile(dir)
	require.NoError(t, err)
	require.Nil(t, pf)
}

func TestLoadProjectFileParsesRecognizedFields(t *testing.T) {
	dir := t.TempDir()
	content := "tag_prefix: v\nauto_increment: patch\nmin_major_minor: \"1.2\"\ndefault_pre_release_identifiers:\n  - beta\n  - 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vertag.yml"), []byte(content), 0o644))

	pf, err := loadProjectFile(dir)
	require.NoError(t, err)
	require.NotNil(t, pf)
	require.Equal(t, "v", pf.TagPrefix)
	require.Equal(t, "patch", pf.AutoIncrement)
	require.Equal(t, "1.2", pf.MinMajorMinor)
	require.Equal(t, []string{"beta", "0"}, pf.DefaultPre)
}

func TestLoadProjectFileMalformedIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vertag.yml"), []byte("not: [valid: yaml"), 0o644))

	_, err := loadProjectFile(dir)
	require.Error(t, err)
}

func TestBuildOptionsFlagsOverrideFileOverrideDefaults(t *testing.T) {
	c := &CLI{
		Repo:          ".",
		AutoIncrement: "patch",
		LogLevel:      "warn",
		LogFormat:     "auto",
	}
	file := &projectFile{
		TagPrefix:     "release-",
		AutoIncrement: "major",
		MinMajorMinor: "3.0",
	}

	opts, err := c.buildOptions(file)
	require.NoError(t, err)
	require.Equal(t, "release-", opts.TagPrefix)
	// explicit flag beats the file's auto_increment
	require.Equal(t, vertag.AutoIncrementPatch, opts.AutoIncrement)
	require.Equal(t, vertag.MajorMinor{Major: 3, Minor: 0}, opts.MinMajorMinor)
}

func TestBuildOptionsFileValuesSurviveWhenFlagsUnset(t *testing.T) {
	c := &CLI{
		Repo:      ".",
		LogLevel:  "warn",
		LogFormat: "auto",
	}
	file := &projectFile{
		AutoIncrement: "patch",
		DefaultPre:    []string{"beta", "0"},
	}

	opts, err := c.buildOptions(file)
	require.NoError(t, err)
	require.Equal(t, vertag.AutoIncrementPatch, opts.AutoIncrement)
	require.Equal(t, []string{"beta", "0"}, opts.DefaultPreReleaseIdentifiers)
}

func TestBuildOptionsWithoutFileUsesFlagsAndDefaults(t *testing.T) {
	c := &CLI{
		Repo:          ".",
		AutoIncrement: "minor",
		DefaultPre:    "alpha.0",
		LogLevel:      "warn",
		LogFormat:     "auto",
	}

	opts, err := c.buildOptions(nil)
	require.NoError(t, err)
	require.Equal(t, vertag.AutoIncrementMinor, opts.AutoIncrement)
	require.Equal(t, []string{"alpha", "0"}, opts.DefaultPreReleaseIdentifiers)
}

func TestRenderPlainAndJSON(t *testing.T) {
	v, ok := vertag.ParseVersion("1.2.3-alpha.1", "")
	require.True(t, ok)

	t.Run("plain", func(t *testing.T) {
		out := captureStdout(t, func(f *os.File) {
			c := &CLI{}
			require.NoError(t, c.render(f, v, false))
		})
		require.Equal(t, "1.2.3-alpha.1\n", out)
	})

	t.Run("json", func(t *testing.T) {
		out := captureStdout(t, func(f *os.File) {
			c := &CLI{JSON: true}
			require.NoError(t, c.render(f, v, false))
		})
		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		require.Equal(t, "1.2.3-alpha.1", decoded["version"])
	})
}

func TestExplainTag(t *testing.T) {
	require.Equal(t, "<synthetic>", explainTag(""))
	require.Equal(t, "v1.0.0", explainTag("v1.0.0"))
}

func captureStdout(t *testing.T, fn func(f *os.File)) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	fn(w)
	require.NoError(t, w.Close())

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return strings.TrimSpace(string(data)) + "\n"
}
