package vertag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsNormalizeFillsDefaults(t *testing.T) {
	o := Options{WorkDir: "."}
	require.NoError(t, o.normalize())
	require.Equal(t, AutoIncrementMinor, o.AutoIncrement)
	require.Equal(t, []string{"alpha", "0"}, o.DefaultPreReleaseIdentifiers)
	require.NotNil(t, o.Logger)
}

func TestOptionsNormalizeRequiresWorkDir(t *testing.T) {
	o := Options{}
	err := o.normalize()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestOptionsNormalizeRejectsUnknownAutoIncrement(t *testing.T) {
	o := Options{WorkDir: ".", AutoIncrement: "sideways"}
	err := o.normalize()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestOptionsNormalizeRejectsMalformedBuildMetadata(t *testing.T) {
	o := Options{WorkDir: ".", BuildMetadata: "bad_metadata"}
	err := o.normalize()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestOptionsNormalizeRejectsMalformedDefaultPreReleaseIdentifier(t *testing.T) {
	o := Options{WorkDir: ".", DefaultPreReleaseIdentifiers: []string{"01"}}
	err := o.normalize()
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestOptionsNormalizeAcceptsValidBuildMetadata(t *testing.T) {
	o := Options{WorkDir: ".", BuildMetadata: "build.5"}
	require.NoError(t, o.normalize())
}

func TestOptionsNormalizeIsIdempotent(t *testing.T) {
	o := Options{WorkDir: "."}
	require.NoError(t, o.normalize())
	first := o.AutoIncrement
	require.NoError(t, o.normalize())
	require.Equal(t, first, o.AutoIncrement)
}
