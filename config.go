package vertag

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Options is the bag of configuration the Versioner consumes, plus the
// working directory it operates over and the Logger it reports
// through. It is validated once, at the start of GetVersion, before
// the walk begins — see normalize.
type Options struct {
	// WorkDir is the Git working directory to analyze.
	WorkDir string `validate:"required"`

	// TagPrefix is stripped from tag names before they are parsed as
	// versions.
	TagPrefix string

	// MinMajorMinor is a floor applied to the selected release
	// version. The zero value (0,0) imposes no floor.
	MinMajorMinor MajorMinor

	// BuildMetadata, if non-empty, is appended as SemVer build
	// metadata on the final version.
	BuildMetadata string

	// AutoIncrement names which component is bumped when height is
	// applied to a release tag. Defaults to "minor".
	AutoIncrement AutoIncrement `validate:"omitempty,oneof=major minor patch"`

	// DefaultPreReleaseIdentifiers are used for the synthetic version
	// produced when no release or pre-release tag is reachable.
	// Defaults to ["alpha", "0"].
	DefaultPreReleaseIdentifiers []string

	// IgnoreHeight, if true, drops the height transformation entirely.
	IgnoreHeight bool

	// Logger receives the Versioner's log events. Defaults to a
	// no-op logger.
	Logger Logger
}

var optionsValidator = validator.New()

// normalize fills in defaults and validates the configuration,
// returning an error wrapping ErrInvalidConfiguration on the first
// problem found. It
// must run before the walk begins: the algorithm never discovers an
// invalid configuration partway through.
func (o *Options) normalize() error {
	if o.AutoIncrement == "" {
		o.AutoIncrement = AutoIncrementMinor
	}
	if len(o.DefaultPreReleaseIdentifiers) == 0 {
		o.DefaultPreReleaseIdentifiers = append([]string{}, DefaultPreReleaseIdentifiers...)
	}
	if o.Logger == nil {
		o.Logger = Nop()
	}

	if err := optionsValidator.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	if err := validateBuildMetadata(o.BuildMetadata); err != nil {
		return err
	}
	if _, err := preReleaseIdentifiers(o.DefaultPreReleaseIdentifiers); err != nil {
		return err
	}
	return nil
}

func validateBuildMetadata(meta string) error {
	if meta == "" {
		return nil
	}
	_, err := buildIdentifiers(meta)
	return err
}
