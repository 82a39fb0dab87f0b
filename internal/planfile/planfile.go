// Package planfile loads finalization plans from TOML files, an alternative
// to spelling the whole plan on the finalizer's command line.
package planfile

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/brandonbloom/runstub/internal/patch"
	"github.com/brandonbloom/runstub/internal/stubcfg"
)

// File captures one finalization described in a plan file.
type File struct {
	Template          string   `toml:"template"`
	Output            string   `toml:"output"`
	Args              []string `toml:"args"`
	Transform         []int    `toml:"transform"`
	ExportRunfilesEnv *bool    `toml:"export-runfiles-env"`
}

var (
	// ErrInvalid marks every plan-validation failure so callers can treat
	// them as bad input rather than I/O trouble.
	ErrInvalid = errors.New("invalid plan")
)

// Load reads and validates a plan file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

// Validate ensures the plan can drive a finalization.
func (f *File) Validate() error {
	if f.Template == "" {
		return fmt.Errorf("%w: template must be set", ErrInvalid)
	}
	if len(f.Args) == 0 {
		return fmt.Errorf("%w: args must name at least one embedded argument", ErrInvalid)
	}
	if len(f.Args) > stubcfg.MaxEmbedded {
		return fmt.Errorf("%w: %d args exceed the %d-slot limit", ErrInvalid, len(f.Args), stubcfg.MaxEmbedded)
	}
	for _, idx := range f.Transform {
		if idx < 0 || idx >= len(f.Args) {
			return fmt.Errorf("%w: transform index %d out of range for %d args", ErrInvalid, idx, len(f.Args))
		}
	}
	return nil
}

// ExportEnabled reports the export flag, defaulting to true when the plan
// omits it.
func (f *File) ExportEnabled() bool {
	if f.ExportRunfilesEnv == nil {
		return true
	}
	return *f.ExportRunfilesEnv
}

// PatchPlan converts the file into the finalizer's plan form.
func (f *File) PatchPlan() patch.Plan {
	var mask uint16
	for _, idx := range f.Transform {
		mask |= 1 << idx
	}
	return patch.Plan{
		Args:      f.Args,
		Transform: mask,
		ExportEnv: f.ExportEnabled(),
	}
}
