// Package patch rewrites the placeholder slots of a template stub image.
// The output is a pure function of the template bytes and the plan: no
// timestamps, host data, or randomness enter it, and its length always
// equals the template's.
package patch

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/brandonbloom/runstub/internal/stubcfg"
)

var (
	// ErrTemplateInvalid reports an image whose sentinels are missing or
	// duplicated. Finalized stubs fail this way when patched a second time.
	ErrTemplateInvalid = errors.New("not a valid template")
	// ErrBadPlan reports an argument plan the slots cannot hold.
	ErrBadPlan = errors.New("invalid argument plan")
)

// Plan describes one finalization: the embedded argument values, the
// transform bitmask over them, and the export flag.
type Plan struct {
	Args      []string
	Transform uint16
	ExportEnv bool
}

// Validate checks the plan against the slot geometry.
func (p Plan) Validate() error {
	if len(p.Args) == 0 {
		return fmt.Errorf("%w: at least one embedded argument is required", ErrBadPlan)
	}
	if len(p.Args) > stubcfg.MaxEmbedded {
		return fmt.Errorf("%w: %d arguments exceed the %d-slot limit", ErrBadPlan, len(p.Args), stubcfg.MaxEmbedded)
	}
	for i, arg := range p.Args {
		if arg == "" {
			return fmt.Errorf("%w: argument %d is empty", ErrBadPlan, i)
		}
		if len(arg) > stubcfg.MaxArgBytes {
			return fmt.Errorf("%w: argument %d is %d bytes (limit %d)", ErrBadPlan, i, len(arg), stubcfg.MaxArgBytes)
		}
		if strings.IndexByte(arg, 0) >= 0 {
			return fmt.Errorf("%w: argument %d contains a NUL byte", ErrBadPlan, i)
		}
		if !utf8.ValidString(arg) {
			return fmt.Errorf("%w: argument %d is not valid UTF-8", ErrBadPlan, i)
		}
	}
	if p.Transform>>len(p.Args) != 0 {
		return fmt.Errorf("%w: transform index out of range for %d arguments", ErrBadPlan, len(p.Args))
	}
	return nil
}

type slot struct {
	name   string
	offset int
	size   int
}

type layout struct {
	argc      slot
	transform slot
	export    slot
	args      [stubcfg.MaxEmbedded]slot
}

// Finalize patches a template image with the plan, returning a new image of
// identical length. Every slot position is located before any rewrite, so an
// argument value that happens to contain sentinel-shaped bytes cannot skew
// later scans. Unused argument slots are zeroed entirely.
func Finalize(template []byte, p Plan) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lay, err := locateSlots(template)
	if err != nil {
		return nil, err
	}

	out := bytes.Clone(template)
	zero := func(s slot) {
		clear(out[s.offset : s.offset+s.size])
	}

	zero(lay.argc)
	out[lay.argc.offset] = byte(len(p.Args))

	zero(lay.transform)
	binary.LittleEndian.PutUint16(out[lay.transform.offset:], p.Transform)

	zero(lay.export)
	if p.ExportEnv {
		out[lay.export.offset] = 1
	}

	for i, s := range lay.args {
		zero(s)
		if i < len(p.Args) {
			copy(out[s.offset:], p.Args[i])
			Logger().Debug("patched argument slot",
				zap.Int("index", i),
				zap.Int("offset", s.offset),
				zap.String("value", p.Args[i]),
				zap.Bool("transform", p.Transform&(1<<i) != 0))
		}
	}
	Logger().Debug("patched control slots",
		zap.Int("argc", len(p.Args)),
		zap.Uint16("transform", p.Transform),
		zap.Bool("export", p.ExportEnv))

	return out, nil
}

func locateSlots(image []byte) (*layout, error) {
	var lay layout
	var err error
	if lay.argc, err = findOne(image, stubcfg.ArgcSentinel, stubcfg.ControlSlotSize); err != nil {
		return nil, err
	}
	if lay.transform, err = findOne(image, stubcfg.TransformSentinel, stubcfg.ControlSlotSize); err != nil {
		return nil, err
	}
	if lay.export, err = findOne(image, stubcfg.ExportSentinel, stubcfg.ControlSlotSize); err != nil {
		return nil, err
	}
	for i := range lay.args {
		if lay.args[i], err = findOne(image, stubcfg.ArgSentinel(i), stubcfg.ArgSlotSize); err != nil {
			return nil, err
		}
	}
	return &lay, nil
}

func findOne(image []byte, sentinel string, size int) (slot, error) {
	pattern := []byte(sentinel)
	offset := bytes.Index(image, pattern)
	if offset < 0 {
		return slot{}, fmt.Errorf("%w: sentinel %s not found", ErrTemplateInvalid, sentinel)
	}
	if bytes.Contains(image[offset+len(pattern):], pattern) {
		return slot{}, fmt.Errorf("%w: sentinel %s appears more than once", ErrTemplateInvalid, sentinel)
	}
	if offset+size > len(image) {
		return slot{}, fmt.Errorf("%w: slot %s is truncated", ErrTemplateInvalid, sentinel)
	}
	return slot{name: sentinel, offset: offset, size: size}, nil
}
