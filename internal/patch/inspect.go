package patch

import (
	"bytes"
	"fmt"

	"github.com/brandonbloom/runstub/internal/stubcfg"
)

// SlotInfo reports the observed state of one placeholder slot in an image.
type SlotInfo struct {
	Name   string
	Size   int
	Offset int // -1 when the sentinel is absent
	Count  int // sentinel occurrences; a valid template has exactly 1
}

// Template reports whether the slot still carries its sentinel.
func (s SlotInfo) Template() bool {
	return s.Count == 1
}

// Inspect scans an image for every placeholder sentinel without failing on
// absent or duplicated ones, so callers can render the full picture. The
// image is a valid template iff every returned slot has Count == 1.
func Inspect(image []byte) []SlotInfo {
	type probe struct {
		sentinel string
		size     int
	}
	probes := []probe{
		{stubcfg.ArgcSentinel, stubcfg.ControlSlotSize},
		{stubcfg.TransformSentinel, stubcfg.ControlSlotSize},
		{stubcfg.ExportSentinel, stubcfg.ControlSlotSize},
	}
	for i := 0; i < stubcfg.MaxEmbedded; i++ {
		probes = append(probes, probe{stubcfg.ArgSentinel(i), stubcfg.ArgSlotSize})
	}

	infos := make([]SlotInfo, 0, len(probes))
	for _, n := range probes {
		info := SlotInfo{Name: n.sentinel, Size: n.size, Offset: -1}
		pattern := []byte(n.sentinel)
		info.Count = bytes.Count(image, pattern)
		if info.Count > 0 {
			info.Offset = bytes.Index(image, pattern)
		}
		infos = append(infos, info)
	}
	return infos
}

// DecodeFinalized reads a finalized stub's configuration by locating the
// slots in its template and reading the same offsets in the stub; the two
// images must have identical length.
func DecodeFinalized(template, stub []byte) (*stubcfg.Config, error) {
	if len(template) != len(stub) {
		return nil, fmt.Errorf("stub is %d bytes but its template is %d; not produced from this template", len(stub), len(template))
	}
	lay, err := locateSlots(template)
	if err != nil {
		return nil, err
	}
	region := func(s slot) []byte {
		return stub[s.offset : s.offset+s.size]
	}
	args := make([][]byte, stubcfg.MaxEmbedded)
	for i, s := range lay.args {
		args[i] = region(s)
	}
	return stubcfg.DecodeSlots(region(lay.argc), region(lay.transform), region(lay.export), args)
}
