// Package stubtest builds synthetic template images for tests.
package stubtest

import (
	"bytes"

	"github.com/brandonbloom/runstub/internal/stubcfg"
)

// Template returns an image with every placeholder slot embedded between
// filler bytes, mimicking the layout of a compiled template binary.
func Template() []byte {
	var buf bytes.Buffer
	buf.WriteString("\x7fELF-shaped header filler ")
	writeSlot(&buf, stubcfg.ArgcSentinel, stubcfg.ControlSlotSize)
	buf.WriteString(" code bytes ")
	writeSlot(&buf, stubcfg.TransformSentinel, stubcfg.ControlSlotSize)
	writeSlot(&buf, stubcfg.ExportSentinel, stubcfg.ControlSlotSize)
	buf.WriteString(" more code bytes ")
	for i := 0; i < stubcfg.MaxEmbedded; i++ {
		writeSlot(&buf, stubcfg.ArgSentinel(i), stubcfg.ArgSlotSize)
		buf.WriteString("..")
	}
	buf.WriteString(" trailing section data")
	return buf.Bytes()
}

func writeSlot(buf *bytes.Buffer, sentinel string, size int) {
	buf.WriteString(sentinel)
	buf.Write(make([]byte, size-len(sentinel)))
}
