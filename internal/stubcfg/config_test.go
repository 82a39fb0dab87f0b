package stubcfg

import (
	"errors"
	"testing"
)

func makeSlot(content string, size int) []byte {
	slot := make([]byte, size)
	copy(slot, content)
	return slot
}

func makeArgs(values ...string) [][]byte {
	args := make([][]byte, MaxEmbedded)
	for i := range args {
		args[i] = make([]byte, ArgSlotSize)
	}
	for i, v := range values {
		copy(args[i], v)
	}
	return args
}

func TestDecodeSlots(t *testing.T) {
	argc := makeSlot("\x03", ControlSlotSize)
	flags := makeSlot("\x05\x00", ControlSlotSize)
	export := makeSlot("\x01", ControlSlotSize)

	cfg, err := DecodeSlots(argc, flags, export, makeArgs("tool/echo", "--greeting", "hi"))
	if err != nil {
		t.Fatalf("DecodeSlots failed: %v", err)
	}
	if len(cfg.Args) != 3 {
		t.Fatalf("got %d args, want 3", len(cfg.Args))
	}
	if cfg.Args[0] != "tool/echo" || cfg.Args[1] != "--greeting" || cfg.Args[2] != "hi" {
		t.Fatalf("unexpected args: %q", cfg.Args)
	}
	if cfg.Transform != 0x05 {
		t.Fatalf("transform = %#x, want 0x05", cfg.Transform)
	}
	if !cfg.Transformed(0) || cfg.Transformed(1) || !cfg.Transformed(2) {
		t.Fatalf("transform bits decoded wrong: %#x", cfg.Transform)
	}
	if !cfg.ExportEnv {
		t.Fatal("export flag should be set")
	}
}

func TestDecodeSlotsSentinelIntact(t *testing.T) {
	argc := makeSlot(ArgcSentinel, ControlSlotSize)
	flags := makeSlot("\x00", ControlSlotSize)
	export := makeSlot("\x00", ControlSlotSize)

	_, err := DecodeSlots(argc, flags, export, makeArgs("x"))
	if !errors.Is(err, ErrUnfinalized) {
		t.Fatalf("got %v, want ErrUnfinalized", err)
	}
}

func TestDecodeSlotsArgcBounds(t *testing.T) {
	for _, n := range []byte{0, MaxEmbedded + 1, 0xff} {
		argc := []byte{n}
		argc = append(argc, make([]byte, ControlSlotSize-1)...)
		flags := makeSlot("\x00", ControlSlotSize)
		export := makeSlot("\x00", ControlSlotSize)

		_, err := DecodeSlots(argc, flags, export, makeArgs("x"))
		if !errors.Is(err, ErrMalformedArgc) {
			t.Fatalf("argc byte %d: got %v, want ErrMalformedArgc", n, err)
		}
	}
}

func TestDecodeSlotsEmptyArgument(t *testing.T) {
	argc := makeSlot("\x02", ControlSlotSize)
	flags := makeSlot("\x00", ControlSlotSize)
	export := makeSlot("\x00", ControlSlotSize)

	_, err := DecodeSlots(argc, flags, export, makeArgs("only-one"))
	if !errors.Is(err, ErrMalformedArgc) {
		t.Fatalf("got %v, want ErrMalformedArgc for empty used slot", err)
	}
}

func TestLoadReportsUnfinalized(t *testing.T) {
	// The test binary carries the pristine placeholder slots, so Load must
	// identify it as a template.
	_, err := Load()
	if !errors.Is(err, ErrUnfinalized) {
		t.Fatalf("got %v, want ErrUnfinalized", err)
	}
}

func TestSlotSizes(t *testing.T) {
	if len(argcSlot) != ControlSlotSize {
		t.Fatalf("argc slot is %d bytes, want %d", len(argcSlot), ControlSlotSize)
	}
	if len(transformSlot) != ControlSlotSize {
		t.Fatalf("transform slot is %d bytes, want %d", len(transformSlot), ControlSlotSize)
	}
	if len(exportSlot) != ControlSlotSize {
		t.Fatalf("export slot is %d bytes, want %d", len(exportSlot), ControlSlotSize)
	}
	for i, slot := range argSlots {
		if len(slot) != ArgSlotSize {
			t.Fatalf("arg slot %d is %d bytes, want %d", i, len(slot), ArgSlotSize)
		}
	}
}
