package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brandonbloom/runstub/internal/patch"
	"github.com/brandonbloom/runstub/internal/stubtest"
)

func TestInspectValidTemplate(t *testing.T) {
	template := writeTemplate(t)

	stdout, _, err := runCommand(t, "inspect", "--template", template)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "valid template") {
		t.Fatalf("missing validity line:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "@@RUNFILES_ARG9@@") {
		t.Fatalf("missing slot row:\n%s", stdout.String())
	}
}

func TestInspectRejectsFinalizedImage(t *testing.T) {
	finalized, err := patch.Finalize(stubtest.Template(), patch.Plan{Args: []string{"a"}})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "stub")
	if err := os.WriteFile(path, finalized, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	_, _, err = runCommand(t, "inspect", "--template", path)
	if err == nil {
		t.Fatal("expected error for a sentinel-free image")
	}
	if got := ExitCode(err); got != 1 {
		t.Fatalf("exit code = %d, want 1", got)
	}
}

func TestInspectDecodesStub(t *testing.T) {
	template := writeTemplate(t)
	finalized, err := patch.Finalize(stubtest.Template(), patch.Plan{
		Args:      []string{"tool/run", "--fast"},
		Transform: 1,
		ExportEnv: true,
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	stub := filepath.Join(t.TempDir(), "stub")
	if err := os.WriteFile(stub, finalized, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	stdout, _, err := runCommand(t, "inspect", "--template", template, "--stub", stub)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "tool/run") || !strings.Contains(out, "--fast") {
		t.Fatalf("decoded arguments missing:\n%s", out)
	}
	if !strings.Contains(out, "runfiles") || !strings.Contains(out, "literal") {
		t.Fatalf("argument kinds missing:\n%s", out)
	}
}

func TestInspectRequiresTemplate(t *testing.T) {
	_, _, err := runCommand(t, "inspect")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := ExitCode(err); got != 2 {
		t.Fatalf("exit code = %d, want 2", got)
	}
}
