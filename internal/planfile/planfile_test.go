package planfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writePlan(t, `
template = "templates/stub-linux-amd64"
output = "out/hello"
args = ["_main/tools/hello", "--greeting", "hi"]
transform = [0, 2]
export-runfiles-env = false
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if f.Template != "templates/stub-linux-amd64" || f.Output != "out/hello" {
		t.Fatalf("paths = %q, %q", f.Template, f.Output)
	}

	plan := f.PatchPlan()
	if len(plan.Args) != 3 {
		t.Fatalf("args = %q", plan.Args)
	}
	if plan.Transform != 1<<0|1<<2 {
		t.Fatalf("transform mask = %#x", plan.Transform)
	}
	if plan.ExportEnv {
		t.Fatal("export should be disabled")
	}
}

func TestExportDefaultsTrue(t *testing.T) {
	path := writePlan(t, `
template = "t"
args = ["a"]
`)
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !f.ExportEnabled() {
		t.Fatal("export-runfiles-env should default to true")
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing template", `args = ["a"]`},
		{"no args", `template = "t"`},
		{"transform out of range", "template = \"t\"\nargs = [\"a\"]\ntransform = [1]"},
		{"negative transform", "template = \"t\"\nargs = [\"a\"]\ntransform = [-1]"},
		{"not toml", `{{{{`},
	}
	for _, tc := range cases {
		path := writePlan(t, tc.content)
		if _, err := Load(path); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: got %v, want ErrInvalid", tc.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("missing file should be an I/O error, got %v", err)
	}
}
