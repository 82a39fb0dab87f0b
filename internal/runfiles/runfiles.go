// Package runfiles discovers and resolves runfiles: logical forward-slash
// paths mapped to physical paths, either through a manifest file or a
// directory tree.
package runfiles

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	env "github.com/xyproto/env/v2"
)

// Environment variables consumed during discovery and produced for child
// processes.
const (
	ManifestFileVar = "RUNFILES_MANIFEST_FILE"
	DirVar          = "RUNFILES_DIR"
	JavaDirVar      = "JAVA_RUNFILES"
)

// Manifest limits.
const (
	MaxManifestBytes   = 64 << 10
	MaxManifestEntries = 1024
)

var (
	// ErrNotFound reports a key absent from the active manifest.
	ErrNotFound = errors.New("runfiles key not found")
	// ErrBadManifest reports a manifest exceeding limits or containing
	// malformed lines.
	ErrBadManifest = errors.New("malformed runfiles manifest")
)

// Mode selects between the two lookup strategies.
type Mode int

const (
	ManifestMode Mode = iota
	DirectoryMode
)

type entry struct {
	key, value string
}

// Runfiles answers Rlocation lookups for one discovered runfiles source.
type Runfiles struct {
	mode         Mode
	entries      []entry // manifest mode; input order, first match wins
	manifestPath string  // manifest mode
	dir          string  // directory mode, or inferred next to a self-located manifest
}

// Create discovers runfiles for the current process: the manifest named by
// RUNFILES_MANIFEST_FILE, the tree named by RUNFILES_DIR, or a manifest or
// tree next to the executable. Returns (nil, nil) when nothing is found;
// lookups are then unavailable, which only matters to callers that need one.
func Create() (*Runfiles, error) {
	argv0 := ""
	if len(os.Args) > 0 {
		argv0 = os.Args[0]
	}
	if argv0 == "" {
		if exe, err := os.Executable(); err == nil {
			argv0 = exe
		}
	}
	return CreateFrom(argv0, env.Str(ManifestFileVar), env.Str(DirVar))
}

// CreateFrom is Create with explicit discovery inputs, first match wins.
func CreateFrom(argv0, manifestEnv, dirEnv string) (*Runfiles, error) {
	if manifestEnv != "" && isFile(manifestEnv) {
		return fromManifest(manifestEnv, "")
	}
	if dirEnv != "" && isDir(dirEnv) {
		return &Runfiles{mode: DirectoryMode, dir: dirEnv}, nil
	}
	if argv0 != "" {
		if mf := argv0 + ".runfiles_manifest"; isFile(mf) {
			dir := ""
			if d := argv0 + ".runfiles"; isDir(d) {
				dir = d
			}
			return fromManifest(mf, dir)
		}
		if d := argv0 + ".runfiles"; isDir(d) {
			return &Runfiles{mode: DirectoryMode, dir: d}, nil
		}
	}
	return nil, nil
}

func fromManifest(path, inferredDir string) (*Runfiles, error) {
	entries, err := parseManifest(path)
	if err != nil {
		return nil, err
	}
	return &Runfiles{
		mode:         ManifestMode,
		entries:      entries,
		manifestPath: path,
		dir:          inferredDir,
	}, nil
}

// Mode reports the active lookup strategy.
func (r *Runfiles) Mode() Mode {
	return r.mode
}

// Rlocation maps a forward-slash logical path to a physical path. Absolute
// keys bypass resolution. Directory mode concatenates without checking
// existence; a dangling result fails cleanly at launch instead.
func (r *Runfiles) Rlocation(key string) (string, error) {
	if isAbsolute(key, runtime.GOOS) {
		return key, nil
	}
	if r.mode == ManifestMode {
		for _, e := range r.entries {
			if e.key == key {
				return e.value, nil
			}
		}
		return "", fmt.Errorf("%w: %q in %s", ErrNotFound, key, r.manifestPath)
	}
	return joinDir(r.dir, key, runtime.GOOS), nil
}

// EnvVars returns the variables a stub exports so a child process can find
// the same runfiles.
func (r *Runfiles) EnvVars() map[string]string {
	vars := make(map[string]string, 3)
	if r.mode == ManifestMode {
		vars[ManifestFileVar] = r.manifestPath
	}
	if r.dir != "" {
		vars[DirVar] = r.dir
		vars[JavaDirVar] = r.dir
	}
	return vars
}

func isAbsolute(path, goos string) bool {
	if path == "" {
		return false
	}
	if goos == "windows" {
		if strings.HasPrefix(path, `\\`) {
			return true
		}
		return len(path) >= 3 && isDriveLetter(path[0]) && path[1] == ':' && path[2] == '\\'
	}
	return path[0] == '/'
}

func isDriveLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func joinDir(dir, key, goos string) string {
	if goos == "windows" {
		return strings.TrimSuffix(dir, `\`) + `\` + strings.ReplaceAll(key, "/", `\`)
	}
	return strings.TrimSuffix(dir, "/") + "/" + key
}

// isFile reports whether path names a regular file that can be opened for
// reading.
func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
