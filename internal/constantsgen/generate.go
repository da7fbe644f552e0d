// Package constantsgen generates the constants_generated.go file
// constants.go's DeriveConstants is seeded from. It mirrors the role the
// original crate's build.rs played: pick fresh entropy once per build,
// expand it deterministically, and freeze the result into checked-in Go
// source so every run of the resulting binary sees the same tables.
package constantsgen

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/imports"

	"github.com/arjunv/shardkey"
)

// Options configures a single generation run.
type Options struct {
	// Seed is the explicit seed to derive constants from. If empty, a
	// fresh one is produced by DefaultSeed.
	Seed []byte
	// OutPath is where the generated file will eventually be written;
	// Generate uses it only to locate a nearby go.mod and to drive
	// import-path resolution, it does not write the file itself.
	OutPath string
	// ModulePath overrides the module path recorded in the generated
	// file's header comment. If empty, it is read from the go.mod
	// nearest OutPath.
	ModulePath string
	// GOOS is the target OS. Generation refuses anything but "linux".
	// Defaults to the running toolchain's GOOS.
	GOOS string
}

// DefaultSeed mixes the current wall-clock time with operating-system
// entropy, the same two ingredients the original build script mixed
// (there: a timestamp hashed with a fixed hasher; here: a timestamp
// concatenated with real randomness, which is strictly stronger).
func DefaultSeed() ([]byte, error) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[:8], uint64(time.Now().UnixNano()))
	if _, err := rand.Read(buf[8:]); err != nil {
		return nil, fmt.Errorf("constantsgen: read entropy: %w", err)
	}
	return buf, nil
}

// Generate renders a ready-to-write constants_generated.go for opts,
// gofmt'd and import-fixed. It does not write anything to disk; callers
// (cmd/gencrypto) decide where the bytes go.
func Generate(opts Options) ([]byte, error) {
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "linux" {
		return nil, fmt.Errorf("constantsgen: shardkey requires GOOS=linux, got %q", goos)
	}

	seed := opts.Seed
	if len(seed) == 0 {
		var err error
		seed, err = DefaultSeed()
		if err != nil {
			return nil, err
		}
	}

	// Derive now, eagerly, purely to fail fast on a bad seed before any
	// file is written; the rendered file re-derives the same value at
	// its own init time from the frozen seed below.
	_ = shardkey.DeriveConstants(seed)

	modulePath := opts.ModulePath
	if modulePath == "" {
		if mp, err := readModulePath(opts.OutPath); err == nil {
			modulePath = mp
		} else {
			modulePath = "unknown"
		}
	}

	src, err := render(seed, modulePath)
	if err != nil {
		return nil, err
	}

	formatted, err := imports.Process(opts.OutPath, src, nil)
	if err != nil {
		// No go.mod reachable from OutPath (a scratch directory, say):
		// fall back to plain gofmt rather than failing the whole run.
		if gf, gerr := format.Source(src); gerr == nil {
			return gf, nil
		}
		return nil, fmt.Errorf("constantsgen: format generated source: %w", err)
	}
	return formatted, nil
}

func readModulePath(outPath string) (string, error) {
	if outPath == "" {
		return "", fmt.Errorf("constantsgen: no output path given")
	}
	dir := filepath.Dir(outPath)
	if !filepath.IsAbs(dir) {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		data, err := os.ReadFile(candidate)
		if err == nil {
			f, perr := modfile.Parse(candidate, data, nil)
			if perr != nil {
				return "", perr
			}
			if f.Module != nil {
				return f.Module.Mod.Path, nil
			}
			return "", fmt.Errorf("constantsgen: %s has no module directive", candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("constantsgen: no go.mod found above %s", outPath)
		}
		dir = parent
	}
}

var generatedTemplate = template.Must(template.New("constants").Parse(`// Code generated by internal/constantsgen; DO NOT EDIT.
//
// This file pins the seed recorded by one run of the generator. Re-running
// it with a fresh seed changes every derived constant for the next build.
//
// Generated for module {{.ModulePath}}.

package shardkey

//go:generate go run ./internal/constantsgen/cmd/gencrypto -out constants_generated.go

var buildSeed = []byte{
{{range .SeedBytes}}	{{.}},
{{end}}}

var buildConstants = DeriveConstants(buildSeed)
`))

func render(seed []byte, modulePath string) ([]byte, error) {
	seedBytes := make([]string, len(seed))
	for i, b := range seed {
		seedBytes[i] = fmt.Sprintf("0x%02x", b)
	}
	data := struct {
		ModulePath string
		SeedBytes  []string
	}{ModulePath: modulePath, SeedBytes: seedBytes}

	var buf bytes.Buffer
	if err := generatedTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("constantsgen: render template: %w", err)
	}
	return buf.Bytes(), nil
}
