//go:build ignore

// generate_testdata.go creates standard register fixtures for tests and
// benchmarks.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	tests/testdata/registers/nested.json    (deep container chain)
//	tests/testdata/registers/wide.json      (many stations, many persons)
//	tests/testdata/registers/balanced.json  (uniform container tree)
//	tests/testdata/registers/loose.json     (unfiled supplies)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jake-the-creative/dehc-1/pkg/testutil"
)

func main() {
	outDir := filepath.Join("tests", "testdata", "registers")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	gen := testutil.New(testutil.GeneratorConfig{Seed: 42, WithFlags: true})

	fixtures := map[string]testutil.HierarchyFixture{
		"nested.json":   gen.Nested(12),
		"wide.json":     gen.Wide(8, 25),
		"balanced.json": gen.Balanced(4, 3),
		"loose.json":    gen.Loose(40),
	}

	for name, f := range fixtures {
		data, err := testutil.MarshalFixture(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(1)
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s (%d items, %d edges)\n", path, len(f.Items), len(f.Edges))
	}
}
