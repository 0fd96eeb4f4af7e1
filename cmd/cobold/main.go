// Command cobold drives the Parser -> TypeCheck -> Lower pipeline over a
// single source file and writes the resulting LLIR as textual assembly.
// Object-file emission and linking are left to an external backend and
// the system linker; this driver only owns file selection, phase
// sequencing, and diagnostics rendering.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/cobold-lang/cobold/internal/diag"
	"github.com/cobold-lang/cobold/internal/lower"
	"github.com/cobold-lang/cobold/internal/parser"
	"github.com/cobold-lang/cobold/internal/typecheck"
)

const externAllocatorName = "__lib_malloc"

func main() {
	var (
		sourcePath = flag.String("input", "", "Path to the Cobold source file")
		outputPath = flag.String("output", "/dev/stdout", "Path to write the emitted LLIR assembly")
	)
	flag.Parse()

	if *sourcePath == "" {
		log.Fatal("Source file not informed")
	}

	src, err := os.ReadFile(*sourcePath)
	if err != nil {
		log.Fatalf("Can't read source file: %s", err.Error())
	}

	bag := diag.NewBag()

	p := parser.New(*sourcePath, src, bag)
	sf := p.Parse()
	if bag.HasErrors() {
		bag.Drain(os.Stderr)
		os.Exit(1)
	}

	checker := typecheck.New(bag, externAllocatorName)
	sf = checker.Check(sf)
	if bag.HasErrors() {
		bag.Drain(os.Stderr)
		os.Exit(1)
	}

	lw := lower.New(bag)
	module := lw.Lower(sf)
	if bag.HasErrors() {
		bag.Drain(os.Stderr)
		os.Exit(1)
	}

	if err := os.WriteFile(*outputPath, []byte(module.String()), 0644); err != nil {
		log.Fatalf("Can't write output: %s", err.Error())
	}
}
