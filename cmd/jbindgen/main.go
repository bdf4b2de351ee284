// Command jbindgen generates typed Go bindings from a declaration file.
//
//	jbindgen -in widgets.json -pkg widgets -out widgets/bindings.go
//
// It is meant to run from go:generate:
//
//	//go:generate jbindgen -in widgets.json -out bindings_gen.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/gen"
)

func main() {
	var (
		in      = flag.String("in", "", "Path to declaration file (JSON)")
		pkg     = flag.String("pkg", "", "Go package name (defaults to the file's package)")
		out     = flag.String("out", "", "Output file (defaults to stdout)")
		verbose = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "Usage: jbindgen -in <classes.json> [-pkg name] [-out file.go]")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	if err := run(os.Stdout, *in, *pkg, *out, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(stdout io.Writer, in, pkg, out string, log *zap.Logger) error {
	f, err := decl.LoadFile(in)
	if err != nil {
		return fmt.Errorf("load declarations: %w", err)
	}
	log.Debug("declarations loaded", zap.String("file", in), zap.Int("classes", len(f.Classes)))

	src, err := gen.Generate(f, &gen.Options{Package: pkg, Source: filepath.Base(in)})
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if out == "" {
		_, err = stdout.Write(src)
		return err
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	log.Info("bindings written", zap.String("file", out), zap.Int("bytes", len(src)))
	return nil
}
