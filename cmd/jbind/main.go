// Command jbind inspects a declaration file against a JVM. It lists the
// declared classes, verifies that every member resolves, or browses and
// calls members interactively.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/jni-bind/decl"
	"github.com/wippyai/jni-bind/loader"
)

func main() {
	var (
		declFile    = flag.String("decl", "", "Path to declaration file (JSON)")
		list        = flag.Bool("list", false, "List declared classes and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		classPath   = flag.String("cp", "", "Class path, separated by the OS path list separator")
		javaHome    = flag.String("java-home", "", "JDK or JRE location (defaults to $JAVA_HOME)")
		jvmArgs     = flag.String("jvm-args", "", "Extra VM options (comma-separated)")
		dry         = flag.Bool("dry", false, "Use an in-memory VM built from the declarations")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *declFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: jbind -decl <classes.json> [-cp path] [-java-home dir] [-jvm-args a,b]")
		fmt.Fprintln(os.Stderr, "       jbind -decl <classes.json> -list")
		fmt.Fprintln(os.Stderr, "       jbind -decl <classes.json> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       jbind -decl <classes.json> -dry  (no JVM needed)")
		os.Exit(1)
	}

	log := zap.NewNop()
	if *verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	opts := options{
		classPath: splitList(*classPath, string(filepath.ListSeparator)),
		jvmArgs:   splitList(*jvmArgs, ","),
		javaHome:  *javaHome,
		dry:       *dry,
		log:       log,
	}

	if err := run(os.Stdout, *declFile, opts, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, declFile string, opts options, listOnly, interactive bool) error {
	f, err := decl.LoadFile(declFile)
	if err != nil {
		return fmt.Errorf("load declarations: %w", err)
	}
	open := func() (*session, error) { return openSession(f, opts) }

	if interactive {
		return runInteractive(declFile, f, open)
	}

	out := newLister(w)
	if listOnly {
		loaders, err := loader.FromSpecs(f.Loaders, f.Classes)
		if err != nil {
			return fmt.Errorf("loaders: %w", err)
		}
		out.list(f, loaders)
		return nil
	}

	sess, err := open()
	if err != nil {
		return fmt.Errorf("start runtime: %w", err)
	}
	verr := sess.verify(out.verified)
	if err := sess.close(); err != nil && verr == nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return verr
}

func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
