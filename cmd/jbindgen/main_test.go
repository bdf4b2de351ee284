package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	jerrors "github.com/wippyai/jni-bind/errors"
)

const counterJSON = `{
  "package": "counters",
  "classes": [{
    "name": "com/example/Counter",
    "fields": [{"name": "count", "type": "I"}],
    "constructors": ["()V"],
    "methods": [{"name": "inc", "overloads": ["()I"]}]
  }]
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunStdout(t *testing.T) {
	in := writeFile(t, "counter.json", counterJSON)
	var buf bytes.Buffer
	if err := run(&buf, in, "", "", zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	src := buf.String()
	for _, want := range []string{
		"// Code generated by jbindgen from counter.json. DO NOT EDIT.",
		"package counters",
		"type Counter struct",
		"func (o Counter) Inc() (int32, error)",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("output missing %q:\n%s", want, src)
		}
	}
}

func TestRunFile(t *testing.T) {
	in := writeFile(t, "counter.json", counterJSON)
	out := filepath.Join(t.TempDir(), "counter_gen.go")
	var buf bytes.Buffer
	if err := run(&buf, in, "other", out, zap.NewNop()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("stdout written when -out is set")
	}
	src, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "package other") {
		t.Fatalf("package override ignored:\n%s", src)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(&bytes.Buffer{}, filepath.Join(t.TempDir(), "absent.json"), "", "", zap.NewNop()); err == nil {
		t.Fatal("missing input accepted")
	}

	in := writeFile(t, "counter.json", counterJSON)
	err := run(&bytes.Buffer{}, in, "not a package", "", zap.NewNop())
	if !errors.Is(err, &jerrors.Error{Phase: jerrors.PhaseGenerate, Kind: jerrors.KindInvalidInput}) {
		t.Fatalf("bad package err = %v", err)
	}
}
