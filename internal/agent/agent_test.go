package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeStub writes an executable shell script into a temp dir and returns its path.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub agents require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "stub-agent")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("writing stub agent: %v", err)
	}
	return path
}

func TestBuildArgs(t *testing.T) {
	spec := Spec{
		Command: "wget",
		Args:    []string{"--quiet", "--method", "PUT", "--output-document", "-", "--body-file", SourceSlot, DestinationSlot},
	}

	args := spec.buildArgs("/tmp/notes.txt", "https://example.test/notes.txt")

	want := []string{"--quiet", "--method", "PUT", "--output-document", "-", "--body-file", "/tmp/notes.txt", "https://example.test/notes.txt"}
	if len(args) != len(want) {
		t.Fatalf("got %d args, want %d", len(args), len(want))
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	cases := []struct {
		name string
		args []string
		ok   bool
	}{
		{"valid", []string{"-T", SourceSlot, DestinationSlot}, true},
		{"missing source", []string{DestinationSlot}, false},
		{"missing destination", []string{SourceSlot}, false},
		{"duplicate source", []string{SourceSlot, SourceSlot, DestinationSlot}, false},
	}

	for _, tc := range cases {
		spec := Spec{Command: "x", Args: tc.args}
		err := spec.validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected error", tc.name)
			} else if !errors.Is(err, ErrBadTemplate) {
				t.Errorf("%s: expected ErrBadTemplate, got %v", tc.name, err)
			}
		}
	}
}

func TestDetectExecutableNotFound(t *testing.T) {
	_, err := Detect("definitely-not-a-real-agent-binary", nil)
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
	if !IsKind(err, ExecutableNotFound) {
		t.Errorf("expected ExecutableNotFound, got %v", err)
	}
}

func TestDetectCustomTemplateValidated(t *testing.T) {
	stub := writeStub(t, "exit 0\n")

	_, err := Detect(stub, []string{"--upload", SourceSlot})
	if !errors.Is(err, ErrBadTemplate) {
		t.Errorf("expected ErrBadTemplate, got %v", err)
	}

	spec, err := Detect(stub, []string{"--upload", SourceSlot, DestinationSlot})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Variant != CustomStyle {
		t.Errorf("expected custom variant, got %s", spec.Variant)
	}
}

func TestDetectTemplateWithoutCommand(t *testing.T) {
	_, err := Detect("", []string{SourceSlot, DestinationSlot})
	if !errors.Is(err, ErrBadTemplate) {
		t.Errorf("expected ErrBadTemplate, got %v", err)
	}
}

func TestInvokeSuccess(t *testing.T) {
	stub := writeStub(t, `echo "https://example.test/abc123/notes.txt"`+"\n")
	spec := Spec{Command: stub, Args: []string{SourceSlot, DestinationSlot}}

	out, code, err := spec.Invoke(context.Background(), "/tmp/notes.txt", "https://example.test/notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if out != "https://example.test/abc123/notes.txt" {
		t.Errorf("expected trimmed URL, got %q", out)
	}
}

func TestInvokeNonZeroExit(t *testing.T) {
	stub := writeStub(t, "echo partial\necho 'connection refused' >&2\nexit 1\n")
	spec := Spec{Command: stub, Args: []string{SourceSlot, DestinationSlot}}

	out, code, err := spec.Invoke(context.Background(), "/tmp/f", "https://example.test/f")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !IsKind(err, NonZeroExit) {
		t.Fatalf("expected NonZeroExit, got %v", err)
	}
	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}

	// Partial output is still surfaced for diagnostics.
	if out != "partial" {
		t.Errorf("expected partial output, got %q", out)
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Output != "partial" {
		t.Errorf("error should carry partial output, got %q", ae.Output)
	}
}

func TestInvokeEmptyResponse(t *testing.T) {
	stub := writeStub(t, "exit 0\n")
	spec := Spec{Command: stub, Args: []string{SourceSlot, DestinationSlot}}

	_, _, err := spec.Invoke(context.Background(), "/tmp/f", "https://example.test/f")
	if !IsKind(err, EmptyResponse) {
		t.Errorf("expected EmptyResponse, got %v", err)
	}
}

func TestInvokeCancelled(t *testing.T) {
	stub := writeStub(t, "sleep 10\n")
	spec := Spec{Command: stub, Args: []string{SourceSlot, DestinationSlot}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, _, err := spec.Invoke(ctx, "/tmp/f", "https://example.test/f")
	if !IsKind(err, Cancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancel did not terminate the agent process promptly")
	}
}
