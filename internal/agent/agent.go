package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Slot tokens substituted into the argument template per invocation.
const (
	SourceSlot      = "{source}"
	DestinationSlot = "{destination}"
)

// Variant identifies how an agent expresses an HTTP upload.
type Variant string

const (
	PutStyle        Variant = "put"
	UploadFileStyle Variant = "upload-file"
	CustomStyle     Variant = "custom"
)

// Spec describes a transfer agent: an executable plus an ordered argument
// template with one source and one destination slot. Immutable once built.
type Spec struct {
	Command string
	Args    []string
	Variant Variant
}

// builtins are probed in order; first command found on PATH wins.
var builtins = []Spec{
	{
		Command: "wget",
		Args:    []string{"--quiet", "--method", "PUT", "--output-document", "-", "--body-file", SourceSlot, DestinationSlot},
		Variant: PutStyle,
	},
	{
		Command: "curl",
		Args:    []string{"--silent", "--show-error", "--upload-file", SourceSlot, DestinationSlot},
		Variant: UploadFileStyle,
	},
}

// Detect selects the transfer agent once at configuration time.
//
// An explicitly configured command always overrides probing. If the command
// matches a built-in agent and no template is given, the built-in template is
// used; otherwise a custom template is required. With no command configured,
// the built-in agents are probed on PATH and the first one found wins.
func Detect(command string, args []string) (Spec, error) {
	if command != "" {
		path, err := exec.LookPath(command)
		if err != nil {
			return Spec{}, &Error{Kind: ExecutableNotFound, Command: command, Err: err}
		}

		if len(args) > 0 {
			spec := Spec{Command: path, Args: args, Variant: CustomStyle}
			if err := spec.validate(); err != nil {
				return Spec{}, err
			}
			return spec, nil
		}

		for _, b := range builtins {
			if b.Command == command {
				return Spec{Command: path, Args: b.Args, Variant: b.Variant}, nil
			}
		}
		return Spec{}, fmt.Errorf("agent %q has no built-in argument template: %w", command, ErrBadTemplate)
	}

	if len(args) > 0 {
		return Spec{}, fmt.Errorf("agent argument template given without an agent command: %w", ErrBadTemplate)
	}

	for _, b := range builtins {
		if path, err := exec.LookPath(b.Command); err == nil {
			return Spec{Command: path, Args: b.Args, Variant: b.Variant}, nil
		}
	}

	return Spec{}, ErrNoAgent
}

// validate checks the slot invariant: exactly one source and one destination.
func (s Spec) validate() error {
	src, dst := 0, 0
	for _, a := range s.Args {
		switch a {
		case SourceSlot:
			src++
		case DestinationSlot:
			dst++
		}
	}
	if src != 1 || dst != 1 {
		return fmt.Errorf("agent %q: %w", s.Command, ErrBadTemplate)
	}
	return nil
}

// buildArgs substitutes the slots, preserving fixed flags and their order.
func (s Spec) buildArgs(localPath, remoteURL string) []string {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		switch a {
		case SourceSlot:
			args[i] = localPath
		case DestinationSlot:
			args[i] = remoteURL
		default:
			args[i] = a
		}
	}
	return args
}

// Invoke runs the agent against a local file and a remote URL, blocking until
// the process exits or ctx is cancelled. Stdout is captured as the result
// text with trailing whitespace stripped; stderr is kept for diagnostics.
func (s Spec) Invoke(ctx context.Context, localPath, remoteURL string) (string, int, error) {
	cmd := exec.CommandContext(ctx, s.Command, s.buildArgs(localPath, remoteURL)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := strings.TrimRight(stdout.String(), " \t\r\n")

	if ctx.Err() != nil {
		return output, -1, &Error{Kind: Cancelled, Command: s.Command, ExitCode: -1, Output: output, Err: ctx.Err()}
	}

	if runErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = runErr.Error()
		}
		return output, code, &Error{
			Kind:     NonZeroExit,
			Command:  s.Command,
			ExitCode: code,
			Output:   output,
			Err:      errors.New(detail),
		}
	}

	if output == "" {
		return "", 0, &Error{Kind: EmptyResponse, Command: s.Command, Output: output}
	}

	return output, 0, nil
}
