// Package pipeline coordinates one upload job: resolve the local content,
// optionally encrypt it, invoke the transfer agent, and record the outcome.
// Steps run strictly in order and short-circuit on the first failure.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"

	"github.com/stuttgart-things/beam/internal/agent"
	"github.com/stuttgart-things/beam/internal/config"
	"github.com/stuttgart-things/beam/internal/keyring"
	"github.com/stuttgart-things/beam/internal/pgp"
)

// Job is one request to upload a piece of content. It is created per
// invocation, consumed by the coordinator, and never persisted.
type Job struct {
	// LocalPath is an existing file to upload. Ignored when Bytes is set.
	LocalPath string

	// Bytes is in-memory content, materialized to a temp file before upload.
	Bytes []byte

	// RemoteName is the filename at the remote end; defaults to the base
	// name of LocalPath. Required for in-memory content.
	RemoteName string

	// Encrypt interposes the encryption step. With no Recipients the content
	// is encrypted symmetrically with a passphrase.
	Encrypt    bool
	Recipients []string
}

// Result is the outcome of one job. Success means the agent exited zero and
// returned a non-empty body.
type Result struct {
	Name     string
	URL      string
	ExitCode int
	Err      error
}

// OK reports whether the job completed successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// ResultSink receives every job outcome, success or failure.
type ResultSink interface {
	Record(name, url string, err error)
}

// Coordinator drives jobs through the pipeline. It is safe to run multiple
// async jobs concurrently: each job gets its own temp files, and the keyring
// index and sink guard their own state.
type Coordinator struct {
	cfg   *config.Config
	agent agent.Spec
	enc   *pgp.Service
	keys  *keyring.Index
	sink  ResultSink
}

// NewCoordinator wires the pipeline collaborators together.
func NewCoordinator(cfg *config.Config, spec agent.Spec, enc *pgp.Service, keys *keyring.Index, sink ResultSink) *Coordinator {
	return &Coordinator{cfg: cfg, agent: spec, enc: enc, keys: keys, sink: sink}
}

// Upload runs the job to completion on the caller's goroutine. The sink is
// invoked exactly once, whichever way the job ends.
func (c *Coordinator) Upload(ctx context.Context, job Job) Result {
	res := c.run(ctx, job)
	if c.sink != nil {
		c.sink.Record(res.Name, res.URL, res.Err)
	}
	return res
}

// UploadAsync schedules the identical pipeline on a background goroutine.
// The job's inputs are captured by value; completion is observable through
// the returned Future.
func (c *Coordinator) UploadAsync(job Job) *Future {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Future{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer cancel()
		f.result = c.Upload(ctx, job)
		close(f.done)
	}()

	return f
}

func (c *Coordinator) run(ctx context.Context, job Job) Result {
	name, err := c.resolveName(job)
	if err != nil {
		// No name could be resolved; label the failure notification.
		return Result{Name: "(stdin)", ExitCode: -1, Err: err}
	}

	src, err := c.resolveSource(job)
	if err != nil {
		return Result{Name: name, ExitCode: -1, Err: err}
	}

	if job.Encrypt {
		src, name, err = c.encrypt(src, name, job.Recipients)
		if err != nil {
			return Result{Name: name, ExitCode: -1, Err: err}
		}
	}

	remote := c.RemoteURL(name)
	out, code, err := c.agent.Invoke(ctx, src, remote)
	if err != nil {
		return Result{Name: name, ExitCode: code, Err: err}
	}

	return Result{Name: name, URL: out, ExitCode: code}
}

func (c *Coordinator) resolveName(job Job) (string, error) {
	if job.RemoteName != "" {
		return job.RemoteName, nil
	}
	if job.Bytes == nil && job.LocalPath != "" {
		return filepath.Base(job.LocalPath), nil
	}
	return "", fmt.Errorf("a remote filename is required for in-memory content")
}

// resolveSource returns the local file to hand onwards. In-memory content is
// written to a fresh temp file so concurrent jobs cannot collide.
func (c *Coordinator) resolveSource(job Job) (string, error) {
	if job.Bytes == nil {
		if _, err := os.Stat(job.LocalPath); err != nil {
			return "", fmt.Errorf("local file: %w", err)
		}
		return job.LocalPath, nil
	}

	tmp, err := os.CreateTemp(c.cfg.TempDir, "beam-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(job.Bytes); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	return tmp.Name(), nil
}

// encrypt replaces the upload source with a ciphertext temp file. The
// plaintext source is left where it was but is never handed to the agent.
func (c *Coordinator) encrypt(src, name string, references []string) (string, string, error) {
	var recipients []*openpgp.Entity
	if len(references) > 0 {
		if err := c.keys.Ensure(); err != nil {
			return src, name, err
		}
		records, err := c.keys.Resolve(references)
		if err != nil {
			return src, name, err
		}
		for _, rec := range records {
			recipients = append(recipients, rec.Entity())
		}
	}

	tmp, err := os.CreateTemp(c.cfg.TempDir, "beam-*.gpg")
	if err != nil {
		return src, name, fmt.Errorf("creating ciphertext temp file: %w", err)
	}
	dst := tmp.Name()
	tmp.Close()

	if err := c.enc.EncryptFile(src, dst, recipients); err != nil {
		return src, name, err
	}

	if !strings.HasSuffix(name, ".gpg") {
		name += ".gpg"
	}
	return dst, name, nil
}

// RemoteURL builds the destination URL for a remote filename, applying the
// configured prefix and suffix.
func (c *Coordinator) RemoteURL(name string) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + "/" + c.cfg.RemotePrefix + name + c.cfg.RemoteSuffix
}
