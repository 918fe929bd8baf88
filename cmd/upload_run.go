package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/stuttgart-things/beam/internal/agent"
	"github.com/stuttgart-things/beam/internal/keyring"
	"github.com/stuttgart-things/beam/internal/pgp"
	"github.com/stuttgart-things/beam/internal/pipeline"
	"github.com/stuttgart-things/beam/internal/registry"
	"github.com/stuttgart-things/beam/internal/sink"
)

// buildJobs turns the file arguments into upload jobs. "-" reads stdin once;
// a remote name override only makes sense for a single source.
func buildJobs(uc *UploadConfig, stdin io.Reader) ([]pipeline.Job, error) {
	if len(uc.Files) == 0 {
		return nil, fmt.Errorf("at least one file argument is required")
	}
	if uc.RemoteName != "" && len(uc.Files) > 1 {
		return nil, fmt.Errorf("--name cannot be combined with multiple files")
	}

	var jobs []pipeline.Job
	stdinUsed := false

	for _, f := range uc.Files {
		if f == "-" {
			if stdinUsed {
				return nil, fmt.Errorf("stdin can only be read once")
			}
			stdinUsed = true

			if uc.RemoteName == "" {
				return nil, fmt.Errorf("--name is required when reading from stdin")
			}
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			if len(data) == 0 {
				return nil, fmt.Errorf("stdin was empty")
			}
			jobs = append(jobs, pipeline.Job{
				Bytes:      data,
				RemoteName: uc.RemoteName,
				Encrypt:    uc.Encrypt,
				Recipients: uc.Recipients,
			})
			continue
		}

		jobs = append(jobs, pipeline.Job{
			LocalPath:  f,
			RemoteName: uc.RemoteName,
			Encrypt:    uc.Encrypt,
			Recipients: uc.Recipients,
		})
	}

	return jobs, nil
}

// executeUploads runs the jobs through the pipeline: one job blocks, several
// run concurrently. Every outcome is notified through the sink; successes are
// appended to the upload registry.
func executeUploads(uc *UploadConfig, jobs []pipeline.Job, passphrase pgp.PassphraseFunc) error {
	cfg := uc.Settings

	spec, err := agent.Detect(cfg.AgentCommand, cfg.AgentArgs)
	if err != nil {
		return fmt.Errorf("selecting transfer agent: %w", err)
	}

	notify := func(message string, failed bool) {
		if failed {
			fmt.Println(errorStyle.Render(message))
			return
		}
		fmt.Println(successStyle.Render(message))
	}

	keys := keyring.NewIndex(cfg.KeyringPath, cfg.KeyReferenceSeparator)
	enc := pgp.NewService(passphrase)
	results := sink.New(notify, cfg.Clipboard)
	coord := pipeline.NewCoordinator(cfg, spec, enc, keys, results)

	var outcomes []pipeline.Result

	if len(jobs) == 1 {
		outcomes = append(outcomes, coord.Upload(context.Background(), jobs[0]))
	} else {
		fmt.Println(progressStyle.Render(fmt.Sprintf("Uploading %d files...", len(jobs))))
		var futures []*pipeline.Future
		for _, job := range jobs {
			futures = append(futures, coord.UploadAsync(job))
		}
		for _, f := range futures {
			outcomes = append(outcomes, f.Wait())
		}
	}

	failed := 0
	for i, res := range outcomes {
		if !res.OK() {
			failed++
			continue
		}
		if !uc.NoRegistry && cfg.RegistryPath != "" {
			entry := registry.UploadEntry{
				Name:       res.Name,
				URL:        res.URL,
				Source:     jobs[i].LocalPath,
				Agent:      spec.Command,
				Encrypted:  jobs[i].Encrypt,
				Recipients: jobs[i].Recipients,
				UploadedAt: time.Now().UTC().Format(time.RFC3339),
			}
			if err := registry.Record(cfg.RegistryPath, entry); err != nil {
				fmt.Println(errorStyle.Render(fmt.Sprintf("Warning: recording upload: %v", err)))
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(outcomes))
	}
	return nil
}
