package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/danmuck/meshu3d/internal/observability"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

// Chain tries strategies in order.
type Chain struct {
	Strategies []Strategy
	// Placeholder writes u3d.Placeholder() when every strategy failed.
	Placeholder bool
}

// Attempt is the record of one strategy run.
type Attempt struct {
	Strategy string
	Outcome  string
	Err      error
	Duration time.Duration
}

// Result describes how the chain ended.
type Result struct {
	Output string
	// Strategy is the id that produced the output, empty on failure.
	Strategy    string
	Placeholder bool
	Attempts    []Attempt
}

// Run executes the chain. When the placeholder was written the returned
// error still wraps ErrAllFailed.
func (c Chain) Run(job Job) (Result, error) {
	res := Result{Output: job.Output}
	if strings.TrimSpace(job.Input) == "" || strings.TrimSpace(job.Output) == "" {
		return res, fmt.Errorf("%w: input and output are required", ErrInvalidJob)
	}
	if filepath.Clean(job.Input) == filepath.Clean(job.Output) {
		return res, fmt.Errorf("%w: output would overwrite input %s", ErrInvalidJob, job.Input)
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		return res, err
	}
	if err := os.MkdirAll(job.workDir(), 0o755); err != nil {
		return res, err
	}

	for _, s := range c.Strategies {
		id := s.Metadata().ID
		if err := os.Remove(job.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
			return res, err
		}

		log.Info().Str("strategy", id).Str("input", job.Input).Msg("convert.chain attempt")
		start := time.Now()
		err := s.Convert(job)
		if err == nil {
			err = u3d.OutputReady(job.Output)
		}
		elapsed := time.Since(start)

		attempt := Attempt{Strategy: id, Err: err, Duration: elapsed}
		switch {
		case err == nil:
			attempt.Outcome = observability.OutcomeSuccess
			log.Info().Str("strategy", id).Str("output", job.Output).Dur("took", elapsed).Msg("convert.chain success")
		case errors.Is(err, ErrSkipped):
			attempt.Outcome = observability.OutcomeSkipped
			log.Info().Str("strategy", id).Err(err).Msg("convert.chain skipped")
		default:
			attempt.Outcome = observability.OutcomeFailed
			log.Warn().Str("strategy", id).Err(err).Msg("convert.chain failed")
		}
		observability.RecordConvertAttempt(id, attempt.Outcome, elapsed)
		res.Attempts = append(res.Attempts, attempt)

		if err == nil {
			res.Strategy = id
			return res, nil
		}
	}

	failed := fmt.Errorf("%w: tried=%s", ErrAllFailed, strings.Join(res.ids(), ","))
	if !c.Placeholder {
		return res, failed
	}
	if err := u3d.WritePlaceholder(job.Output); err != nil {
		return res, errors.Join(failed, err)
	}
	observability.RecordPlaceholder("u3d")
	res.Placeholder = true
	log.Warn().Str("output", job.Output).Msg("convert.chain wrote placeholder")
	return res, failed
}

func (r Result) ids() []string {
	out := make([]string, 0, len(r.Attempts))
	for _, a := range r.Attempts {
		out = append(out, a.Strategy)
	}
	return out
}
