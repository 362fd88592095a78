package extract

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/zipaJopa/PAJ/internal/transcript"
)

// The sub-agent stop hook fires before the runtime has necessarily appended
// the Task tool_result to the transcript, so the sub-agent variant re-reads
// the file a bounded number of times.
const (
	defaultMaxAttempts = 10
	defaultInterval    = 100 * time.Millisecond
)

// errResultPending signals a retryable condition: the delegation's result
// record has not been appended yet.
var errResultPending = errors.New("sub-task result not yet in transcript")

// RetryOptions configure the sub-agent extraction retry loop. Zero values
// take the defaults; tests inject a small interval.
type RetryOptions struct {
	MaxAttempts int
	Interval    time.Duration
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	return o
}

// linearBackOff waits interval·attempt between tries: 100ms, 200ms, 300ms…
// for the default interval. Implements backoff.BackOff.
type linearBackOff struct {
	interval time.Duration
	attempt  int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.interval
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// ExtractSubagentFromFile extracts the completion for a delegated sub-task,
// retrying while the result record is still missing. When no delegation
// materializes within the attempt budget, it falls back to a plain
// extraction of the last assistant message.
func ExtractSubagentFromFile(path string, opts RetryOptions) (Completion, bool, error) {
	opts = opts.withDefaults()

	var completion Completion
	var found bool

	operation := func() error {
		records, err := transcript.Read(path)
		if err != nil {
			// Missing transcript is an idle condition, never retried.
			return backoff.Permanent(err)
		}

		d, ok := findDelegation(records)
		if !ok || !d.resolved {
			return errResultPending
		}

		lastUser := transcript.LastUserText(records)
		completion, found = extractFromText(d.resultText, lastUser, d.actorType)
		return nil
	}

	b := backoff.WithMaxRetries(
		&linearBackOff{interval: opts.Interval},
		uint64(opts.MaxAttempts-1),
	)
	if err := backoff.Retry(operation, b); err != nil {
		if errors.Is(err, errResultPending) {
			// Attempts exhausted without a delegation result; the last
			// assistant message is the best remaining candidate.
			return ExtractFromFile(path)
		}
		return Completion{}, false, err
	}

	return completion, found, nil
}
