// Package submit delivers a signed transaction to the network and polls for
// a terminal status, generalizing the teacher's fixed-attempt wait loop into
// a deadline-bounded policy callers can parameterize.
package submit

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Status values mirror the RPC's status fields for sendTransaction and
// getTransaction.
const (
	StatusPending   = "PENDING"
	StatusDuplicate = "DUPLICATE"
	StatusNotFound  = "NOT_FOUND"
	StatusSuccess   = "SUCCESS"
	StatusFailed    = "FAILED"
	StatusError     = "ERROR"
)

// ErrRpcUnavailable is returned once consecutive poll failures exceed the
// policy's bound.
var ErrRpcUnavailable = errors.New("submit: rpc unavailable after repeated errors")

// ErrCancelled is returned when the caller's context is done before a
// terminal status is observed.
var ErrCancelled = errors.New("submit: cancelled")

// SubmissionRejected is returned when send-transaction itself reports ERROR.
type SubmissionRejected struct {
	Hash   string
	Detail string
}

func (e *SubmissionRejected) Error() string {
	return "submit: rejected: " + e.Detail
}

// SubmissionTimeout is returned when the poll deadline expires before a
// terminal status is observed; it carries the last status seen.
type SubmissionTimeout struct {
	Hash       string
	LastStatus string
}

func (e *SubmissionTimeout) Error() string {
	return "submit: timed out polling " + e.Hash + ", last status " + e.LastStatus
}

// Policy configures the poll loop. The zero value uses the defaults noted
// on each field.
type Policy struct {
	// PollInterval between getTransaction calls. Defaults to one second.
	PollInterval time.Duration
	// Deadline bounds the total time spent polling. Defaults to 30s.
	Deadline time.Duration
	// MaxPollErrors bounds consecutive transport errors before giving up.
	// Defaults to 5.
	MaxPollErrors int
}

func (p Policy) withDefaults() Policy {
	if p.PollInterval <= 0 {
		p.PollInterval = time.Second
	}
	if p.Deadline <= 0 {
		p.Deadline = 30 * time.Second
	}
	if p.MaxPollErrors <= 0 {
		p.MaxPollErrors = 5
	}
	return p
}

// SendFunc submits a signed transaction and reports the RPC's immediate
// response: the transaction hash, its status, and, for an ERROR status, the
// base64 result XDR describing the rejection.
type SendFunc func(ctx context.Context) (hash, status, errorResultXdr string, err error)

// PollFunc fetches the current status for a transaction hash.
type PollFunc func(ctx context.Context, hash string) (status string, err error)

// Run submits via send, then — if the submission is only PENDING or
// DUPLICATE — polls via poll until a terminal status (SUCCESS or FAILED),
// the policy's deadline expires, or ctx is cancelled.
func Run(ctx context.Context, policy Policy, send SendFunc, poll PollFunc) (hash, status string, err error) {
	policy = policy.withDefaults()

	hash, status, errorResultXdr, err := send(ctx)
	if err != nil {
		return "", "", err
	}
	if status == StatusError {
		return hash, status, &SubmissionRejected{Hash: hash, Detail: errorResultXdr}
	}
	if status != StatusPending && status != StatusDuplicate {
		return hash, status, nil
	}

	deadline := time.Now().Add(policy.Deadline)
	last := status
	consecutiveErrors := 0
	for {
		if time.Now().After(deadline) {
			return hash, last, &SubmissionTimeout{Hash: hash, LastStatus: last}
		}

		observed, perr := poll(ctx, hash)
		if perr != nil {
			consecutiveErrors++
			if consecutiveErrors > policy.MaxPollErrors {
				return hash, last, ErrRpcUnavailable
			}
			if err := sleep(ctx, backoff(policy.PollInterval, consecutiveErrors)); err != nil {
				return hash, last, ErrCancelled
			}
			continue
		}
		consecutiveErrors = 0
		last = observed
		if observed != StatusNotFound {
			return hash, observed, nil
		}

		if err := sleep(ctx, policy.PollInterval); err != nil {
			return hash, last, ErrCancelled
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// backoff doubles with each consecutive transport error, starting at the
// poll interval and capped at ten seconds.
func backoff(interval time.Duration, attempt int) time.Duration {
	d := interval
	for i := 1; i < attempt && d < 10*time.Second; i++ {
		d *= 2
	}
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}
