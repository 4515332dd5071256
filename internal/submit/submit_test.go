package submit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/halide-labs/sorobanctl/internal/submit"
)

func TestRunReturnsImmediatelyOnSuccess(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusSuccess, "", nil
	}
	poll := func(ctx context.Context, hash string) (string, error) {
		t.Fatal("did not expect a poll when send already reports a terminal status")
		return "", nil
	}
	hash, status, err := submit.Run(context.Background(), submit.Policy{}, send, poll)
	if err != nil {
		t.Fatal(err)
	}
	if hash != "hash1" || status != submit.StatusSuccess {
		t.Fatalf("unexpected result %s/%s", hash, status)
	}
}

func TestRunRejectsOnSendError(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusError, "boom", nil
	}
	poll := func(ctx context.Context, hash string) (string, error) {
		t.Fatal("did not expect a poll after an ERROR send status")
		return "", nil
	}
	_, _, err := submit.Run(context.Background(), submit.Policy{}, send, poll)
	var rejected *submit.SubmissionRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected SubmissionRejected, got %v", err)
	}
	if rejected.Detail != "boom" {
		t.Fatalf("expected detail boom, got %s", rejected.Detail)
	}
}

func TestRunPollsUntilTerminal(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusPending, "", nil
	}
	attempts := 0
	poll := func(ctx context.Context, hash string) (string, error) {
		attempts++
		if attempts < 3 {
			return submit.StatusNotFound, nil
		}
		return submit.StatusSuccess, nil
	}
	policy := submit.Policy{PollInterval: time.Millisecond, Deadline: time.Second}
	_, status, err := submit.Run(context.Background(), policy, send, poll)
	if err != nil {
		t.Fatal(err)
	}
	if status != submit.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", status)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 poll attempts, got %d", attempts)
	}
}

func TestRunTimesOut(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusPending, "", nil
	}
	poll := func(ctx context.Context, hash string) (string, error) {
		return submit.StatusNotFound, nil
	}
	policy := submit.Policy{PollInterval: time.Millisecond, Deadline: 5 * time.Millisecond}
	_, _, err := submit.Run(context.Background(), policy, send, poll)
	var timeout *submit.SubmissionTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected SubmissionTimeout, got %v", err)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusPending, "", nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	poll := func(ctx context.Context, hash string) (string, error) {
		cancel()
		return submit.StatusNotFound, nil
	}
	policy := submit.Policy{PollInterval: time.Millisecond, Deadline: time.Second}
	_, _, err := submit.Run(ctx, policy, send, poll)
	if !errors.Is(err, submit.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestRunSurfacesRpcUnavailableAfterRepeatedPollErrors(t *testing.T) {
	send := func(ctx context.Context) (string, string, string, error) {
		return "hash1", submit.StatusPending, "", nil
	}
	poll := func(ctx context.Context, hash string) (string, error) {
		return "", errors.New("transport error")
	}
	policy := submit.Policy{PollInterval: time.Millisecond, Deadline: time.Second, MaxPollErrors: 2}
	_, _, err := submit.Run(context.Background(), policy, send, poll)
	if !errors.Is(err, submit.ErrRpcUnavailable) {
		t.Fatalf("expected ErrRpcUnavailable, got %v", err)
	}
}
