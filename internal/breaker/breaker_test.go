// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream 500")

func TestExecute_PassesResults(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-pass"})
	got, err := Execute(b, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("Execute = %q, %v", got, err)
	}

	_, err = Execute(b, func() (string, error) { return "", errUpstream })
	if !errors.Is(err, errUpstream) {
		t.Errorf("err = %v", err)
	}
}

func TestExecute_NilPointerResult(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-nil"})
	got, err := Execute(b, func() (*int, error) { return nil, nil })
	if err != nil || got != nil {
		t.Fatalf("Execute = %v, %v", got, err)
	}
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-open", MinRequests: 3, FailureRatio: 0.5, Timeout: time.Hour})
	for i := 0; i < 3; i++ {
		_, _ = Execute(b, func() (int, error) { return 0, errUpstream })
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	called := false
	_, err := Execute(b, func() (int, error) { called = true; return 1, nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("open circuit must not call upstream")
	}
}

func TestBreaker_IgnoresCancellation(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-cancel", MinRequests: 2, FailureRatio: 0.5})
	for i := 0; i < 5; i++ {
		_, _ = Execute(b, func() (int, error) { return 0, context.Canceled })
	}
	if b.State() != "closed" {
		t.Errorf("state = %s, cancellation must not trip the circuit", b.State())
	}
}

func TestBreaker_CustomIsSuccessful(t *testing.T) {
	t.Parallel()

	notFound := errors.New("not found")
	b := New(Settings{
		Name:         "test-custom",
		MinRequests:  2,
		FailureRatio: 0.5,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, notFound) },
	})
	for i := 0; i < 5; i++ {
		if _, err := Execute(b, func() (int, error) { return 0, notFound }); !errors.Is(err, notFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if b.State() != "closed" {
		t.Errorf("state = %s", b.State())
	}
}
