package services

import (
	"errors"
	"testing"
	"time"
)

func TestEditSessionsSingleEditorPerRequest(t *testing.T) {
	sessions := NewEditSessions(10 * time.Minute)

	if err := sessions.Acquire(1, 100); err != nil {
		t.Fatal(err)
	}
	if err := sessions.Acquire(1, 200); !errors.Is(err, ErrRequestLocked) {
		t.Fatalf("got %v, want %v", err, ErrRequestLocked)
	}

	// The first editor keeps the lock until release.
	if !sessions.Holds(1, 100) {
		t.Fatal("holder lost the session")
	}

	sessions.Release(1, 100)
	if err := sessions.Acquire(1, 200); err != nil {
		t.Fatalf("released session not acquirable: %v", err)
	}
}

func TestEditSessionsOneRowPerUser(t *testing.T) {
	sessions := NewEditSessions(10 * time.Minute)

	if err := sessions.Acquire(1, 100); err != nil {
		t.Fatal(err)
	}
	if err := sessions.Acquire(2, 100); !errors.Is(err, ErrEditInProgress) {
		t.Fatalf("got %v, want %v", err, ErrEditInProgress)
	}

	// Re-acquiring the same row is a refresh, not a conflict.
	if err := sessions.Acquire(1, 100); err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
}

func TestEditSessionsReleaseByNonHolderIsIgnored(t *testing.T) {
	sessions := NewEditSessions(10 * time.Minute)

	if err := sessions.Acquire(1, 100); err != nil {
		t.Fatal(err)
	}
	sessions.Release(1, 200)
	if !sessions.Holds(1, 100) {
		t.Fatal("non-holder release dropped the session")
	}
}

func TestEditSessionsExpire(t *testing.T) {
	sessions := NewEditSessions(10 * time.Minute)
	now := time.Now()
	sessions.now = func() time.Time { return now }

	if err := sessions.Acquire(1, 100); err != nil {
		t.Fatal(err)
	}

	now = now.Add(11 * time.Minute)
	if err := sessions.Acquire(1, 200); err != nil {
		t.Fatalf("expired session still blocking: %v", err)
	}
}
