package services

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrRequestLocked means another user holds the edit on this request.
	ErrRequestLocked = errors.New("request is being edited by another user")
	// ErrEditInProgress means this user already has a different row open.
	ErrEditInProgress = errors.New("user already has an edit in progress")
)

type editSession struct {
	userID    int64
	expiresAt time.Time
}

// EditSessions enforces the review table's one-row-at-a-time editing rule:
// a request accepts a single editor, and a user holds at most one request.
// Sessions expire after the TTL so an abandoned browser tab cannot lock a
// row forever.
type EditSessions struct {
	mu        sync.Mutex
	ttl       time.Duration
	byRequest map[int64]editSession

	now func() time.Time
}

func NewEditSessions(ttl time.Duration) *EditSessions {
	return &EditSessions{
		ttl:       ttl,
		byRequest: make(map[int64]editSession),
		now:       time.Now,
	}
}

// Acquire opens an edit session on a request. Re-acquiring a request the
// user already holds refreshes its TTL.
func (e *EditSessions) Acquire(requestID, userID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expireLocked()

	if s, ok := e.byRequest[requestID]; ok && s.userID != userID {
		return ErrRequestLocked
	}
	for id, s := range e.byRequest {
		if s.userID == userID && id != requestID {
			return ErrEditInProgress
		}
	}

	e.byRequest[requestID] = editSession{userID: userID, expiresAt: e.now().Add(e.ttl)}
	return nil
}

// Release closes the session. Only the holder can release it.
func (e *EditSessions) Release(requestID, userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.byRequest[requestID]; ok && s.userID == userID {
		delete(e.byRequest, requestID)
	}
}

// Holds reports whether the user currently holds the request's session.
func (e *EditSessions) Holds(requestID, userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expireLocked()
	s, ok := e.byRequest[requestID]
	return ok && s.userID == userID
}

func (e *EditSessions) expireLocked() {
	now := e.now()
	for id, s := range e.byRequest {
		if now.After(s.expiresAt) {
			delete(e.byRequest, id)
		}
	}
}
