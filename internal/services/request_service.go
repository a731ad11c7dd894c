// Package services orchestrates payment request operations across the
// SQLite store, the AMQP sync queue and the edit session registry.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jonatasvm/pagamento-sub000/internal/amqp"
	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

// RequestStore is the storage surface the service needs.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *core.PaymentRequest) (int64, error)
	UpdateRequest(ctx context.Context, req *core.PaymentRequest) error
	GetRequest(ctx context.Context, id int64) (*core.PaymentRequest, error)
	ListRequests(ctx context.Context, obras []int64) ([]core.PaymentRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
}

// SyncPublisher hands reconcile messages to the mirror worker.
type SyncPublisher interface {
	PublishSync(ctx context.Context, msg *amqp.RequestSyncMessage) error
}

// RequestService is the write path for payment requests. SQLite is written
// first; the mirror message is best effort and never fails the request.
type RequestService struct {
	store     RequestStore
	publisher SyncPublisher
}

func NewRequestService(store RequestStore, publisher SyncPublisher) *RequestService {
	return &RequestService{store: store, publisher: publisher}
}

// Submit validates and stores a new request. Nothing is persisted or
// published when validation fails.
func (s *RequestService) Submit(ctx context.Context, req *core.PaymentRequest) (int64, error) {
	if err := req.ValidateSubmission(); err != nil {
		return 0, err
	}
	if req.DataLancamento.IsZero() {
		req.DataLancamento = core.Today()
	}

	id, err := s.store.CreateRequest(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("save request: %w", err)
	}
	req.ID = id
	req.Version = 1

	s.publish(ctx, amqp.NewUpsertMessage(id, 1))
	return id, nil
}

// Update validates and stores an edited request, then queues the new version
// for the mirror.
func (s *RequestService) Update(ctx context.Context, req *core.PaymentRequest) error {
	if err := req.ValidateSubmission(); err != nil {
		return err
	}

	if err := s.store.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("update request: %w", err)
	}

	updated, err := s.store.GetRequest(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("reload request: %w", err)
	}
	*req = *updated

	s.publish(ctx, amqp.NewUpsertMessage(req.ID, req.Version))
	return nil
}

// Delete removes a request and queues the mirror row removal.
func (s *RequestService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewDeleteMessage(id))
	return nil
}

func (s *RequestService) Get(ctx context.Context, id int64) (*core.PaymentRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// List returns requests restricted to the given obras (nil means all) and
// then filtered in memory by the review table criteria.
func (s *RequestService) List(ctx context.Context, obras []int64, filter core.RequestFilter) ([]core.PaymentRequest, error) {
	requests, err := s.store.ListRequests(ctx, obras)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return core.FilterRequests(requests, filter), nil
}

func (s *RequestService) publish(ctx context.Context, msg *amqp.RequestSyncMessage) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Sync publisher not available, skipping message", "id", msg.ID)
		return
	}
	if err := s.publisher.PublishSync(ctx, msg); err != nil {
		// The request is already committed to SQLite; the worker's poll
		// fallback picks up rows whose message was lost.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", msg.ID, "action", msg.Action, "error", err)
	}
}
