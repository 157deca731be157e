package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DeadLetterStore is the part of the outbox store the admin service needs
type DeadLetterStore interface {
	FindDead(ctx context.Context, page, pageSize int) ([]*shared.OutboxEntry, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error)
	Update(ctx context.Context, entry *shared.OutboxEntry) error
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// ErrEntryNotRetryable is returned when a live entry is asked to be retried
var ErrEntryNotRetryable = shared.NewConflictError("ENTRY_NOT_RETRYABLE", "Only dead letter entries can be retried")

const (
	defaultDeadPageSize = 20
	maxDeadPageSize     = 100
)

// OutboxService inspects undeliverable events and puts them back in the queue
type OutboxService struct {
	store  DeadLetterStore
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(store DeadLetterStore, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{store: store, logger: logger}
}

// OutboxEntryResponse is an outbox entry in API responses
type OutboxEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DeadLetterFilter pages through dead letter entries
type DeadLetterFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsResponse counts entries per status
type OutboxStatsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// ListDeadLetters returns dead letter entries, most recently failed first
func (s *OutboxService) ListDeadLetters(ctx context.Context, filter DeadLetterFilter) (*shared.Paginated[OutboxEntryResponse], error) {
	page := max(filter.Page, 1)
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultDeadPageSize
	}
	pageSize = min(pageSize, maxDeadPageSize)

	entries, total, err := s.store.FindDead(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("failed to list dead letter entries", zap.Error(err))
		return nil, err
	}
	items := make([]OutboxEntryResponse, len(entries))
	for i, entry := range entries {
		items[i] = toOutboxEntryResponse(entry)
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// GetEntry returns a single outbox entry
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// RetryDeadEntry puts one dead letter entry back into the pending queue
func (s *OutboxService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryResponse, error) {
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, ErrEntryNotRetryable.WithMessage("Entry %s is %s", id, entry.Status)
	}
	if err := s.store.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("dead letter entry queued for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType))
	resp := toOutboxEntryResponse(entry)
	return &resp, nil
}

// RetryAllDeadEntries requeues every dead letter entry and reports how many
// were requeued. Entries that fail to update are logged and skipped.
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context) (int64, error) {
	var count int64
	for {
		// requeued entries leave the dead set, so the first page is always the next batch
		entries, _, err := s.store.FindDead(ctx, 1, maxDeadPageSize)
		if err != nil {
			return count, err
		}
		if len(entries) == 0 {
			break
		}

		requeued := 0
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.store.Update(ctx, entry); err != nil {
				s.logger.Error("failed to requeue dead letter entry", zap.String("id", entry.ID.String()), zap.Error(err))
				continue
			}
			requeued++
		}
		count += int64(requeued)
		if requeued == 0 || len(entries) < maxDeadPageSize {
			break
		}
	}

	s.logger.Info("dead letter entries queued for retry", zap.Int64("count", count))
	return count, nil
}

// Stats counts outbox entries per status
func (s *OutboxService) Stats(ctx context.Context) (*OutboxStatsResponse, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &OutboxStatsResponse{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}, nil
}

func toOutboxEntryResponse(entry *shared.OutboxEntry) OutboxEntryResponse {
	return OutboxEntryResponse{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
