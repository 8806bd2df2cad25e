package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxService lets operators inspect saga delivery and requeue dead letters
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	return &OutboxService{
		repo:   repo,
		logger: logger,
	}
}

// OutboxEntryDTO represents an outbox entry
type OutboxEntryDTO struct {
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

// OutboxScope narrows outbox queries to one aggregate or event type
type OutboxScope struct {
	AggregateType string `form:"aggregate_type,omitempty" binding:"omitempty,max=50"`
	EventType     string `form:"event_type,omitempty" binding:"omitempty,max=100"`
}

func (s OutboxScope) query() shared.OutboxQuery {
	return shared.OutboxQuery{AggregateType: s.AggregateType, EventType: s.EventType}
}

// OutboxFilter pages through dead letters
type OutboxFilter struct {
	OutboxScope
	Page     int `form:"page,omitempty" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,omitempty" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsDTO counts entries per status. DeadByAggregate is only filled
// for unscoped stats.
type OutboxStatsDTO struct {
	Pending         int64            `json:"pending"`
	Processing      int64            `json:"processing"`
	Sent            int64            `json:"sent"`
	Failed          int64            `json:"failed"`
	Dead            int64            `json:"dead"`
	Total           int64            `json:"total"`
	DeadByAggregate map[string]int64 `json:"dead_by_aggregate,omitempty"`
}

// GetDeadLetterEntries lists the saga steps that exhausted their retries
func (s *OutboxService) GetDeadLetterEntries(ctx context.Context, filter OutboxFilter) (*shared.Paginated[OutboxEntryDTO], error) {
	f := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	entries, total, err := s.repo.FindDead(ctx, filter.query(), f.Page, f.PageSize)
	if err != nil {
		return nil, fmt.Errorf("find dead letter entries: %w", err)
	}
	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	page := shared.NewPaginated(dtos, total, f.Page, f.PageSize)
	return &page, nil
}

// GetEntry retrieves a single outbox entry by ID
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry puts a dead letter back in the queue with a fresh retry budget
func (s *OutboxService) RetryDeadEntry(ctx context.Context, actor shared.Actor, id uuid.UUID) (*OutboxEntryDTO, error) {
	if err := actor.Require(shared.CapOutboxManage); err != nil {
		return nil, err
	}
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewInvalidTransitionError("outbox entry", entry.Status, shared.OutboxStatusPending)
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update outbox entry %s: %w", id, err)
	}

	s.logger.Info("dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDeadEntries requeues every dead letter in scope and returns how
// many moved
func (s *OutboxService) RetryAllDeadEntries(ctx context.Context, actor shared.Actor, scope OutboxScope) (int64, error) {
	if err := actor.Require(shared.CapOutboxManage); err != nil {
		return 0, err
	}
	const pageSize = 100
	var count int64
	for {
		// Requeued entries leave the dead set, so the first page is always the next one.
		entries, _, err := s.repo.FindDead(ctx, scope.query(), 1, pageSize)
		if err != nil {
			return count, fmt.Errorf("find dead letter entries: %w", err)
		}
		if len(entries) == 0 {
			break
		}
		moved := 0
		for _, entry := range entries {
			if err := entry.ResetForRetry(); err != nil {
				continue
			}
			if err := s.repo.Update(ctx, entry); err != nil {
				s.logger.Error("failed to requeue outbox entry", zap.Error(err), zap.String("id", entry.ID.String()))
				continue
			}
			moved++
		}
		count += int64(moved)
		if moved == 0 || len(entries) < pageSize {
			break
		}
	}

	s.logger.Info("dead letter entries requeued",
		zap.Int64("count", count),
		zap.String("aggregate_type", scope.AggregateType),
		zap.String("event_type", scope.EventType),
	)
	return count, nil
}

// GetStats counts the entries in scope per status. Unscoped stats also
// break dead letters down by aggregate type.
func (s *OutboxService) GetStats(ctx context.Context, scope OutboxScope) (*OutboxStatsDTO, error) {
	q := scope.query()
	counts, err := s.repo.CountByStatus(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count outbox entries: %w", err)
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
		Total:      total,
	}
	if q.IsZero() && stats.Dead > 0 {
		if stats.DeadByAggregate, err = s.repo.CountDeadByAggregateType(ctx); err != nil {
			return nil, fmt.Errorf("count dead letters: %w", err)
		}
	}
	return stats, nil
}

func (s *OutboxService) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, shared.NewNotFoundError("outbox entry", id)
	}
	return entry, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
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
