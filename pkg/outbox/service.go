package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/ooprato/ooprato-backend/pkg/db"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	"github.com/ooprato/ooprato-backend/pkg/logger"
)

const idempotencyConstraint = "ux_outbox_events_idempotency_key"

type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	// IdempotencyKey deduplicates the event across retries, e.g.
	// "order.cancelled.<orderID>". Empty means no deduplication by key.
	IdempotencyKey string
	Actor          *ActorRef
	Data           interface{}
	Version        int
	OccurredAt     time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.Version == 0 {
		event.Version = 1
	}
	envelope := PayloadEnvelope{
		Version:        event.Version,
		EventID:        uuid.NewString(),
		IdempotencyKey: event.IdempotencyKey,
		OccurredAt:     event.OccurredAt,
		Actor:          event.Actor,
		Data:           payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		ID:            uuid.MustParse(envelope.EventID),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}
	if event.IdempotencyKey != "" {
		key := event.IdempotencyKey
		row.IdempotencyKey = &key
	}
	if err := s.repo.Insert(tx, row); err != nil {
		return err
	}
	if s.logg != nil {
		fields := map[string]any{
			"event_id":       envelope.EventID,
			"event_type":     event.EventType,
			"aggregate_id":   event.AggregateID.String(),
			"aggregate_type": event.AggregateType,
		}
		if event.IdempotencyKey != "" {
			fields["idempotency_key"] = event.IdempotencyKey
		}
		logCtx := s.logg.WithFields(ctx, fields)
		s.logg.Info(logCtx, "outbox event queued")
	}
	return nil
}

// EmitIfNotExists records the event once per idempotency key. Events without
// a key are deduplicated by (event type, aggregate). The insert runs in a
// savepoint so a losing race does not poison the caller's transaction.
func (s *Service) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event DomainEvent) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var (
		exists bool
		err    error
	)
	if event.IdempotencyKey != "" {
		exists, err = s.repo.ExistsByKeyTx(tx, event.IdempotencyKey)
	} else {
		exists, err = s.repo.ExistsTx(tx, event.EventType, event.AggregateType, event.AggregateID)
	}
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return s.Emit(ctx, sp, event)
	})
	if err != nil {
		if dbpkg.IsUniqueViolation(err, idempotencyConstraint) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
