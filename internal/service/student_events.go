package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// Student change event types.
const (
	EventStudentInserted = "student.inserted"
	EventStudentUpdated  = "student.updated"
)

// StudentEvent is broadcast after a write commits.
type StudentEvent struct {
	Type           string            `json:"type"`
	NationalID     string            `json:"curp"`
	EnrollmentCode *string           `json:"matricula,omitempty"`
	Documents      int               `json:"documentos"`
	Row            datatypes.JSONMap `json:"alumno,omitempty"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// StudentEventPublisher fans student events out to the configured brokers.
type StudentEventPublisher interface {
	Publish(ctx context.Context, event StudentEvent) error
}

type studentEventPublisher struct {
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
}

// NewStudentEventPublisher builds a publisher. Either broker may be nil.
func NewStudentEventPublisher(redisClient *redis.Client, channel string, natsConn *nats.Conn, subject string, logger zerolog.Logger) StudentEventPublisher {
	return &studentEventPublisher{
		redis:       redisClient,
		redisStream: channel,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "student_events").Logger(),
	}
}

func (p *studentEventPublisher) Publish(ctx context.Context, event StudentEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisStream != "" {
		if err := p.redis.Publish(ctx, p.redisStream, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject+"."+event.Type, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
