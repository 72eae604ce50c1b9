package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10

	reasonNonRetryable = "non_retryable"
	reasonMaxAttempts  = "max_attempts"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeFailed
	outcomeTerminal
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

// publishObserver receives per-event outcomes, typically prometheus counters.
type publishObserver interface {
	IncPublished(eventType string)
	IncFailed(eventType string)
	IncTerminal(eventType string)
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	Registry   registryResolver
	Metrics    publishObserver
	// PublisherFactory overrides the Pub/Sub publisher lookup in tests.
	PublisherFactory publisherFactory
}

// Service drains outbox_events to Pub/Sub. Rows are locked with SKIP LOCKED,
// so several replicas may run side by side.
type Service struct {
	logg        *logger.Logger
	db          dbClient
	repo        outboxRepository
	pubsub      pubSubClient
	registry    registryResolver
	metrics     publishObserver
	publisherOf publisherFactory
	batchSize   int
	maxAttempts int
	idle        time.Duration
}

func NewService(p ServiceParams) (*Service, error) {
	switch {
	case p.Config == nil:
		return nil, errors.New("config is required")
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case p.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	factory := p.PublisherFactory
	if factory == nil {
		factory = gcpPublisherFactory(p.PubSub)
	}
	cfg := p.Config.Outbox
	idle := time.Duration(cfg.PollIntervalMS) * time.Millisecond
	if idle <= 0 {
		idle = defaultPollInterval
	}
	return &Service{
		logg:        p.Logger,
		db:          p.DB,
		repo:        p.Repository,
		pubsub:      p.PubSub,
		registry:    p.Registry,
		metrics:     p.Metrics,
		publisherOf: factory,
		batchSize:   orDefault(cfg.BatchSize, defaultBatchSize),
		maxAttempts: orDefault(cfg.MaxAttempts, defaultMaxAttempts),
		idle:        idle,
	}, nil
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is done. A full batch is followed immediately by the
// next one; an empty poll sleeps for the idle interval; failures back off
// exponentially.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub not ready: %w", err)
	}

	backoff := s.idle
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		busy, err := s.processBatch(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			s.logg.Error(ctx, "outbox batch failed", err)
			backoff = nextBackoff(backoff, s.idle, maxBackoff)
			wait = withJitter(backoff)
		case busy:
			backoff = s.idle
			continue
		default:
			backoff = s.idle
			wait = withJitter(s.idle)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// delivery tracks one outbox row through a batch.
type delivery struct {
	event    models.OutboxEvent
	resolved *registry.ResolvedEvent
	result   publishResult
	err      error
}

// processBatch locks a batch of rows, hands every resolvable row to the
// broker without waiting, then settles each row in order. Rows are marked in
// the same transaction that locked them.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		processed = true

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		deliveries := make([]delivery, len(events))
		for i, event := range events {
			deliveries[i] = s.send(publishCtx, event)
		}
		for i := range deliveries {
			if err := s.settle(ctx, publishCtx, tx, &deliveries[i]); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

func (s *Service) send(ctx context.Context, event models.OutboxEvent) delivery {
	d := delivery{event: event}
	d.resolved, d.err = s.registry.Resolve(event)
	if d.err != nil {
		d.err = registry.NewNonRetryableError(d.err)
		return d
	}
	topic := d.resolved.Descriptor.Topic
	pub := s.publisherOf(topic)
	if pub == nil {
		d.err = registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
		return d
	}
	d.result = pub.Publish(ctx, message(event, d.resolved))
	if d.result == nil {
		d.err = registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	return d
}

func (s *Service) settle(ctx, publishCtx context.Context, tx *gorm.DB, d *delivery) error {
	if d.err == nil {
		_, d.err = d.result.Get(publishCtx)
	}

	topic := ""
	envelope := outbox.PayloadEnvelope{}
	if d.resolved != nil {
		topic = d.resolved.Descriptor.Topic
		envelope = d.resolved.Envelope
	}
	fields := s.eventFields(d.event, envelope, topic)
	event := d.event

	if d.err == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.observe(event, outcomePublished)
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		return nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(d.err, &nonRetry) || permanentPublishError(d.err) {
		return s.handleTerminal(ctx, tx, event, reasonNonRetryable, d.err, fields)
	}

	nextAttempt := event.AttemptCount + 1
	fields["attempt_count"] = nextAttempt
	if nextAttempt >= s.maxAttempts {
		return s.handleTerminal(ctx, tx, event, reasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", d.err), fields)
	}

	fields["error"] = d.err.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox publish failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, d.err); err != nil {
		return fmt.Errorf("mark failure %s: %w", event.ID, err)
	}
	s.observe(event, outcomeFailed)
	return nil
}

func (s *Service) handleTerminal(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason string, err error, fields map[string]any) error {
	fields["terminal_reason"] = reason
	fields["error"] = err.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox event parked")

	if markErr := s.repo.MarkTerminalTx(tx, event.ID, err, s.maxAttempts); markErr != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, markErr)
	}
	s.observe(event, outcomeTerminal)
	return nil
}

func (s *Service) observe(event models.OutboxEvent, o outcome) {
	if s.metrics == nil {
		return
	}
	eventType := string(event.EventType)
	switch o {
	case outcomePublished:
		s.metrics.IncPublished(eventType)
	case outcomeFailed:
		s.metrics.IncFailed(eventType)
	case outcomeTerminal:
		s.metrics.IncTerminal(eventType)
	}
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope, topic string) map[string]any {
	fields := map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    event.EventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
	}
	if topic != "" {
		fields["topic"] = topic
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}
