package main

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Kwakusharp7/fleet-managment/pkg/db/models"
	"github.com/Kwakusharp7/fleet-managment/pkg/outbox/registry"
)

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// gcpPublisherFactory resolves topics through the shared client, which
// caches one *Publisher per topic.
func gcpPublisherFactory(client pubSubClient) publisherFactory {
	return func(topic string) publisher {
		p := client.Publisher(topic)
		if p == nil {
			return nil
		}
		return gcpPublisher{p}
	}
}

type gcpPublisher struct{ p *gcppubsub.Publisher }

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return gcpResult{g.p.Publish(ctx, msg)}
}

type gcpResult struct{ r *gcppubsub.PublishResult }

func (g gcpResult) Get(ctx context.Context) (string, error) {
	if g.r == nil {
		return "", errors.New("publish result is nil")
	}
	return g.r.Get(ctx)
}

// message carries the stored envelope as-is. Attributes let subscribers
// filter without decoding the body.
func message(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

// permanentPublishError reports broker rejections that no retry will fix.
func permanentPublishError(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case codes.InvalidArgument, codes.NotFound, codes.PermissionDenied, codes.Unauthenticated:
		return true
	}
	return false
}
