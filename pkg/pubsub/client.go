package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
	"github.com/Kwakusharp7/fleet-managment/pkg/logger"
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
}

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errTopicRequired     = errors.New("pubsub loads topic is required")
)

// NewClient creates a Pub/Sub v2 client and checks that the loads topic exists.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(gcp.ProjectID) == "" {
		return nil, errProjectIDRequired
	}
	if strings.TrimSpace(cfg.LoadsTopic) == "" {
		return nil, errTopicRequired
	}

	psClient, err := pubsub.NewClient(ctx, gcp.ProjectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:     psClient,
		projectID:  gcp.ProjectID,
		cfg:        cfg,
		publishers: map[string]*pubsub.Publisher{},
	}

	if err := c.Ping(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", cfg.LoadsTopic), "pubsub client initialized")
	}
	return c, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	if creds := strings.TrimSpace(gcp.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return nil
}

func (c *Client) ensureTopicExists(ctx context.Context, name string) error {
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return fmt.Errorf("topic %q not configured", name)
	}
	_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("topic %q does not exist", name)
		}
		return fmt.Errorf("checking topic %q: %w", name, err)
	}
	return nil
}

func (c *Client) ensureSubscriptionExists(ctx context.Context, name string) error {
	fullName := c.subscriptionResourceName(name)
	if fullName == "" {
		return fmt.Errorf("subscription %q not configured", name)
	}
	_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: fullName})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("subscription %q does not exist", name)
		}
		return fmt.Errorf("checking subscription %q: %w", name, err)
	}
	return nil
}

// Publisher returns a shared publisher for the topic ID or resource name.
// Publishers are stopped by Close.
func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.topicResourceName(name)
	if fullName == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.publishers[fullName]; ok {
		return p
	}
	p := c.client.Publisher(fullName)
	c.publishers[fullName] = p
	return p
}

// LoadsSubscription returns the optional downstream subscription, or nil when
// none is configured.
func (c *Client) LoadsSubscription() *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	fullName := c.subscriptionResourceName(c.cfg.LoadsSubscription)
	if fullName == "" {
		return nil
	}
	return c.client.Subscriber(fullName)
}

// Ping verifies connectivity by looking up the loads topic and, when set, the
// loads subscription.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errors.New("pubsub client not initialized")
	}
	if err := c.ensureTopicExists(ctx, c.cfg.LoadsTopic); err != nil {
		return err
	}
	if strings.TrimSpace(c.cfg.LoadsSubscription) != "" {
		return c.ensureSubscriptionExists(ctx, c.cfg.LoadsSubscription)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.mu.Lock()
	for name, p := range c.publishers {
		p.Stop()
		delete(c.publishers, name)
	}
	c.mu.Unlock()
	return c.client.Close()
}

func (c *Client) subscriptionResourceName(name string) string {
	return resourceName(c.projectID, "subscriptions", name)
}

func (c *Client) topicResourceName(name string) string {
	return resourceName(c.projectID, "topics", name)
}

func resourceName(projectID, kind, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/"+kind+"/") {
		return n
	}
	p := strings.TrimSpace(projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", p, kind, n)
}
