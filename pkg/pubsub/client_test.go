package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kwakusharp7/fleet-managment/pkg/config"
)

func TestResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/fleet-load-events", resourceName("p1", "topics", " fleet-load-events "))
	assert.Equal(t, "projects/other/topics/t", resourceName("p1", "topics", "projects/other/topics/t"))
	assert.Equal(t, "projects/p1/subscriptions/projects-x", resourceName("p1", "subscriptions", "projects-x"))
	assert.Empty(t, resourceName("p1", "topics", ""))
	assert.Empty(t, resourceName("", "topics", "t"))
}

func TestClientOptions(t *testing.T) {
	assert.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p1"}))
	assert.Len(t, clientOptions(config.GCPConfig{ProjectID: "p1", CredentialsJSON: `{"type":"service_account"}`}), 1)
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{LoadsTopic: "t"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "p1"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errTopicRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("t"))
	assert.Nil(t, c.LoadsSubscription())
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}
