package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/laundrydesk-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/orders", resourceName("p1", "topics", " orders "))
	assert.Equal(t, "projects/other/topics/cash", resourceName("p1", "topics", "projects/other/topics/cash"))
	assert.Empty(t, resourceName("p1", "topics", ""))
	assert.Empty(t, resourceName("", "topics", "orders"))
	assert.Equal(t, "projects/p1/subscriptions/cash-alerts", resourceName("p1", "subscriptions", "cash-alerts"))
}

func TestTopicNamesDeduplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{
		OrdersTopic:    "events",
		InventoryTopic: "events",
		CashTopic:      " cash ",
	})
	assert.Equal(t, []string{"events", "cash"}, names)
	assert.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.NoError(t, c.Close())
	assert.Error(t, c.Ping(context.Background()))
	_, err := c.Subscriber(context.Background(), "cash-alerts")
	assert.Error(t, err)
}
