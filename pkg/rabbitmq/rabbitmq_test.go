package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	event := models.ProductEvent{
		Event:      models.EventProductCreated,
		ProductID:  7,
		Product:    &models.Product{ID: 7, Name: "Lamp", Price: 19.99},
		OccurredAt: at,
	}

	msg, err := newPublishing(event)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, models.EventProductCreated, msg.Type)
	assert.Equal(t, at, msg.Timestamp)
	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "product.created", body["event"])
	assert.EqualValues(t, 7, body["product_id"])
	assert.Contains(t, body, "product")
}

func TestNewPublishing_UniqueMessageIDs(t *testing.T) {
	a, err := newPublishing(models.ProductEvent{Event: models.EventProductDeleted, ProductID: 1})
	require.NoError(t, err)
	b, err := newPublishing(models.ProductEvent{Event: models.EventProductDeleted, ProductID: 1})
	require.NoError(t, err)

	assert.NotEqual(t, a.MessageId, b.MessageId)
	assert.NotContains(t, string(a.Body), `"product":`)
}

func TestDecodeProductEvent(t *testing.T) {
	event, err := DecodeProductEvent([]byte(`{"event":"product.updated","product_id":3,"occurred_at":"2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, models.EventProductUpdated, event.Event)
	assert.Equal(t, uint(3), event.ProductID)

	_, err = DecodeProductEvent([]byte(`{"product_id":3}`))
	assert.Error(t, err)

	_, err = DecodeProductEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestPublishProductEvent_WithoutChannel(t *testing.T) {
	c := &Client{}
	err := c.PublishProductEvent(context.Background(), models.ProductEvent{Event: models.EventProductCreated})
	assert.ErrorContains(t, err, "not available")
}
