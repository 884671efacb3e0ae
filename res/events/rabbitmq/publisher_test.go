package rabbitmq

import (
	"encoding/json"
	"testing"

	"cleanbuddy-fulfillment/res/events"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	event := events.New(events.TypePaymentCompleted, "c1", map[string]string{"paymentId": "p1"})

	msg, err := newMessage(event)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, event.ID, msg.MessageId)
	assert.Equal(t, "payment.completed", msg.Type)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "c1", decoded["companyId"])
}

func TestNewMessageUnencodable(t *testing.T) {
	_, err := newMessage(events.New(events.TypeBookingCreated, "c1", make(chan int)))
	assert.Error(t, err)
}
