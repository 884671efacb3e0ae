package events

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Publish(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestEmitterFansOutAndLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	failing := &recorder{err: errors.New("broker down")}
	ok := &recorder{}

	emitter := NewEmitter(log.New(&buf, "", 0), failing, ok)
	emitter.Emit(context.Background(), New(TypeBookingStatusChanged, "c1", map[string]string{"bookingId": "b1"}))

	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)
	assert.Equal(t, "c1", ok.events[0].CompanyID)
	assert.NotEmpty(t, ok.events[0].ID)
	assert.Contains(t, buf.String(), "broker down")
}

func TestNilEmitterIsNoop(t *testing.T) {
	var emitter *Emitter
	assert.NotPanics(t, func() {
		emitter.Emit(context.Background(), New(TypePaymentCompleted, "c1", nil))
	})
}
