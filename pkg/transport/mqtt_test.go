package transport

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itohio/noisey/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                       { <-t.done; return true }
func (t *fakeToken) WaitTimeout(d time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}            { return t.done }
func (t *fakeToken) Error() error                     { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mqtt.Client
	open  bool
	err   error
	stuck bool
	sent  []published
}

func (c *fakeClient) IsConnectionOpen() bool { return c.open }
func (c *fakeClient) IsConnected() bool      { return c.open }
func (c *fakeClient) Disconnect(uint)        { c.open = false }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	if c.stuck {
		return &fakeToken{done: make(chan struct{})}
	}
	return newToken(c.err)
}

func TestMQTTSender_Send(t *testing.T) {
	c := &fakeClient{open: true}
	s := NewMQTTSender(c, "noisey/%s/noise", 1, time.Second)

	msg := telemetry.Message{ID: "ab12", Interval: 1920, NbElements: 2, First: true, Noise: []int16{3, 4}}
	require.NoError(t, s.Send(context.Background(), msg))

	require.Len(t, c.sent, 1)
	assert.Equal(t, "noisey/ab12/noise", c.sent[0].topic)
	assert.Equal(t, byte(1), c.sent[0].qos)

	var got telemetry.Message
	require.NoError(t, json.Unmarshal(c.sent[0].payload, &got))
	assert.Equal(t, msg, got)

	s.Close()
	assert.False(t, c.open)
}

func TestMQTTSender_Topic(t *testing.T) {
	assert.Equal(t, "noise", NewMQTTSender(&fakeClient{}, "noise", 0, time.Second).Topic("ab12"))
	assert.Equal(t, "dev/ab12", NewMQTTSender(&fakeClient{}, "dev/%s", 0, time.Second).Topic("ab12"))
}

func TestMQTTSender_Errors(t *testing.T) {
	msg := telemetry.Message{ID: "ab12", Noise: []int16{}}

	t.Run("not connected", func(t *testing.T) {
		c := &fakeClient{}
		err := NewMQTTSender(c, "t", 0, time.Second).Send(context.Background(), msg)
		assert.ErrorIs(t, err, ErrNotConnected)
		assert.Empty(t, c.sent)
	})

	t.Run("publish failed", func(t *testing.T) {
		c := &fakeClient{open: true, err: errors.New("broker gone")}
		err := NewMQTTSender(c, "t", 0, time.Second).Send(context.Background(), msg)
		assert.ErrorContains(t, err, "broker gone")
	})

	t.Run("timeout", func(t *testing.T) {
		c := &fakeClient{open: true, stuck: true}
		err := NewMQTTSender(c, "t", 0, 10*time.Millisecond).Send(context.Background(), msg)
		assert.EqualError(t, err, "publish timeout")
	})
}
