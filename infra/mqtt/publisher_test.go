package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err      error
	timedOut bool
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeClient struct {
	connected   bool
	connectErr  error
	connectHang bool
	publishErr  error
	topics      []string
	payloads    [][]byte
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Connect() paho.Token {
	if c.connectHang {
		return &fakeToken{timedOut: true}
	}
	if c.connectErr == nil {
		c.connected = true
	}
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) { c.connected = false }

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return &fakeToken{err: c.publishErr}
}

func withFakeClient(t *testing.T, c *fakeClient) {
	t.Helper()
	old := newClient
	newClient = func(*paho.ClientOptions) pahoClient { return c }
	t.Cleanup(func() { newClient = old })
}

func TestPublisherPublishesJSON(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "recap/steps"})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(map[string]any{"step": 1}))
	require.Len(t, cli.payloads, 1)
	assert.Equal(t, "recap/steps", cli.topics[0])
	assert.JSONEq(t, `{"step": 1}`, string(cli.payloads[0]))
}

func TestPublisherConnectTimeout(t *testing.T) {
	cli := &fakeClient{connectHang: true}
	withFakeClient(t, cli)

	_, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "recap/steps", TimeoutMS: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestPublisherConnectFailure(t *testing.T) {
	cli := &fakeClient{connectErr: errors.New("refused")}
	withFakeClient(t, cli)

	_, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "recap/steps"})
	assert.Error(t, err)
}

func TestPublisherPublishFailure(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "recap/steps"})
	require.NoError(t, err)
	cli.publishErr = errors.New("broker gone")
	assert.Error(t, p.Publish(map[string]any{"step": 2}))
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{Topic: "x"}.Validate())
	assert.Error(t, Config{Broker: "tcp://b"}.Validate())
	assert.NoError(t, Config{Broker: "tcp://b", Topic: "x"}.Validate())
}
