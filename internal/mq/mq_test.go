package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorhub/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	topic string
	data  []byte
	attrs map[string]string
}

type recordingBackend struct {
	messages []recordedMessage
	err      error
	closed   bool
}

func (r *recordingBackend) Publish(_ context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.messages = append(r.messages, recordedMessage{topic: topic, data: data, attrs: attrs})
	return "msg-1", nil
}

func (r *recordingBackend) Close() error {
	r.closed = true
	return nil
}

func TestPublishJSON(t *testing.T) {
	backend := &recordingBackend{}
	m := New(backend)
	m.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	id, err := m.PublishJSON(context.Background(), TopicUserRegistered, map[string]string{"user_id": "u1"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.Len(t, backend.messages, 1)
	msg := backend.messages[0]
	assert.Equal(t, "user.registered", msg.topic)
	assert.JSONEq(t, `{"user_id":"u1"}`, string(msg.data))
	assert.Equal(t, "user.registered", msg.attrs["event_type"])
	assert.Equal(t, "application/json", msg.attrs["content_type"])
	assert.Equal(t, "2025-03-04T05:06:07Z", msg.attrs["emitted_at"])

	require.NoError(t, m.Close())
	assert.True(t, backend.closed)
}

func TestPublishJSONErrors(t *testing.T) {
	backend := &recordingBackend{err: errors.New("broker down")}
	m := New(backend)

	_, err := m.PublishJSON(context.Background(), TopicNFTMinted, struct{}{})
	assert.EqualError(t, err, "broker down")

	_, err = m.PublishJSON(context.Background(), TopicNFTMinted, func() {})
	assert.Error(t, err)
}

func TestOpenDisabled(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{Backend: config.BackendNone})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.MQConfig{Backend: config.BackendRabbitMQ})
	assert.Error(t, err)
}

func TestTopicID(t *testing.T) {
	assert.Equal(t, "creatorhub-nft-minted", topicID("creatorhub-", TopicNFTMinted))
}
