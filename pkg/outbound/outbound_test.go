package outbound

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("encode then decode is identity", prop.ForAll(
		func(playerID, text string) bool {
			if playerID == "" {
				return true
			}
			data, err := Encode(Message{PlayerID: playerID, Text: text})
			if err != nil {
				return false
			}
			got, err := Decode(data)
			return err == nil && got.PlayerID == playerID && got.Text == text
		},
		gen.Identifier(),
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeRejectsMissingPlayer(t *testing.T) {
	_, err := Decode([]byte(`{"text":"hello"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestDecodeKnownPayload(t *testing.T) {
	got, err := Decode([]byte(`{"player_id":"447000000001","text":"Saved time 04:56."}`))
	require.NoError(t, err)
	assert.Equal(t, "447000000001", got.PlayerID)
	assert.Equal(t, "Saved time 04:56.", got.Text)
}

func TestPublisherClose(t *testing.T) {
	p := NewKafkaPublisher(Config{
		Brokers: []string{"localhost:9092"},
		Topic:   "plusword.outbound",
	})
	assert.NoError(t, p.Close())
}

func TestConsumerClose(t *testing.T) {
	c := NewKafkaConsumer(ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "plusword.outbound",
		GroupID: "plusword-sender",
	})
	assert.NotNil(t, c.reader)
	assert.NoError(t, c.Close())
}
