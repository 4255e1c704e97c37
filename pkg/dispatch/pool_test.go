package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/logger"
	"github.com/HarveyDWilliams/PlusWordChatbot/pkg/outbound"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendText(ctx context.Context, to, body string) error {
	return m.Called(ctx, to, body).Error(0)
}

type MockConsumer struct {
	mock.Mock
}

func (m *MockConsumer) Consume(ctx context.Context) (<-chan outbound.Delivery, <-chan error) {
	args := m.Called(ctx)
	return args.Get(0).(<-chan outbound.Delivery), args.Get(1).(<-chan error)
}
func (m *MockConsumer) Commit(ctx context.Context, d outbound.Delivery) error {
	return m.Called(ctx, d).Error(0)
}
func (m *MockConsumer) Close() error {
	return m.Called().Error(0)
}

func TestPoolDeliversAndCommits(t *testing.T) {
	properties := gopter.NewProperties(nil)
	l, _ := logger.New(logger.Config{Level: "error", ServiceName: "test"})

	properties.Property("every submitted message is sent and committed", prop.ForAll(
		func(numMessages int) bool {
			ms := new(MockSender)
			mc := new(MockConsumer)

			var mu sync.Mutex
			sent, committed := 0, 0
			ms.On("SendText", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) {
				mu.Lock()
				sent++
				mu.Unlock()
			}).Return(nil)
			mc.On("Commit", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
				mu.Lock()
				committed++
				mu.Unlock()
			}).Return(nil)

			p := NewPool(l, ms, mc, 2)
			p.Start(context.Background())

			for i := 0; i < numMessages; i++ {
				_ = p.Submit(context.Background(), outbound.Delivery{
					Msg: outbound.Message{PlayerID: "447000000001", Text: "hi"},
				})
			}

			p.Shutdown(context.Background())

			mu.Lock()
			defer mu.Unlock()
			return sent == numMessages && committed == numMessages
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestPoolCommitsOnDeliveryFailure(t *testing.T) {
	l, _ := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	ms := new(MockSender)
	mc := new(MockConsumer)

	ms.On("SendText", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("api down"))
	mc.On("Commit", mock.Anything, mock.Anything).Return(nil)

	p := NewPool(l, ms, mc, 1)
	p.retryOpts.Interval = 0
	p.Start(context.Background())

	err := p.Submit(context.Background(), outbound.Delivery{
		Msg: outbound.Message{PlayerID: "447000000001", Text: "hi"},
	})
	assert.NoError(t, err)

	assert.NoError(t, p.Shutdown(context.Background()))

	// Even a failed send must commit its offset so the topic drains
	mc.AssertCalled(t, "Commit", mock.Anything, mock.Anything)
	// The send is retried once before giving up
	ms.AssertNumberOfCalls(t, "SendText", 2)
}

func TestPoolShutdownIdle(t *testing.T) {
	l, _ := logger.New(logger.Config{Level: "error", ServiceName: "test"})
	p := NewPool(l, new(MockSender), new(MockConsumer), 1)
	p.Start(context.Background())
	assert.NoError(t, p.Shutdown(context.Background()))
}
