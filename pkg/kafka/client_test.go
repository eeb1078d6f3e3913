package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"interviewiq-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	err   error
	calls []tasks.ChatClassifiedEvent
}

func (f *fakeProcessor) Process(_ context.Context, event tasks.ChatClassifiedEvent) error {
	f.calls = append(f.calls, event)
	return f.err
}

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounter) IncrAttempts(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) ResetAttempts(_ context.Context, key string) error {
	delete(f.counts, key)
	return nil
}

func encode(t *testing.T, event tasks.ChatClassifiedEvent) []byte {
	t.Helper()
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestHandleMessage_Success(t *testing.T) {
	proc := &fakeProcessor{}
	counter := &fakeCounter{counts: map[string]int64{"chat-5": 2}}

	ok := handleMessage(context.Background(), encode(t, tasks.ChatClassifiedEvent{RecordID: 5, Category: "hr"}), proc, counter, 1)
	assert.True(t, ok)
	require.Len(t, proc.calls, 1)
	assert.Equal(t, "hr", proc.calls[0].Category)
	assert.NotContains(t, counter.counts, "chat-5")
}

func TestHandleMessage_MalformedIsCommitted(t *testing.T) {
	proc := &fakeProcessor{}
	ok := handleMessage(context.Background(), []byte("{not json"), proc, &fakeCounter{counts: map[string]int64{}}, 1)
	assert.True(t, ok)
	assert.Empty(t, proc.calls)
}

func TestHandleMessage_RetriesUntilLimit(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("es down")}
	counter := &fakeCounter{counts: map[string]int64{}}
	value := encode(t, tasks.ChatClassifiedEvent{RecordID: 9})

	assert.False(t, handleMessage(context.Background(), value, proc, counter, 1))
	assert.False(t, handleMessage(context.Background(), value, proc, counter, 2))
	assert.True(t, handleMessage(context.Background(), value, proc, counter, 3))
	assert.Len(t, proc.calls, maxAttempts)
}

func TestHandleMessage_CounterFailureFallsBackToLocalCount(t *testing.T) {
	proc := &fakeProcessor{err: errors.New("es down")}
	counter := &fakeCounter{err: errors.New("redis down")}
	value := encode(t, tasks.ChatClassifiedEvent{RecordID: 1})

	assert.False(t, handleMessage(context.Background(), value, proc, counter, 1))
	assert.False(t, handleMessage(context.Background(), value, proc, counter, 2))
	assert.True(t, handleMessage(context.Background(), value, proc, counter, maxAttempts))
}

func TestConsume_GivesUpWhenRedisIsDown(t *testing.T) {
	defer func(d time.Duration) { retryBackoff = d }(retryBackoff)
	retryBackoff = time.Millisecond

	proc := &fakeProcessor{err: errors.New("es down")}
	counter := &fakeCounter{err: errors.New("redis down")}

	assert.True(t, consume(context.Background(), encode(t, tasks.ChatClassifiedEvent{RecordID: 2}), proc, counter))
	assert.Len(t, proc.calls, maxAttempts)
}

func TestConsume_StopsOnCancel(t *testing.T) {
	defer func(d time.Duration) { retryBackoff = d }(retryBackoff)
	retryBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	proc := &fakeProcessor{err: errors.New("es down")}

	assert.False(t, consume(ctx, encode(t, tasks.ChatClassifiedEvent{RecordID: 3}), proc, &fakeCounter{counts: map[string]int64{}}))
	assert.Len(t, proc.calls, 1)
}

func TestBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokers(" a:9092, ,b:9092 "))
	assert.Nil(t, brokers(""))
}
