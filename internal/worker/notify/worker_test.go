package notifyworker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/dentaai-platform/internal/notify"
	"github.com/wolfman30/dentaai-platform/pkg/logging"
)

type fakeQueue struct {
	mu       sync.Mutex
	batches  [][]queueMessage
	deleted  []string
	received chan struct{}
}

func (q *fakeQueue) Receive(ctx context.Context, _ int, _ int) ([]queueMessage, error) {
	q.mu.Lock()
	if len(q.batches) > 0 {
		batch := q.batches[0]
		q.batches = q.batches[1:]
		q.mu.Unlock()
		return batch, nil
	}
	q.mu.Unlock()
	if q.received != nil {
		select {
		case q.received <- struct{}{}:
		default:
		}
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Delete(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, receipt)
	return nil
}

func (q *fakeQueue) deletedHandles() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.deleted...)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (d *recordingDispatcher) Emit(_ context.Context, msg notify.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

func body(t *testing.T, msg notify.Message) string {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	return string(data)
}

func TestWorkerDispatchesAndDeletes(t *testing.T) {
	intent := notify.AppointmentConfirmed{AppointmentID: "a1", Phone: "0555", Name: "Ayşe", Date: "2025-06-10", Time: "10:00"}.Message()
	queue := &fakeQueue{
		batches: [][]queueMessage{{
			{ID: "m1", Body: body(t, intent), ReceiptHandle: "r1"},
			{ID: "m2", Body: "not json", ReceiptHandle: "r2"},
		}},
		received: make(chan struct{}, 1),
	}
	dispatcher := &recordingDispatcher{}

	w := New(queue, dispatcher, logging.New("error"), WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	select {
	case <-queue.received:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	cancel()
	w.Wait()

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "a1", dispatcher.sent[0].AppointmentID)
	assert.ElementsMatch(t, []string{"r1", "r2"}, queue.deletedHandles())
}

func TestHandleMessageRetriesThenDrops(t *testing.T) {
	intent := notify.ManualSMS{Phone: "0555", Name: "Ayşe", Body: "Merhaba"}.Message()
	queue := &fakeQueue{}
	dispatcher := &recordingDispatcher{err: errors.New("gateway down")}
	w := New(queue, dispatcher, logging.New("error"), WithMaxReceives(3))

	w.handleMessage(context.Background(), queueMessage{ID: "m1", Body: body(t, intent), ReceiptHandle: "r1", ReceiveCount: "1"})
	assert.Empty(t, queue.deletedHandles())

	w.handleMessage(context.Background(), queueMessage{ID: "m1", Body: body(t, intent), ReceiptHandle: "r1", ReceiveCount: "3"})
	assert.Equal(t, []string{"r1"}, queue.deletedHandles())
}

type fakeSQS struct {
	receiveIn *sqs.ReceiveMessageInput
	deleteIn  *sqs.DeleteMessageInput
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.receiveIn = in
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{{
		MessageId:     aws.String("m1"),
		Body:          aws.String(`{"kind":"manual_sms"}`),
		ReceiptHandle: aws.String("r1"),
		Attributes:    map[string]string{"ApproximateReceiveCount": "2"},
	}}}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleteIn = in
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue(t *testing.T) {
	api := &fakeSQS{}
	q := newSQSQueue(api, "http://localhost:4566/000000000000/notifications")

	msgs, err := q.Receive(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "2", msgs[0].ReceiveCount)
	assert.Equal(t, int32(5), api.receiveIn.MaxNumberOfMessages)
	assert.Equal(t, int32(10), api.receiveIn.WaitTimeSeconds)

	require.NoError(t, q.Delete(context.Background(), ""))
	assert.Nil(t, api.deleteIn)
	require.NoError(t, q.Delete(context.Background(), "r1"))
	assert.Equal(t, "r1", aws.ToString(api.deleteIn.ReceiptHandle))
}

func TestNextBackoffCapsAtMax(t *testing.T) {
	var got []time.Duration
	for d := minBackoff; len(got) < 5; d = nextBackoff(d) {
		got = append(got, d)
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, got)
}

type failingQueue struct {
	calls chan struct{}
}

func (q *failingQueue) Receive(context.Context, int, int) ([]queueMessage, error) {
	select {
	case q.calls <- struct{}{}:
	default:
	}
	return nil, errors.New("queue unreachable")
}

func (q *failingQueue) Delete(context.Context, string) error { return nil }

func TestWorkerStopsDuringBackoff(t *testing.T) {
	queue := &failingQueue{calls: make(chan struct{}, 1)}
	w := New(queue, &recordingDispatcher{}, logging.New("error"), WithWorkerCount(1))
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	select {
	case <-queue.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never polled the queue")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("worker did not stop while backing off")
	}
}
