package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/core/ports"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []ports.EmailMessage
	errs map[string]error // subject -> error to return
	done chan struct{}    // signalled on every Send
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		errs: make(map[string]error),
		done: make(chan struct{}, 64),
	}
}

func (m *recordingMailer) Send(_ context.Context, msg ports.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done <- struct{}{}
	if err := m.errs[msg.Subject]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for send %d of %d", i+1, n)
		}
	}
}

func (m *recordingMailer) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.Subject)
	}
	return out
}

func TestMailQueue_Delivers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	q := NewMailQueue(2, mailer, zerolog.Nop())
	q.Start(ctx)

	q.Enqueue(ports.EmailMessage{Key: "ap_1", To: "a@example.com", Subject: "one"})
	q.Enqueue(ports.EmailMessage{Key: "ap_2", To: "b@example.com", Subject: "two"})
	mailer.waitFor(t, 2)

	if got := mailer.subjects(); len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %v", got)
	}
}

func TestMailQueue_SameKeyStaysOrdered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	q := NewMailQueue(4, mailer, zerolog.Nop())
	q.Start(ctx)

	const n = 10
	for i := 0; i < n; i++ {
		q.Enqueue(ports.EmailMessage{Key: "ap_1", Subject: string(rune('a' + i))})
	}
	mailer.waitFor(t, n)

	subjects := mailer.subjects()
	for i := 1; i < len(subjects); i++ {
		if subjects[i] < subjects[i-1] {
			t.Fatalf("messages for one key arrived out of order: %v", subjects)
		}
	}
}

func TestMailQueue_FailureDoesNotStopWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := newRecordingMailer()
	mailer.errs["boom"] = errors.New("smtp unavailable")
	q := NewMailQueue(1, mailer, zerolog.Nop())
	q.Start(ctx)

	q.Enqueue(ports.EmailMessage{Key: "ap_1", Subject: "boom"})
	q.Enqueue(ports.EmailMessage{Key: "ap_1", Subject: "after"})
	mailer.waitFor(t, 2)

	subjects := mailer.subjects()
	if len(subjects) != 1 || subjects[0] != "after" {
		t.Fatalf("worker must survive a failed send and process the next message, got %v", subjects)
	}
}

func TestMailQueue_ShardIsStable(t *testing.T) {
	q := NewMailQueue(4, newRecordingMailer(), zerolog.Nop())

	first := q.shardIndex("ap_42")
	for i := 0; i < 10; i++ {
		if q.shardIndex("ap_42") != first {
			t.Fatal("shard index must be deterministic per key")
		}
	}
}

func TestMailQueue_DefaultWorkerCount(t *testing.T) {
	q := NewMailQueue(0, newRecordingMailer(), zerolog.Nop())
	if len(q.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(q.workers))
	}
}
