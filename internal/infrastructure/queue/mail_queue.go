package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/api/metrics"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
	sendTimeout    = 15 * time.Second
)

// MailQueue routes outbound email to a fixed set of workers using consistent
// hashing on the message key, so mail for one appointment is sent in order.
// Delivery is fire-and-forget: failures are logged and counted, never
// surfaced to the transition that queued the message.
type MailQueue struct {
	workers []chan ports.EmailMessage
	mailer  ports.Mailer
	log     zerolog.Logger
}

// NewMailQueue creates a MailQueue with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailQueue(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *MailQueue {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	q := &MailQueue{
		workers: make([]chan ports.EmailMessage, numWorkers),
		mailer:  mailer,
		log:     log,
	}
	for i := range q.workers {
		q.workers[i] = make(chan ports.EmailMessage, channelBuffer)
	}
	return q
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (q *MailQueue) Start(ctx context.Context) {
	for i, ch := range q.workers {
		go q.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a message to the worker responsible for its key.
// Non-blocking up to channelBuffer capacity.
func (q *MailQueue) Enqueue(msg ports.EmailMessage) {
	idx := q.shardIndex(msg.Key)
	q.workers[idx] <- msg
	metrics.MailQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(q.workers[idx])))
}

func (q *MailQueue) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(q.workers)
}

func (q *MailQueue) runWorker(ctx context.Context, id int, ch <-chan ports.EmailMessage) {
	workerID := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.MailQueueDepth.WithLabelValues(workerID).Set(float64(len(ch)))

			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			err := q.mailer.Send(sendCtx, msg)
			cancel()

			if err != nil {
				metrics.EmailsTotal.WithLabelValues("failed").Inc()
				q.log.Error().Err(err).
					Str("to", msg.To).
					Str("subject", msg.Subject).
					Int("worker_id", id).
					Msg("email delivery failed")
				continue
			}
			metrics.EmailsTotal.WithLabelValues("sent").Inc()
		}
	}
}
