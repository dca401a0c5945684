package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/accounts-api/internal/api/metrics"
	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	notifyTimeout  = 10 * time.Second
)

var _ ports.NoticeQueue = (*Dispatcher)(nil)

// Dispatcher delivers confirmation notices on a fixed set of workers. Notices
// are sharded by email so the notices of one account arrive in issue order
// (a resent token is never overtaken by the one it replaced).
type Dispatcher struct {
	workers  []chan ports.ConfirmationNotice
	notifier ports.Notifier
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.Notifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan ports.ConfirmationNotice, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ConfirmationNotice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled or
// after Stop has drained their channels.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the worker channels and waits for queued notices to be
// delivered. Enqueue must not be called afterwards.
func (d *Dispatcher) Stop() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

// Enqueue hands a notice to the worker responsible for its email. It never
// blocks: when the worker's buffer is full the notice is dropped and logged,
// and the account owner has to ask for a resend.
func (d *Dispatcher) Enqueue(notice ports.ConfirmationNotice) {
	idx := d.shardIndex(domain.NormalizeEmail(notice.Email))
	ch := d.workers[idx]

	select {
	case ch <- notice:
		metrics.NoticeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(ch)))
	default:
		metrics.NoticesSentTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("account_id", notice.AccountID).
			Int("worker_id", idx).
			Msg("notice queue full, confirmation notice dropped")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ConfirmationNotice) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			return
		case notice, ok := <-ch:
			if !ok {
				return
			}
			metrics.NoticeQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.deliver(ctx, id, notice)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, id int, notice ports.ConfirmationNotice) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, notice); err != nil {
		metrics.NoticesSentTotal.WithLabelValues("error").Inc()
		d.log.Error().Err(err).
			Str("account_id", notice.AccountID).
			Int("worker_id", id).
			Msg("confirmation notice delivery failed")
		return
	}
	metrics.NoticesSentTotal.WithLabelValues("ok").Inc()
}
