package mail

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/wildgarden/internal/domain/order"
)

// DispatcherConfig configures the confirmation email queue.
type DispatcherConfig struct {
	From      string
	ReplyTo   string
	Workers   int
	QueueSize int

	// StatusTimeout bounds each email status write. Writes outlive the
	// dispatcher context so the terminal status lands during shutdown.
	StatusTimeout time.Duration
}

var _ order.Notifier = (*Dispatcher)(nil)

// Dispatcher sends order confirmation emails from a bounded in-memory queue.
// OrderCreated never blocks; delivery happens on worker goroutines started by
// Run. Each send is attempted once and its outcome recorded on the order.
// Emails still queued when Run stops are recorded as failed.
type Dispatcher struct {
	cfg      DispatcherConfig
	sender   Sender
	statuses order.EmailStatusWriter
	lg       *zap.Logger
	queue    chan order.Order
	now      func() time.Time

	// mu orders enqueues and overflow.Go against closing in Run.
	mu       sync.Mutex
	closed   bool
	overflow sync.WaitGroup

	sent    metric.Int64Counter
	failed  metric.Int64Counter
	dropped metric.Int64Counter
}

// NewDispatcher creates a Dispatcher. A nil meter provider disables metrics.
func NewDispatcher(
	cfg DispatcherConfig,
	sender Sender,
	statuses order.EmailStatusWriter,
	lg *zap.Logger,
	mp metric.MeterProvider,
) (*Dispatcher, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 5 * time.Second
	}
	if mp == nil {
		mp = metricnoop.NewMeterProvider()
	}

	meter := mp.Meter("github.com/xenking/wildgarden/internal/mail")
	sent, err := meter.Int64Counter("email.sent", metric.WithDescription("Confirmation emails delivered"))
	if err != nil {
		return nil, errors.Wrap(err, "email.sent counter")
	}
	failed, err := meter.Int64Counter("email.failed", metric.WithDescription("Confirmation emails that failed to send"))
	if err != nil {
		return nil, errors.Wrap(err, "email.failed counter")
	}
	dropped, err := meter.Int64Counter("email.dropped", metric.WithDescription("Confirmation emails not queued"))
	if err != nil {
		return nil, errors.Wrap(err, "email.dropped counter")
	}

	return &Dispatcher{
		cfg:      cfg,
		sender:   sender,
		statuses: statuses,
		lg:       lg,
		queue:    make(chan order.Order, cfg.QueueSize),
		now:      time.Now,
		sent:     sent,
		failed:   failed,
		dropped:  dropped,
	}, nil
}

var (
	// ErrQueueFull is recorded on orders whose confirmation could not be queued.
	ErrQueueFull = errors.New("email queue is full")
	// ErrStopped is recorded on orders whose confirmation was not sent
	// before the dispatcher stopped.
	ErrStopped = errors.New("email dispatcher stopped")
)

// OrderCreated queues the confirmation for o. A full queue drops the email
// and records the failure on the order in the background.
func (d *Dispatcher) OrderCreated(ctx context.Context, o *order.Order) {
	lg := d.lg.With(zap.String("order_id", o.ID))

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.dropped.Add(ctx, 1)
		lg.Warn("Confirmation email dispatcher stopped, dropping")
		d.record(ctx, lg, o.ID, d.failure(ErrStopped))
		return
	}
	defer d.mu.Unlock()

	select {
	case d.queue <- *o:
	default:
		d.dropped.Add(ctx, 1)
		lg.Warn("Confirmation email queue full, dropping", zap.Int("queue_size", d.cfg.QueueSize))

		st, id := d.failure(ErrQueueFull), o.ID
		d.overflow.Go(func() { d.record(ctx, lg, id, st) })
	}
}

// Pending returns the number of queued emails.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run processes the queue until ctx is cancelled. Cancel ctx only after
// the HTTP server stopped accepting orders. Emails still queued at that point
// are not sent and are recorded as failed.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	for range d.cfg.Workers {
		g.Go(func() error {
			for gCtx.Err() == nil {
				select {
				case <-gCtx.Done():
					return nil
				case o := <-d.queue:
					d.deliver(gCtx, o)
				}
			}
			return nil
		})
	}
	err := g.Wait()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.overflow.Wait()
	d.drain(ctx)
	return err
}

// drain marks every queued email as failed. No enqueue can happen once
// closed is set.
func (d *Dispatcher) drain(ctx context.Context) {
	var n int
	for {
		select {
		case o := <-d.queue:
			n++
			d.record(ctx, d.lg.With(zap.String("order_id", o.ID)), o.ID, d.failure(ErrStopped))
		default:
			if n > 0 {
				d.lg.Warn("Confirmation emails left unsent on shutdown", zap.Int("count", n))
			}
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, o order.Order) {
	lg := d.lg.With(zap.String("order_id", o.ID))

	if o.Email.Status == order.EmailSent {
		return
	}
	to := strings.TrimSpace(o.Customer.Email)
	if to == "" {
		d.record(ctx, lg, o.ID, order.EmailStatus{Status: order.EmailSkipped, UpdatedAt: d.stamp()})
		return
	}

	d.record(ctx, lg, o.ID, order.EmailStatus{Status: order.EmailSending, UpdatedAt: d.stamp()})

	id, err := d.send(ctx, to, &o)
	if err != nil {
		d.failed.Add(ctx, 1)
		lg.Error("Send order confirmation", zap.Error(err))
		d.record(ctx, lg, o.ID, d.failure(err))
		return
	}

	d.sent.Add(ctx, 1)
	lg.Info("Order confirmation sent", zap.String("message_id", id))
	at := d.stamp()
	d.record(ctx, lg, o.ID, order.EmailStatus{
		Status:    order.EmailSent,
		MessageID: id,
		UpdatedAt: at,
		SentAt:    at,
	})
}

func (d *Dispatcher) send(ctx context.Context, to string, o *order.Order) (string, error) {
	html, err := RenderOrderConfirmation(o)
	if err != nil {
		return "", err
	}
	return d.sender.Send(ctx, Message{
		From:    d.cfg.From,
		To:      []string{to},
		ReplyTo: d.cfg.ReplyTo,
		Subject: OrderSubject(o.ID),
		HTML:    html,
	})
}

// record writes the email status. The write ignores cancellation of ctx and
// is bounded by StatusTimeout instead. Failures are logged only.
func (d *Dispatcher) record(ctx context.Context, lg *zap.Logger, id string, st order.EmailStatus) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.cfg.StatusTimeout)
	defer cancel()

	if err := d.statuses.UpdateEmailStatus(ctx, id, st); err != nil {
		lg.Warn("Record email status",
			zap.String("status", string(st.Status)),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) failure(err error) order.EmailStatus {
	return order.EmailStatus{Status: order.EmailError, Error: err.Error(), UpdatedAt: d.stamp()}
}

func (d *Dispatcher) stamp() *time.Time {
	t := d.now()
	return &t
}
