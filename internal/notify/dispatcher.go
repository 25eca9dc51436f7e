package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/logger"
)

type job struct {
	event *Event
	email *EmailMessage
	at    time.Time
}

// Dispatcher delivers events and emails off the request path. Emit and
// SendEmail never block and never fail the caller: a full queue drops the
// job, and delivery errors are logged.
type Dispatcher struct {
	store  Store
	mailer Mailer
	log    logger.Logger
	now    func() time.Time

	queue chan job
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(store Store, mailer Mailer, log logger.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		store:  store,
		mailer: mailer,
		log:    log,
		now:    time.Now,
		queue:  make(chan job, queueSize),
	}
}

// Start launches the delivery worker. ctx bounds each delivery, not the worker.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for j := range d.queue {
			d.deliver(ctx, j)
		}
	}()
}

// Close stops accepting jobs and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) enqueue(j job) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notify: dispatcher closed, dropping job")
		return
	}
	select {
	case d.queue <- j:
	default:
		d.log.Warn("notify: queue full, dropping job")
	}
}

func (d *Dispatcher) Emit(_ context.Context, ev Event) {
	d.enqueue(job{event: &ev, at: d.now()})
}

func (d *Dispatcher) SendEmail(_ context.Context, msg EmailMessage) {
	d.enqueue(job{email: &msg, at: d.now()})
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if ev := j.event; ev != nil {
		data := ev.Data
		if data == nil {
			data = map[string]interface{}{}
		}
		_, err := d.store.SaveNotification(ctx, Notification{
			ID:        uuid.NewString(),
			UserID:    ev.UserID,
			Type:      ev.Type,
			Message:   ev.Message,
			Data:      data,
			CreatedAt: j.at.UTC(),
		})
		if err != nil {
			d.log.Error("notify: save notification", err, map[string]interface{}{"user_id": ev.UserID, "type": string(ev.Type)})
		}
	}
	if msg := j.email; msg != nil {
		if err := d.mailer.Send(ctx, *msg); err != nil {
			d.log.Warn("notify: send email", err, map[string]interface{}{"subject": msg.Subject})
		}
	}
}
