package broadcast

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DropCounter records events that never reached subscribers, by kind
// ("price" or "alert").
type DropCounter interface {
	BroadcastDropped(kind string)
}

type event struct {
	channel string
	userID  string
	price   PriceUpdate
	alert   AlertEvent
}

func (e event) kind() string {
	if e.userID != "" {
		return "alert"
	}
	return "price"
}

// Dispatcher is a bounded outbound queue in front of a Publisher. Publish
// calls never block and never fail; a full queue or a failed delivery is
// logged and counted.
type Dispatcher struct {
	target  Publisher
	queue   chan event
	timeout time.Duration
	logger  *zap.Logger
	drops   DropCounter

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewDispatcher(target Publisher, buffer int, timeout time.Duration, logger *zap.Logger, drops DropCounter) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		target:  target,
		queue:   make(chan event, buffer),
		timeout: timeout,
		logger:  logger,
		drops:   drops,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) PublishPrice(_ context.Context, update PriceUpdate) error {
	d.enqueue(event{channel: PriceGroup, price: update})
	return nil
}

func (d *Dispatcher) PublishAlert(_ context.Context, userID string, alert AlertEvent) error {
	d.enqueue(event{channel: AlertGroup(userID), userID: userID, alert: alert})
	return nil
}

func (d *Dispatcher) enqueue(ev event) {
	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("broadcast queue full, dropping event", zap.String("channel", ev.channel))
		d.dropped(ev.kind())
	}
}

// Run delivers queued events until ctx is cancelled or Close is called.
// Events still queued at that point are delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-ctx.Done():
			d.drain()
			return
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		default:
			return
		}
	}
}

// Close stops Run and waits for it to finish.
func (d *Dispatcher) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
	<-d.done
}

func (d *Dispatcher) deliver(ev event) {
	ctx := context.Background()
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	var err error
	if ev.userID != "" {
		err = d.target.PublishAlert(ctx, ev.userID, ev.alert)
	} else {
		err = d.target.PublishPrice(ctx, ev.price)
	}
	if err != nil {
		d.logger.Error("broadcast delivery failed", zap.String("channel", ev.channel), zap.Error(err))
		d.dropped(ev.kind())
	}
}

func (d *Dispatcher) dropped(kind string) {
	if d.drops != nil {
		d.drops.BroadcastDropped(kind)
	}
}
