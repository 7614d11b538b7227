package notifier

import (
	"context"
	"fmt"

	"pickupwatch/pkg/logger"

	"go.uber.org/zap"
)

// Sender fans a message out to every channel.
type Sender interface {
	SendMessage(ctx context.Context, message string, opts ...SendOption) []Result
}

// Result is the outcome of one channel for one message.
type Result struct {
	Channel string
	Skipped bool // channel not configured
	Err     error
}

// Dispatcher sends each message to a fixed, ordered list of channels.
type Dispatcher struct {
	channels []Channel
}

// NewDispatcher creates a dispatcher over channels, invoked in the given order.
func NewDispatcher(channels ...Channel) *Dispatcher {
	return &Dispatcher{channels: channels}
}

// SendMessage delivers message to every channel. An empty message is dropped.
// A failing channel is logged and never stops the remaining ones.
func (d *Dispatcher) SendMessage(ctx context.Context, message string, opts ...SendOption) []Result {
	if message == "" {
		return nil
	}

	var options SendOptions
	for _, opt := range opts {
		opt(&options)
	}

	log := logger.FromContext(ctx)
	results := make([]Result, 0, len(d.channels))
	for _, ch := range d.channels {
		res := invoke(ctx, ch, message, options)
		if res.Err != nil {
			logger.WithChannel(log, res.Channel).Warn("Notification failed", zap.Error(res.Err))
		}
		results = append(results, res)
	}
	return results
}

// ConfiguredCount returns how many channels have credentials.
func (d *Dispatcher) ConfiguredCount() int {
	n := 0
	for _, ch := range d.channels {
		if ch.Configured() {
			n++
		}
	}
	return n
}

func invoke(ctx context.Context, ch Channel, message string, opts SendOptions) (res Result) {
	res = Result{Channel: ch.Name(), Skipped: !ch.Configured()}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: %v", ErrChannelPanic, r)
		}
	}()

	res.Err = ch.Send(ctx, message, opts)
	return res
}
