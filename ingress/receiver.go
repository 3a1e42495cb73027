// Package ingress contains the receive-side pipeline stage.
package ingress

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/FerroO2000/filo/event"
	"github.com/FerroO2000/filo/internal"
	"github.com/FerroO2000/filo/internal/config"
	"github.com/FerroO2000/filo/line"
	"github.com/FerroO2000/filo/serial"
	"github.com/FerroO2000/filo/task"
)

//////////////
//  CONFIG  //
//////////////

// Default values for the line receiver stage configuration.
const (
	DefaultReceiverConfigLineCapacity   = line.DefaultCapacity
	DefaultReceiverConfigReadDelayTicks = 5
	DefaultReceiverConfigListenerMax    = event.DefaultListenerMax
)

// ReceiverConfig contains the configuration for the line receiver stage.
type ReceiverConfig struct {
	// LineCapacity is the line buffer size in bytes,
	// including the trailing NUL.
	LineCapacity int

	// ReadDelayTicks is the number of scheduler ticks the receiver
	// yields between polls of the byte source. Zero disables the
	// delay and the receiver busy-polls.
	ReadDelayTicks uint32

	// EventTag is the numeric tag of the line-arrived event.
	EventTag uint32

	// ListenerMax is the listener capacity of the line-arrived event.
	ListenerMax int
}

// NewReceiverConfig returns a default ReceiverConfig.
func NewReceiverConfig() *ReceiverConfig {
	return &ReceiverConfig{
		LineCapacity:   DefaultReceiverConfigLineCapacity,
		ReadDelayTicks: DefaultReceiverConfigReadDelayTicks,
		ListenerMax:    DefaultReceiverConfigListenerMax,
	}
}

// Validate checks the configuration.
func (c *ReceiverConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotNegative(ac, "LineCapacity", &c.LineCapacity, DefaultReceiverConfigLineCapacity)
	config.CheckNotZero(ac, "LineCapacity", &c.LineCapacity, DefaultReceiverConfigLineCapacity)
	config.CheckNotLower(ac, "LineCapacity", &c.LineCapacity, 4)

	config.CheckNotNegative(ac, "ListenerMax", &c.ListenerMax, DefaultReceiverConfigListenerMax)
	config.CheckNotZero(ac, "ListenerMax", &c.ListenerMax, DefaultReceiverConfigListenerMax)
}

/////////////
//  STAGE  //
/////////////

// Receiver is an ingress stage that assembles lines from a byte source
// and notifies its listeners once per completed line.
type Receiver struct {
	tel *internal.Telemetry

	cfg *ReceiverConfig

	src     serial.Source
	delayer task.Delayer

	framer *line.Framer
	source *event.Source

	lastLineMux sync.Mutex
	lastLine    line.Line

	// Metrics
	receivedBytes  atomic.Int64
	receivedLines  atomic.Int64
	truncatedLines atomic.Int64
}

// NewReceiver returns a new line receiver reading from src.
// A nil delayer falls back to the default kernel.
func NewReceiver(src serial.Source, delayer task.Delayer, cfg *ReceiverConfig) *Receiver {
	if cfg == nil {
		cfg = NewReceiverConfig()
	}

	if delayer == nil {
		delayer = task.Default()
	}

	return &Receiver{
		tel: internal.NewTelemetry("ingress", "line-receiver"),

		cfg: cfg,

		src:     src,
		delayer: delayer,

		source: event.NewSourceSized(cfg.EventTag, cfg.ListenerMax),
	}
}

// Attach appends a listener to the line-arrived event chain.
func (r *Receiver) Attach(listener event.Listener) error {
	return r.source.Attach(listener)
}

// Source returns the line-arrived event source.
func (r *Receiver) Source() *event.Source {
	return r.source
}

// Event returns the numeric tag of the line-arrived event.
func (r *Receiver) Event() uint32 {
	return r.source.Event()
}

// LastLine returns the most recently completed line.
// Listeners call it from their update callback.
func (r *Receiver) LastLine() line.Line {
	r.lastLineMux.Lock()
	defer r.lastLineMux.Unlock()

	return r.lastLine
}

func (r *Receiver) setLastLine(l line.Line) {
	r.lastLineMux.Lock()
	r.lastLine = l
	r.lastLineMux.Unlock()
}

func (r *Receiver) initMetrics() {
	r.tel.NewCounter("received_bytes", func() int64 { return r.receivedBytes.Load() })
	r.tel.NewCounter("received_lines", func() int64 { return r.receivedLines.Load() })
	r.tel.NewCounter("truncated_lines", func() int64 { return r.truncatedLines.Load() })
}

// Init initializes the stage.
func (r *Receiver) Init(_ context.Context) error {
	r.tel.LogInfo("initializing")

	configValidator := config.NewValidator(r.tel)
	configValidator.Validate(r.cfg)

	r.framer = line.NewFramer(r.cfg.LineCapacity)

	r.initMetrics()

	return nil
}

// Run runs the receive loop: poll the byte source, feed the framer and
// notify the listeners once per completed line. Between polls the
// receiver yields for the configured number of ticks.
func (r *Receiver) Run(ctx context.Context) {
	r.tel.LogInfo("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if r.src.Available() {
			b, err := r.src.ReadByte()
			if err == nil {
				r.feed(b)
			}
		}

		r.delayer.Delay(ctx, r.cfg.ReadDelayTicks)
	}
}

func (r *Receiver) feed(b byte) {
	r.receivedBytes.Add(1)

	if !r.framer.Feed(b) {
		return
	}

	if r.framer.Overflowed() {
		r.truncatedLines.Add(1)
		r.tel.LogWarn("line exceeded capacity, content truncated",
			"capacity", r.framer.Capacity())
	}

	r.setLastLine(r.framer.TakeLine())
	r.receivedLines.Add(1)

	r.source.Notify()
}

// Close closes the stage.
func (r *Receiver) Close() {
	r.tel.LogInfo("closing")
}
