// Package egress contains the transmit-side pipeline stage.
package egress

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/filo/internal"
	"github.com/FerroO2000/filo/internal/config"
	"github.com/FerroO2000/filo/line"
	"github.com/FerroO2000/filo/queue"
	"github.com/FerroO2000/filo/serial"
)

//////////////
//  CONFIG  //
//////////////

// Default values for the line transmitter stage configuration.
const (
	DefaultTransmitterConfigLineCapacity = line.DefaultCapacity
	DefaultTransmitterConfigQueueSize    = 8
	DefaultTransmitterConfigSendTimeout  = queue.Forever
)

// TransmitterConfig contains the configuration for the line transmitter stage.
type TransmitterConfig struct {
	// LineCapacity is the line buffer size in bytes,
	// including the trailing NUL. Longer content is truncated
	// when enqueued.
	LineCapacity int

	// QueueSize is the capacity of the transmit queue in lines.
	QueueSize int

	// SendTimeout bounds how long Transmit waits for a free queue
	// slot. Zero makes Transmit non-blocking, queue.Forever waits
	// with no timeout.
	SendTimeout time.Duration
}

// NewTransmitterConfig returns a default TransmitterConfig.
func NewTransmitterConfig() *TransmitterConfig {
	return &TransmitterConfig{
		LineCapacity: DefaultTransmitterConfigLineCapacity,
		QueueSize:    DefaultTransmitterConfigQueueSize,
		SendTimeout:  DefaultTransmitterConfigSendTimeout,
	}
}

// Validate checks the configuration.
func (c *TransmitterConfig) Validate(ac *config.AnomalyCollector) {
	config.CheckNotNegative(ac, "LineCapacity", &c.LineCapacity, DefaultTransmitterConfigLineCapacity)
	config.CheckNotZero(ac, "LineCapacity", &c.LineCapacity, DefaultTransmitterConfigLineCapacity)
	config.CheckNotLower(ac, "LineCapacity", &c.LineCapacity, 4)

	config.CheckNotNegative(ac, "QueueSize", &c.QueueSize, DefaultTransmitterConfigQueueSize)
	config.CheckNotZero(ac, "QueueSize", &c.QueueSize, DefaultTransmitterConfigQueueSize)
}

/////////////
//  STAGE  //
/////////////

// Transmitter is an egress stage that dequeues completed lines and
// writes them byte-by-byte to a byte sink. The queue is the sole
// handoff point, so the bytes of distinct lines never interleave.
type Transmitter struct {
	tel *internal.Telemetry

	cfg *TransmitterConfig

	sink serial.Sink

	txQueue *queue.Queue[line.Line]

	// Metrics
	sentBytes    atomic.Int64
	sentLines    atomic.Int64
	droppedLines atomic.Int64
}

// NewTransmitter returns a new line transmitter writing to sink.
func NewTransmitter(sink serial.Sink, cfg *TransmitterConfig) *Transmitter {
	if cfg == nil {
		cfg = NewTransmitterConfig()
	}

	return &Transmitter{
		tel: internal.NewTelemetry("egress", "line-transmitter"),

		cfg: cfg,

		sink: sink,
	}
}

func (t *Transmitter) initMetrics() {
	t.tel.NewCounter("sent_bytes", func() int64 { return t.sentBytes.Load() })
	t.tel.NewCounter("sent_lines", func() int64 { return t.sentLines.Load() })
	t.tel.NewCounter("dropped_lines", func() int64 { return t.droppedLines.Load() })

	t.tel.NewUpDownCounter("queued_lines", func() int64 { return int64(t.txQueue.Len()) })
}

// Init initializes the stage and creates the transmit queue.
func (t *Transmitter) Init(_ context.Context) error {
	t.tel.LogInfo("initializing")

	configValidator := config.NewValidator(t.tel)
	configValidator.Validate(t.cfg)

	txQueue, err := queue.New[line.Line](t.cfg.QueueSize)
	if err != nil {
		return err
	}

	t.txQueue = txQueue

	t.initMetrics()

	return nil
}

// Transmit copies the line content into the transmit queue,
// truncating it to the configured capacity. It must be called
// after Init. It reports whether the line was enqueued.
func (t *Transmitter) Transmit(l line.Line) bool {
	return t.TransmitBytes(l.Bytes())
}

// TransmitString enqueues the string for transmission.
// The content should include the line ending, e.g. "\r\n".
func (t *Transmitter) TransmitString(s string) bool {
	return t.TransmitBytes([]byte(s))
}

// TransmitBytes enqueues the bytes for transmission.
// The content should include the line ending, e.g. "\r\n".
func (t *Transmitter) TransmitBytes(data []byte) bool {
	if t.txQueue == nil {
		return false
	}

	outLine := line.FromBytes(t.cfg.LineCapacity, data)

	return t.txQueue.Send(outLine, t.cfg.SendTimeout)
}

// SpacesAvailable returns the current free slot count of the
// transmit queue. Advisory only.
func (t *Transmitter) SpacesAvailable() int {
	if t.txQueue == nil {
		return 0
	}

	return t.txQueue.SpacesAvailable()
}

// Run runs the transmit loop: wait on the queue and write each
// dequeued line to the sink one byte at a time.
func (t *Transmitter) Run(ctx context.Context) {
	t.tel.LogInfo("running")

	for {
		outLine, err := t.txQueue.ReceiveContext(ctx)
		if err != nil {
			// Check if the transmit queue is closed, if so stop
			if errors.Is(err, queue.ErrClosed) {
				t.tel.LogInfo("transmit queue is closed, stopping")
				return
			}

			select {
			case <-ctx.Done():
				return
			default:
				continue
			}
		}

		t.writeLine(ctx, outLine)
	}
}

func (t *Transmitter) writeLine(ctx context.Context, outLine line.Line) {
	_, span := t.tel.NewTrace(ctx, "transmit line")
	defer span.End()

	for _, b := range outLine.Bytes() {
		if err := t.sink.WriteByte(b); err != nil {
			t.droppedLines.Add(1)
			t.tel.LogError("failed to write to sink", err)
			return
		}

		t.sentBytes.Add(1)
	}

	t.sentLines.Add(1)
}

// Close closes the stage and the transmit queue.
func (t *Transmitter) Close() {
	t.tel.LogInfo("closing")

	if t.txQueue != nil {
		t.txQueue.Close()
	}
}
