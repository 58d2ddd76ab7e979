// Package telemetry drains the buffered noise differences to a collector in
// bounded chunks.
package telemetry

import (
	"context"
	"time"

	"github.com/itohio/noisey/pkg/ringbuf"
	"github.com/rs/zerolog"
)

// DefaultChunkSize is the number of samples carried by one message.
const DefaultChunkSize = 20

// Message is one telemetry chunk as it goes over the wire.
type Message struct {
	ID         string  `json:"id"`
	Interval   int32   `json:"interval"`   // update interval in ms
	NbElements int     `json:"nbElements"` // samples pending when the report started
	First      bool    `json:"first"`
	Noise      []int16 `json:"noise"`
}

// Sender delivers one message. Implementations live in pkg/transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Stats summarises one report.
type Stats struct {
	Messages int
	Failed   int
	Samples  int
}

// Reporter drains a ring buffer through a Sender.
type Reporter struct {
	ring      *ringbuf.Ring[int16]
	sender    Sender
	id        string
	interval  time.Duration
	chunkSize int
	maxChunks int
	log       zerolog.Logger

	chunk []int16
}

// NewReporter creates a reporter. chunkSize < 1 falls back to
// DefaultChunkSize. maxChunks caps the messages per report, 0 drains until
// the buffer is empty.
func NewReporter(ring *ringbuf.Ring[int16], sender Sender, id string, interval time.Duration, chunkSize, maxChunks int, log zerolog.Logger) *Reporter {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	if maxChunks < 0 {
		maxChunks = 0
	}
	return &Reporter{
		ring:      ring,
		sender:    sender,
		id:        id,
		interval:  interval,
		chunkSize: chunkSize,
		maxChunks: maxChunks,
		log:       log,
		chunk:     make([]int16, 0, chunkSize),
	}
}

// SetID changes the device id put in every message.
func (r *Reporter) SetID(id string) {
	r.id = id
}

// Report sends the pending samples in chunks. At least one message goes out
// even when nothing is pending, so the collector sees the device alive.
// A failed send is logged and not retried: its samples are dropped and the
// report continues with the next chunk.
func (r *Reporter) Report(ctx context.Context) Stats {
	var st Stats

	pending := r.ring.Pending()
	first := true
	for {
		if ctx.Err() != nil {
			break
		}

		r.chunk = r.ring.Drain(r.chunk[:0], r.chunkSize)
		msg := Message{
			ID:         r.id,
			Interval:   int32(r.interval / time.Millisecond),
			NbElements: pending,
			First:      first,
			Noise:      append([]int16{}, r.chunk...),
		}
		first = false

		st.Messages++
		st.Samples += len(msg.Noise)
		if err := r.sender.Send(ctx, msg); err != nil {
			st.Failed++
			r.log.Warn().Err(err).Int("samples", len(msg.Noise)).Msg("telemetry chunk lost")
		}

		if r.ring.Empty() || (r.maxChunks > 0 && st.Messages >= r.maxChunks) {
			break
		}
	}

	r.log.Debug().
		Int("pending", pending).
		Int("messages", st.Messages).
		Int("failed", st.Failed).
		Int("left", r.ring.Pending()).
		Msg("report")

	return st
}
