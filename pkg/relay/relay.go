// Package relay forwards a live upstream byte stream to a downstream sink
// chunk by chunk, optionally lifting in-band session metadata markers out of
// the text and handing them to a side consumer.
//
// A relay session moves STREAMING -> COMPLETE on upstream EOF, or
// STREAMING -> ABORTED on a read error, write error, idle timeout or context
// cancellation. Reads and writes are strictly alternating; nothing is
// written to the sink after it is closed.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultChunkSize is the upstream read buffer size.
	DefaultChunkSize = 32 * 1024

	// DefaultIdleTimeout bounds the wait for the next upstream chunk.
	DefaultIdleTimeout = 2 * time.Minute
)

// ErrIdleTimeout aborts a relay whose upstream went quiet for longer than
// the configured idle timeout.
var ErrIdleTimeout = errors.New("upstream idle timeout")

// State is the lifecycle state of a relay session.
type State string

const (
	StateStreaming State = "STREAMING"
	StateComplete  State = "COMPLETE"
	StateAborted   State = "ABORTED"
)

// Sink is the downstream side of a relay. Close signals a clean end of
// stream; CloseWithError aborts it so the consumer sees a truncation.
// *io.PipeWriter satisfies Sink.
type Sink interface {
	io.Writer
	Close() error
	CloseWithError(err error) error
}

// MetaHandler receives extracted metadata in stream order. A non-nil error
// is treated as a downstream failure and aborts the relay.
type MetaHandler func(meta *Meta) error

// Config configures a Relay.
type Config struct {
	// ScanMarkers enables metadata marker extraction. When false chunks are
	// forwarded byte-for-byte.
	ScanMarkers bool

	// OnMeta is called for every extracted marker. Optional.
	OnMeta MetaHandler

	// IdleTimeout closes the upstream reader when no chunk arrives in time.
	// Zero selects DefaultIdleTimeout, negative disables it.
	IdleTimeout time.Duration

	// MaxMarkerBytes caps the held-back window for one marker candidate.
	MaxMarkerBytes int

	// ChunkSize is the read buffer size. Zero selects DefaultChunkSize.
	ChunkSize int

	// Logger is the provided zap logger. Nil disables logging.
	Logger *zap.Logger
}

// Result summarizes a finished relay session.
type Result struct {
	State       State
	Err         error
	BytesIn     int64
	BytesOut    int64
	Chunks      int
	Markers     int
	Malformed   int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Relay runs relay sessions. A Relay holds only configuration, so one value
// may serve any number of sequential or concurrent sessions; every Run owns
// its own buffers and scanner.
type Relay struct {
	config Config
	logger *zap.Logger
}

// New creates a Relay, filling unset config fields with defaults.
func New(c Config) *Relay {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.MaxMarkerBytes <= 0 {
		c.MaxMarkerBytes = DefaultMaxMarkerBytes
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Relay{config: c, logger: logger}
}

// Run pumps src into sink until src is exhausted or the session aborts. It
// always closes sink, cleanly or with the abort cause. If src is an
// io.Closer it is closed on idle timeout, context cancellation and
// downstream failure so a blocked Read returns promptly.
func (r *Relay) Run(ctx context.Context, src io.Reader, sink Sink) Result {
	res := Result{State: StateStreaming, StartedAt: time.Now()}

	var (
		once   sync.Once
		mu     sync.Mutex
		reason error
	)
	closeSrc := func(cause error) {
		once.Do(func() {
			mu.Lock()
			reason = cause
			mu.Unlock()
			if c, ok := src.(io.Closer); ok {
				_ = c.Close()
			}
		})
	}
	cause := func(fallback error) error {
		mu.Lock()
		defer mu.Unlock()
		if reason != nil {
			return reason
		}
		return fallback
	}

	stop := context.AfterFunc(ctx, func() { closeSrc(ctx.Err()) })
	defer stop()

	// The idle timer only runs while a Read is outstanding; a slow client
	// blocking a sink write must not count against the upstream.
	var idle *time.Timer
	if r.config.IdleTimeout > 0 {
		idle = time.AfterFunc(r.config.IdleTimeout, func() { closeSrc(ErrIdleTimeout) })
		idle.Stop()
		defer idle.Stop()
	}

	var scanner *Scanner
	if r.config.ScanMarkers {
		scanner = NewScanner(r.config.MaxMarkerBytes)
	}

	buf := make([]byte, r.config.ChunkSize)
	for {
		if idle != nil {
			idle.Reset(r.config.IdleTimeout)
		}
		n, err := src.Read(buf)
		if idle != nil {
			idle.Stop()
		}

		if n > 0 {
			res.BytesIn += int64(n)
			res.Chunks++

			var segs []Segment
			if scanner != nil {
				segs = scanner.Feed(buf[:n])
			} else {
				segs = []Segment{{Text: buf[:n]}}
			}

			if werr := r.deliver(segs, sink, &res); werr != nil {
				closeSrc(werr)
				return r.abort(res, sink, fmt.Errorf("writing downstream: %w", werr), scanner)
			}
		}

		if errors.Is(err, io.EOF) {
			if scanner != nil {
				if werr := r.deliver(scanner.Flush(), sink, &res); werr != nil {
					return r.abort(res, sink, fmt.Errorf("writing downstream: %w", werr), scanner)
				}
			}
			return r.complete(res, sink, scanner)
		}
		if err != nil {
			return r.abort(res, sink, fmt.Errorf("reading upstream: %w", cause(err)), scanner)
		}
	}
}

// deliver writes text segments to the sink and hands metas to OnMeta, in
// order.
func (r *Relay) deliver(segs []Segment, sink Sink, res *Result) error {
	for _, seg := range segs {
		if seg.Meta != nil {
			res.Markers++
			r.logger.Debug("session metadata extracted",
				zap.Int64("session_id", seg.Meta.SessionID),
				zap.Int64("chat_id", seg.Meta.ChatID),
				zap.Int("message_count", len(seg.Meta.Messages)),
			)
			if r.config.OnMeta != nil {
				if err := r.config.OnMeta(seg.Meta); err != nil {
					return err
				}
			}
			continue
		}

		if len(seg.Text) == 0 {
			continue
		}
		n, err := sink.Write(seg.Text)
		res.BytesOut += int64(n)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Relay) complete(res Result, sink Sink, scanner *Scanner) Result {
	res.State = StateComplete
	res.CompletedAt = time.Now()
	if scanner != nil {
		res.Malformed = scanner.Malformed()
	}

	if err := sink.Close(); err != nil {
		r.logger.Warn("closing downstream sink", zap.Error(err))
	}

	if res.Malformed > 0 {
		r.logger.Warn("forwarded malformed session metadata as text",
			zap.Int("malformed", res.Malformed),
		)
	}

	return res
}

func (r *Relay) abort(res Result, sink Sink, err error, scanner *Scanner) Result {
	res.State = StateAborted
	res.Err = err
	res.CompletedAt = time.Now()
	if scanner != nil {
		res.Malformed = scanner.Malformed()
	}

	_ = sink.CloseWithError(err)

	r.logger.Warn("relay aborted",
		zap.Error(err),
		zap.Int64("bytes_in", res.BytesIn),
		zap.Int64("bytes_out", res.BytesOut),
		zap.Int("chunks", res.Chunks),
	)

	return res
}
