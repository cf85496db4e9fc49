// Package push adapts the external push channel onto the engine's bounded
// channels. The channel is a stream of newline-delimited JSON frames, each
// carrying either a delivery token or an event payload.
package push

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// Frame is one line of the push stream.
type Frame struct {
	Token string            `json:"token,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

const maxFrameBytes = 64 * 1024

// Reader feeds frames from a stream into the token and event channels.
type Reader struct {
	tokens chan<- string
	events chan<- entity.InboundEvent
	logger *slog.Logger
	now    func() time.Time
}

func NewReader(tokens chan<- string, events chan<- entity.InboundEvent, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{tokens: tokens, events: events, logger: logger, now: time.Now}
}

// Run reads r until EOF or ctx ends. Malformed lines are logged and skipped,
// as are lines longer than maxFrameBytes. Sends block when a channel is full,
// which applies backpressure to the stream.
func (p *Reader) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReaderSize(r, maxFrameBytes)

	line := 0
	for {
		raw, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			line++
			p.logger.Warn("push.frame.oversized", "line", line, "limit_bytes", maxFrameBytes)
			for errors.Is(err, bufio.ErrBufferFull) {
				_, err = br.ReadSlice('\n')
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read push stream: %w", err)
			}
			continue
		}
		if len(raw) > 0 {
			line++
			if derr := p.handle(ctx, line, bytes.TrimSpace(raw)); derr != nil {
				return derr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read push stream: %w", err)
		}
	}
}

func (p *Reader) handle(ctx context.Context, line int, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		p.logger.Warn("push.frame.malformed", "line", line, "error", err)
		return nil
	}
	return p.deliver(ctx, f)
}

func (p *Reader) deliver(ctx context.Context, f Frame) error {
	if f.Token != "" {
		select {
		case p.tokens <- f.Token:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(f.Data) > 0 {
		ev := entity.InboundEvent{Data: f.Data, ReceivedAt: p.now().UTC()}
		select {
		case p.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.Token == "" && len(f.Data) == 0 {
		p.logger.Debug("push.frame.empty")
	}
	return nil
}
