package correlate

import (
	"context"
	"fmt"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
)

// Options control how scans treat zero values and parse failures.
type Options struct {
	// ZeroAsMissing treats a zero timestamp, sequence or time as "not seen".
	// This matches how the audio pipeline logs placeholders, but it also
	// hides packets whose real value is zero. Disable to keep them.
	ZeroAsMissing bool

	// OnError handles malformed lines. Nil aborts on the first one.
	OnError source.ErrorHook
}

// DefaultOptions returns options matching the pipeline's log conventions.
func DefaultOptions() Options {
	return Options{ZeroAsMissing: true}
}

// present reports whether v counts as an observed value.
func (o Options) present(v int64) bool {
	return !o.ZeroAsMissing || v != 0
}

// sendTracker follows one packet from SendPacketToNetwork to SendRtp.
//
//	idle ──SendPacketToNetwork──▶ tracking ──SendRtp(seq match)──▶ commit
//	  ▲                               │                              │
//	  └──────────── any SendRtp ──────┴──────────────────────────────┘
type sendTracker struct {
	timestamp, sequence, sendTime int64
	haveTS, haveSeq, haveSend     bool
}

func (s *sendTracker) reset() {
	*s = sendTracker{}
}

func (s *sendTracker) ready() bool {
	return s.haveTS && s.haveSeq && s.haveSend
}

// senderMarkers is checked in order; the first token found in a line wins.
var senderMarkers = []parser.Marker{
	parser.MarkerSendPacketToNetwork,
	parser.MarkerSendRtp,
}

// ScanSender is pass A: it reads the sender log and commits
// [timestamp, sequence, send_time] records into table.
func ScanSender(ctx context.Context, lines source.Lines, table *Table, opts Options) error {
	var tr sendTracker

	err := source.ScanEvents(ctx, lines, senderMarkers, opts.OnError, func(ev *parser.Event) error {
		switch ev.Marker.Token {
		case parser.MarkerSendPacketToNetwork.Token:
			tr.timestamp, tr.haveTS = ev.Field(0), opts.present(ev.Field(0))
			tr.sequence, tr.haveSeq = ev.Field(1), opts.present(ev.Field(1))

		case parser.MarkerSendRtp.Token:
			if tr.haveSeq && ev.Field(0) == tr.sequence {
				tr.sendTime, tr.haveSend = ev.Field(1), opts.present(ev.Field(1))
			}
			if tr.ready() {
				table.Commit(tr.timestamp, tr.sequence, tr.sendTime)
			}
			tr.reset()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sender pass %s: %w", lines.Name(), err)
	}
	return nil
}

var receiverMarkers = []parser.Marker{
	parser.MarkerPacketReceived,
}

// ScanReceiver is pass B: it reads the receiver log and completes records
// already committed by ScanSender. Receive events for unknown timestamps
// are dropped; complete records are left untouched.
func ScanReceiver(ctx context.Context, lines source.Lines, table *Table, opts Options) error {
	err := source.ScanEvents(ctx, lines, receiverMarkers, opts.OnError, func(ev *parser.Event) error {
		table.Join(ev.Field(0), ev.Field(1), ev.Field(2))
		return nil
	})
	if err != nil {
		return fmt.Errorf("receiver pass %s: %w", lines.Name(), err)
	}
	return nil
}

// Correlate runs pass A over senderPath to completion and then pass B over
// receiverPath, returning the shared table.
func Correlate(ctx context.Context, senderPath, receiverPath string, opts Options) (*Table, error) {
	table := NewTable()

	err := source.ScanFile(senderPath, func(lr *source.LineReader) error {
		return ScanSender(ctx, lr, table, opts)
	})
	if err != nil {
		return nil, err
	}

	err = source.ScanFile(receiverPath, func(lr *source.LineReader) error {
		return ScanReceiver(ctx, lr, table, opts)
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}
