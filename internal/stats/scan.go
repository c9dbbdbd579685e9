package stats

import (
	"context"
	"fmt"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
)

// DefaultSendThreshold is the encoding delay above which a sample right
// after "Send packet:" is still recorded.
const DefaultSendThreshold = 500

// ScanMarker counts the trailing integer of every line carrying marker.
// Used for the recording, playout, decoding, resampling and jitter-buffer
// waiting time markers.
func ScanMarker(ctx context.Context, lines source.Lines, marker parser.Marker, onError source.ErrorHook) (Histogram, error) {
	marker.Fields = 0
	h := NewHistogram()

	err := source.ScanEvents(ctx, lines, []parser.Marker{marker}, onError, func(ev *parser.Event) error {
		h.Add(ev.Field(0))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q in %s: %w", marker.Token, lines.Name(), err)
	}
	return h, nil
}

var encodingMarkers = []parser.Marker{
	parser.MarkerSendPacket,
	parser.MarkerAudioEncodingDelay,
}

// ScanEncodingDelay counts "Audio encoding delay:" samples.
//
// The first sample after a "Send packet:" line includes the time the
// encoder spent waiting to fill its first frame, so it is only recorded
// when it exceeds threshold. All other samples are recorded. The scan
// starts as if a packet had just been sent.
func ScanEncodingDelay(ctx context.Context, lines source.Lines, threshold int64, onError source.ErrorHook) (Histogram, error) {
	h := NewHistogram()
	justSent := true

	err := source.ScanEvents(ctx, lines, encodingMarkers, onError, func(ev *parser.Event) error {
		if ev.Marker.Token == parser.MarkerSendPacket.Token {
			justSent = true
			return nil
		}

		delay := ev.Field(0)
		if !justSent {
			h.Add(delay)
			return nil
		}
		justSent = false
		if delay > threshold {
			h.Add(delay)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan encoding delay in %s: %w", lines.Name(), err)
	}
	return h, nil
}
