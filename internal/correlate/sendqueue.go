package correlate

import (
	"context"
	"fmt"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
)

// SendRecord is one packet's path through the sender's pacing queue.
type SendRecord struct {
	Timestamp   int64
	EnqueueTime int64
	Sequence    int64
	SendEndTime int64
}

// Delay returns the time the packet spent between enqueue and send.
func (r SendRecord) Delay() int64 {
	return r.SendEndTime - r.EnqueueTime
}

// Fields returns the record in log order plus its delay.
func (r SendRecord) Fields() []int64 {
	return []int64{r.Timestamp, r.EnqueueTime, r.Sequence, r.SendEndTime, r.Delay()}
}

var sendQueueMarkers = []parser.Marker{
	parser.MarkerEnqueuePackets,
	parser.MarkerSendPacketToNetwork,
	parser.MarkerSendRtp,
}

// ScanSendQueue follows EnqueuePackets → SendPacketToNetwork → SendRtp for
// each packet in a sender log. SendPacketToNetwork is accepted only for the
// tracked timestamp and SendRtp only for the tracked sequence. Every SendRtp
// ends the current packet, committed or not.
func ScanSendQueue(ctx context.Context, lines source.Lines, opts Options) ([]SendRecord, error) {
	var (
		records []SendRecord
		cur     SendRecord
		have    [4]bool // timestamp, enqueue, sequence, send end
	)

	err := source.ScanEvents(ctx, lines, sendQueueMarkers, opts.OnError, func(ev *parser.Event) error {
		switch ev.Marker.Token {
		case parser.MarkerEnqueuePackets.Token:
			cur.Timestamp, have[0] = ev.Field(0), opts.present(ev.Field(0))
			cur.EnqueueTime, have[1] = ev.Field(1), opts.present(ev.Field(1))

		case parser.MarkerSendPacketToNetwork.Token:
			if have[0] && ev.Field(0) == cur.Timestamp {
				cur.Sequence, have[2] = ev.Field(1), opts.present(ev.Field(1))
			}

		case parser.MarkerSendRtp.Token:
			if have[2] && ev.Field(0) == cur.Sequence {
				cur.SendEndTime, have[3] = ev.Field(1), opts.present(ev.Field(1))
			}
			if have[0] && have[1] && have[2] && have[3] {
				records = append(records, cur)
			}
			cur, have = SendRecord{}, [4]bool{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("send queue pass %s: %w", lines.Name(), err)
	}
	return records, nil
}
