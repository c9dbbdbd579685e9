// Package parser extracts marker-tagged events from WebRTC text logs.
//
// A marker is a literal substring such as "SendRtp:" followed by a
// comma-separated integer payload that runs to the end of the line:
//
//	[012:345][1234] (channel_send.cc:412): SendRtp:7,1000
//	[012:350][1234] (channel_receive.cc:630): Packet received:100,1050,5
//	[012:351][1234] (audio_device.cc:88): Playout delay:42
//
// Matching is a substring search, not a full parse of the log prefix.
// When several markers are given, they are checked in order and the first
// one found in the line wins.
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker describes one event type in a log.
type Marker struct {
	// Token is the literal substring that identifies the event.
	Token string

	// Fields is the number of comma-separated integers the payload must
	// carry. Zero means the whole payload is a single integer.
	Fields int
}

// Well-known markers emitted by the audio pipeline.
var (
	MarkerSendPacketToNetwork = Marker{Token: "SendPacketToNetwork:", Fields: 2} // timestamp, sequence
	MarkerSendRtp             = Marker{Token: "SendRtp:", Fields: 2}             // sequence, send_time
	MarkerPacketReceived      = Marker{Token: "Packet received:", Fields: 3}     // timestamp, recv_time, decrypt_delay
	MarkerEnqueuePackets      = Marker{Token: "EnqueuePackets:", Fields: 2}      // timestamp, enqueue_time
	MarkerSendPacket          = Marker{Token: "Send packet:", Fields: -1}        // flag only, payload ignored
	MarkerAudioEncodingDelay  = Marker{Token: "Audio encoding delay:"}
	MarkerRecordingDelay      = Marker{Token: "Recording delay:"}
	MarkerPlayoutDelay        = Marker{Token: "Playout delay:"}
	MarkerDecodingDelay       = Marker{Token: "Decoding delay:"}
	MarkerResamplingDelay     = Marker{Token: "Resampling delay:"}
	MarkerWaitingTime         = Marker{Token: "Audio packet waiting time ms:"}
)

// Event is one extracted marker occurrence.
type Event struct {
	Marker Marker
	Fields []int64
	Line   int
}

// Field returns the i'th payload value.
func (e *Event) Field(i int) int64 {
	return e.Fields[i]
}

// Match returns the first marker in priority order whose token occurs in
// line, along with the payload that follows it.
func Match(line string, markers []Marker) (Marker, string, bool) {
	for _, m := range markers {
		if pos := strings.Index(line, m.Token); pos >= 0 {
			return m, line[pos+len(m.Token):], true
		}
	}
	return Marker{}, "", false
}

// Extract finds the first matching marker in line and parses its payload.
// It returns ok=false for lines that carry none of the markers.
func Extract(line string, lineNo int, markers []Marker) (*Event, bool, error) {
	m, payload, ok := Match(line, markers)
	if !ok {
		return nil, false, nil
	}

	ev := &Event{Marker: m, Line: lineNo}
	if m.Fields < 0 {
		return ev, true, nil
	}

	fields, err := ParseFields(payload, m.Fields)
	if err != nil {
		return nil, true, &LineError{Line: lineNo, Marker: m.Token, Err: err}
	}
	ev.Fields = fields
	return ev, true, nil
}

// ParseFields splits payload on commas and parses the first n segments as
// integers. Segments past n are ignored. n == 0 parses the whole payload as
// one value.
func ParseFields(payload string, n int) ([]int64, error) {
	if n == 0 {
		v, err := parseInt(payload)
		if err != nil {
			return nil, err
		}
		return []int64{v}, nil
	}

	parts := strings.Split(payload, ",")
	if len(parts) < n {
		return nil, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedLine, n, len(parts))
	}

	fields := make([]int64, n)
	for i := 0; i < n; i++ {
		v, err := parseInt(parts[i])
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return fields, nil
}

// parseInt parses one trimmed base-10 integer.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidFormat, s)
	}
	return v, nil
}
