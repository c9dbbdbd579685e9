package correlate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
	"github.com/randomizedcoder/go-rtc-delay-stats/internal/source"
)

func lines(t *testing.T, text string) *source.LineReader {
	t.Helper()
	lr, err := source.NewLineReader(strings.NewReader(text))
	if err != nil {
		t.Fatalf("NewLineReader: %v", err)
	}
	return lr
}

func runPasses(t *testing.T, sender, receiver string, opts Options) *Table {
	t.Helper()
	table := NewTable()
	if err := ScanSender(context.Background(), lines(t, sender), table, opts); err != nil {
		t.Fatalf("ScanSender: %v", err)
	}
	if err := ScanReceiver(context.Background(), lines(t, receiver), table, opts); err != nil {
		t.Fatalf("ScanReceiver: %v", err)
	}
	return table
}

// =============================================================================
// Tests: end-to-end join
// =============================================================================

func TestCorrelate_BasicExample(t *testing.T) {
	table := runPasses(t,
		"[00:01] SendPacketToNetwork:100,7\n[00:01] SendRtp:7,1000\n",
		"[00:02] Packet received:100,1050,5\n",
		DefaultOptions(),
	)

	rec, ok := table.Get(100)
	if !ok {
		t.Fatal("record 100 missing")
	}
	if want := []int64{100, 7, 1000, 1050, 5}; !reflect.DeepEqual(rec.Fields, want) {
		t.Errorf("Fields = %v, want %v", rec.Fields, want)
	}
	if d, ok := rec.Delay(); !ok || d != 50 {
		t.Errorf("Delay() = %d, %v; want 50, true", d, ok)
	}
}

func TestCorrelate_ReceiveOnlyDropped(t *testing.T) {
	table := runPasses(t,
		"SendPacketToNetwork:100,7\nSendRtp:7,1000\n",
		"Packet received:200,1050,5\n",
		DefaultOptions(),
	)

	if _, ok := table.Get(200); ok {
		t.Error("receive-only timestamp must not create a record")
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1", table.Len())
	}
	if table.Stats().Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1", table.Stats().Unmatched)
	}
}

func TestCorrelate_CompleteRecordNotMutated(t *testing.T) {
	table := runPasses(t,
		"SendPacketToNetwork:100,7\nSendRtp:7,1000\n",
		"Packet received:100,1050,5\nPacket received:100,9999,9\n",
		DefaultOptions(),
	)

	rec, _ := table.Get(100)
	if want := []int64{100, 7, 1000, 1050, 5}; !reflect.DeepEqual(rec.Fields, want) {
		t.Errorf("Fields = %v, want %v", rec.Fields, want)
	}
	if table.Stats().Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", table.Stats().Duplicates)
	}
}

// =============================================================================
// Tests: sender tracker
// =============================================================================

func TestScanSender_Tracker(t *testing.T) {
	tests := []struct {
		name string
		log  string
		opts Options
		want map[int64][]int64
	}{
		{
			name: "sequence mismatch resets",
			log:  "SendPacketToNetwork:100,7\nSendRtp:8,1000\nSendRtp:7,1001\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{},
		},
		{
			name: "send rtp without packet",
			log:  "SendRtp:7,1000\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{},
		},
		{
			name: "later packet replaces tracked one",
			log:  "SendPacketToNetwork:100,7\nSendPacketToNetwork:200,8\nSendRtp:8,2000\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{200: {200, 8, 2000}},
		},
		{
			name: "zero send time is absent",
			log:  "SendPacketToNetwork:100,7\nSendRtp:7,0\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{},
		},
		{
			name: "zero timestamp is absent",
			log:  "SendPacketToNetwork:0,7\nSendRtp:7,1000\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{},
		},
		{
			name: "zero kept when not treated as missing",
			log:  "SendPacketToNetwork:0,7\nSendRtp:7,1000\n",
			opts: Options{ZeroAsMissing: false},
			want: map[int64][]int64{0: {0, 7, 1000}},
		},
		{
			name: "two packets",
			log: "SendPacketToNetwork:100,7\nSendRtp:7,1000\n" +
				"noise line\n" +
				"SendPacketToNetwork:120,8\nSendRtp:8,1020\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{100: {100, 7, 1000}, 120: {120, 8, 1020}},
		},
		{
			name: "recommit overwrites",
			log:  "SendPacketToNetwork:100,7\nSendRtp:7,1000\nSendPacketToNetwork:100,9\nSendRtp:9,1100\n",
			opts: DefaultOptions(),
			want: map[int64][]int64{100: {100, 9, 1100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewTable()
			if err := ScanSender(context.Background(), lines(t, tt.log), table, tt.opts); err != nil {
				t.Fatalf("ScanSender: %v", err)
			}
			if table.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", table.Len(), len(tt.want))
			}
			for ts, fields := range tt.want {
				rec, ok := table.Get(ts)
				if !ok {
					t.Fatalf("record %d missing", ts)
				}
				if !reflect.DeepEqual(rec.Fields, fields) {
					t.Errorf("record %d = %v, want %v", ts, rec.Fields, fields)
				}
			}
		})
	}
}

func TestScanSender_MarkerPriority(t *testing.T) {
	// Both markers on one line: SendPacketToNetwork is checked first.
	table := NewTable()
	log := "SendRtp:1,1 SendPacketToNetwork:100,7\nSendRtp:7,1000\n"
	if err := ScanSender(context.Background(), lines(t, log), table, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if _, ok := table.Get(100); !ok {
		t.Error("expected record committed from SendPacketToNetwork on mixed line")
	}
}

// =============================================================================
// Tests: error handling
// =============================================================================

func TestScanSender_StrictAbort(t *testing.T) {
	table := NewTable()
	err := ScanSender(context.Background(), lines(t, "SendPacketToNetwork:abc,7\n"), table, DefaultOptions())
	if !errors.Is(err, parser.ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
	var lineErr *parser.LineError
	if !errors.As(err, &lineErr) || lineErr.Path != "<stream>" || lineErr.Line != 1 {
		t.Errorf("LineError = %+v", lineErr)
	}
}

func TestScanReceiver_LenientSkip(t *testing.T) {
	skipped := 0
	opts := DefaultOptions()
	opts.OnError = func(err error) error {
		skipped++
		return nil
	}

	table := NewTable()
	table.Commit(100, 7, 1000)
	log := "Packet received:100,1050\nPacket received:100,1050,5\n"
	if err := ScanReceiver(context.Background(), lines(t, log), table, opts); err != nil {
		t.Fatalf("ScanReceiver: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if rec, _ := table.Get(100); !rec.Complete() {
		t.Error("record should be completed by the well-formed line")
	}
}

// =============================================================================
// Tests: Correlate (files)
// =============================================================================

func TestCorrelate_Files(t *testing.T) {
	dir := t.TempDir()
	sender := filepath.Join(dir, "sender.log")
	receiver := filepath.Join(dir, "receiver.log")
	os.WriteFile(sender, []byte("SendPacketToNetwork:100,7\nSendRtp:7,1000\n"), 0o644)
	os.WriteFile(receiver, []byte("Packet received:100,1050,5\n"), 0o644)

	table, err := Correlate(context.Background(), sender, receiver, DefaultOptions())
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if rec, ok := table.Get(100); !ok || !rec.Complete() {
		t.Errorf("record 100 = %v, %v", rec, ok)
	}
}

func TestCorrelate_MissingFile(t *testing.T) {
	_, err := Correlate(context.Background(), filepath.Join(t.TempDir(), "nope.log"), "x", DefaultOptions())
	if !errors.Is(err, parser.ErrFileNotFound) {
		t.Errorf("err = %v, want ErrFileNotFound", err)
	}
}

// =============================================================================
// Tests: Table
// =============================================================================

func TestTable_OrderAndStats(t *testing.T) {
	table := NewTable()
	table.Commit(300, 1, 10)
	table.Commit(100, 2, 20)
	table.Commit(300, 3, 30)

	var keys []int64
	for _, rec := range table.Records() {
		keys = append(keys, rec.Timestamp())
	}
	if want := []int64{300, 100}; !reflect.DeepEqual(keys, want) {
		t.Errorf("order = %v, want %v", keys, want)
	}

	st := table.Stats()
	if st.Committed != 3 || st.Overwritten != 1 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestRecord_AppendDelayOnce(t *testing.T) {
	rec := &Record{Fields: []int64{1, 2, 3, 400, 5}}
	rec.AppendDelay(397)
	rec.AppendDelay(397)
	if want := []int64{1, 2, 3, 400, 5, 397}; !reflect.DeepEqual(rec.Fields, want) {
		t.Errorf("Fields = %v, want %v", rec.Fields, want)
	}

	partial := &Record{Fields: []int64{1, 2, 3}}
	if _, ok := partial.Delay(); ok {
		t.Error("incomplete record should have no delay")
	}
	partial.AppendDelay(10)
	if len(partial.Fields) != 3 {
		t.Error("AppendDelay must not touch incomplete records")
	}
}

// =============================================================================
// Tests: send queue
// =============================================================================

func TestScanSendQueue(t *testing.T) {
	log := strings.Join([]string{
		"EnqueuePackets:100,500",
		"SendPacketToNetwork:100,7",
		"SendRtp:7,530",
		"EnqueuePackets:120,520",
		"SendPacketToNetwork:999,8", // other timestamp, ignored
		"SendRtp:8,560",
		"EnqueuePackets:140,540",
		"SendPacketToNetwork:140,9",
		"SendRtp:9,545",
	}, "\n")

	records, err := ScanSendQueue(context.Background(), lines(t, log), DefaultOptions())
	if err != nil {
		t.Fatalf("ScanSendQueue: %v", err)
	}

	want := []SendRecord{
		{Timestamp: 100, EnqueueTime: 500, Sequence: 7, SendEndTime: 530},
		{Timestamp: 140, EnqueueTime: 540, Sequence: 9, SendEndTime: 545},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %+v, want %+v", records, want)
	}
	if records[0].Delay() != 30 || records[1].Delay() != 5 {
		t.Errorf("delays = %d, %d; want 30, 5", records[0].Delay(), records[1].Delay())
	}
	if got := records[0].Fields(); !reflect.DeepEqual(got, []int64{100, 500, 7, 530, 30}) {
		t.Errorf("Fields() = %v", got)
	}
}
