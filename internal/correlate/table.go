// Package correlate joins sender-side and receiver-side log events into
// per-packet records.
//
// A record is keyed by the RTP timestamp. The sender pass creates it with
// three fields, the receiver pass completes it with two more:
//
//	[timestamp, sequence, send_time]                          after ScanSender
//	[timestamp, sequence, send_time, recv_time, decrypt_delay] after ScanReceiver
//
// Records are never deleted during a run.
package correlate

// Field positions inside Record.Fields.
const (
	FieldTimestamp = iota
	FieldSequence
	FieldSendTime
	FieldRecvTime
	FieldDecryptDelay
	FieldDelay // appended to outliers during reporting
)

// CompleteFields is the field count at which a record has both ends.
const CompleteFields = 5

// Record is the ordered field list accumulated for one timestamp.
type Record struct {
	Fields []int64
}

// Timestamp returns the join key.
func (r *Record) Timestamp() int64 {
	return r.Fields[FieldTimestamp]
}

// Complete reports whether the receiver side has been joined.
func (r *Record) Complete() bool {
	return len(r.Fields) >= CompleteFields
}

// SendTime returns the sender-side send time.
func (r *Record) SendTime() int64 {
	return r.Fields[FieldSendTime]
}

// RecvTime returns the receiver-side receive time. ok is false until the
// record is complete.
func (r *Record) RecvTime() (v int64, ok bool) {
	if !r.Complete() {
		return 0, false
	}
	return r.Fields[FieldRecvTime], true
}

// Delay returns recv_time - send_time for complete records.
func (r *Record) Delay() (int64, bool) {
	recv, ok := r.RecvTime()
	if !ok {
		return 0, false
	}
	return recv - r.SendTime(), true
}

// AppendDelay stores the computed delay as a trailing field, once.
func (r *Record) AppendDelay(delay int64) {
	if len(r.Fields) == CompleteFields {
		r.Fields = append(r.Fields, delay)
	}
}

// TableStats counts what happened to events while the table was built.
type TableStats struct {
	Committed   int // sender records written
	Overwritten int // sender commits that replaced an earlier record
	Completed   int // records that reached CompleteFields
	Unmatched   int // receiver events with no sender record (dropped)
	Duplicates  int // receiver events for an already complete record (ignored)
}

// Table maps timestamps to records and remembers first-insert order so
// reports are deterministic.
type Table struct {
	records map[int64]*Record
	order   []int64
	stats   TableStats
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{records: make(map[int64]*Record)}
}

// Commit stores a sender-side record. A later commit for the same
// timestamp replaces the earlier one but keeps its position.
func (t *Table) Commit(timestamp, sequence, sendTime int64) {
	t.stats.Committed++
	if _, ok := t.records[timestamp]; ok {
		t.stats.Overwritten++
	} else {
		t.order = append(t.order, timestamp)
	}
	t.records[timestamp] = &Record{Fields: []int64{timestamp, sequence, sendTime}}
}

// Join appends the receiver-side fields to the record for timestamp. It
// returns false if there is no such record or it is already complete.
func (t *Table) Join(timestamp, recvTime, decryptDelay int64) bool {
	rec, ok := t.records[timestamp]
	if !ok {
		t.stats.Unmatched++
		return false
	}
	if len(rec.Fields) >= CompleteFields {
		t.stats.Duplicates++
		return false
	}
	rec.Fields = append(rec.Fields, recvTime, decryptDelay)
	if rec.Complete() {
		t.stats.Completed++
	}
	return true
}

// Get returns the record for timestamp.
func (t *Table) Get(timestamp int64) (*Record, bool) {
	rec, ok := t.records[timestamp]
	return rec, ok
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns all records in first-insert order.
func (t *Table) Records() []*Record {
	out := make([]*Record, 0, len(t.order))
	for _, ts := range t.order {
		out = append(out, t.records[ts])
	}
	return out
}

// Stats returns the event counters.
func (t *Table) Stats() TableStats {
	return t.stats
}
