// Package source opens analysis inputs and feeds them line by line.
//
// Rotated WebRTC logs are often shipped compressed, so Open sniffs the
// first bytes of the file and transparently decodes gzip and zstd streams.
// Everything else is read as plain text.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/randomizedcoder/go-rtc-delay-stats/internal/parser"
)

// Compression identifies how an input stream is encoded.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// String returns a human-readable name for the compression.
func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return "none"
	}
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

const (
	// Log lines carrying long payloads are rare but exist; allow up to 1 MB.
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// ErrLineTooLong is wrapped in the *parser.LineError reported for a line
// longer than maxLineSize.
var ErrLineTooLong = fmt.Errorf("%w: longer than %d bytes", parser.ErrMalformedLine, maxLineSize)

// LineFunc is called for every line. lineNo starts at 1.
// Returning an error stops the scan.
type LineFunc func(lineNo int, line string) error

// Lines is the read side consumed by the scanners in correlate and stats.
// Lines that cannot be delivered to fn are routed through onError.
type Lines interface {
	Scan(ctx context.Context, fn LineFunc, onError ErrorHook) error
	Name() string
}

// LineReader reads newline-delimited text from a possibly compressed input.
type LineReader struct {
	path        string
	reader      io.Reader
	closers     []io.Closer
	compression Compression

	bytesRead int64
	linesRead int64
}

// Open opens path for line scanning. A missing or unreadable file yields an
// error wrapping parser.ErrFileNotFound.
func Open(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", parser.ErrFileNotFound, err)
	}

	lr, err := newLineReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	lr.path = path
	lr.closers = append(lr.closers, f)
	return lr, nil
}

// NewLineReader wraps an already open stream. The caller keeps ownership
// of r; Close only releases decoders created here.
func NewLineReader(r io.Reader) (*LineReader, error) {
	return newLineReader(r)
}

func newLineReader(r io.Reader) (*LineReader, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	lr := &LineReader{reader: br}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		lr.reader = zr
		lr.closers = append(lr.closers, zr)
		lr.compression = CompressionGzip

	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		rc := dec.IOReadCloser()
		lr.reader = rc
		lr.closers = append(lr.closers, rc)
		lr.compression = CompressionZstd
	}

	return lr, nil
}

// Scan calls fn for every line until EOF, an fn error, or ctx cancellation.
// A line over maxLineSize is drained without being buffered whole and
// handed to onError instead of fn, so a lenient hook skips it and the scan
// carries on.
func (r *LineReader) Scan(ctx context.Context, fn LineFunc, onError ErrorHook) error {
	br := bufio.NewReaderSize(r.reader, initialLineBuffer)
	buf := make([]byte, 0, initialLineBuffer)

	for lineNo := 1; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, size, err := readLine(br, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s line %d: %w", r.Name(), lineNo, err)
		}
		r.bytesRead += int64(size + 1) // +1 for newline
		r.linesRead++

		if size > maxLineSize {
			lineErr := &parser.LineError{Path: r.Name(), Line: lineNo, Err: ErrLineTooLong}
			if onError == nil {
				return lineErr
			}
			if err := onError(lineErr); err != nil {
				return err
			}
			continue
		}

		if err := fn(lineNo, string(line)); err != nil {
			return err
		}
		buf = line[:0]
	}
}

// readLine returns the next line without its terminator and the line's full
// size. Only the first maxLineSize bytes are kept; the rest is discarded.
// io.EOF is returned only when no line was started.
func readLine(br *bufio.Reader, buf []byte) ([]byte, int, error) {
	buf = buf[:0]
	size := 0
	started := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				return buf, size, nil
			}
			return nil, 0, err
		}
		started = true
		if size+len(chunk) <= maxLineSize {
			buf = append(buf, chunk...)
		}
		size += len(chunk)
		if !isPrefix {
			return buf, size, nil
		}
	}
}

// ScanFile opens path, hands the reader to fn and closes the file on all
// exit paths, early returns included.
func ScanFile(path string, fn func(*LineReader) error) error {
	lr, err := Open(path)
	if err != nil {
		return err
	}
	defer lr.Close()
	return fn(lr)
}

// Close releases decoders and the underlying file, innermost first.
// Safe to call more than once.
func (r *LineReader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Name returns the input path, or "<stream>" for readers built from a stream.
func (r *LineReader) Name() string {
	if r.path == "" {
		return "<stream>"
	}
	return r.path
}

// Compression reports the detected input encoding.
func (r *LineReader) Compression() Compression {
	return r.compression
}

// Stats returns (bytesRead, linesRead) of decoded text so far.
func (r *LineReader) Stats() (bytesRead int64, linesRead int64) {
	return r.bytesRead, r.linesRead
}
