package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
)

// MaxRecordLen is the largest payload a record can carry.
const MaxRecordLen = math.MaxUint16

var (
	ErrRecordTooLong = errors.New("session: record longer than 65535 bytes")
	ErrWriterClosed  = errors.New("session: record writer closed")
)

// EncodeUTF encodes s as a record: a 2-byte big-endian length followed by
// the UTF-8 bytes of s.
func EncodeUTF(s string) ([]byte, error) {
	if len(s) > MaxRecordLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrRecordTooLong, len(s))
	}
	buf := make([]byte, 2+len(s))
	binary.BigEndian.PutUint16(buf, uint16(len(s)))
	copy(buf[2:], s)
	return buf, nil
}

// ReadRecord reads one record from r.
func ReadRecord(r io.Reader) (string, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return "", err
	}
	payload := make([]byte, binary.BigEndian.Uint16(header[:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return "", fmt.Errorf("session: short record: %w", err)
	}
	return string(payload), nil
}

// RecordWriter is the output stream of a session. Each record is written
// with a single Write call.
type RecordWriter struct {
	w io.Writer

	mu      sync.Mutex
	closed  bool
	written int64
}

// NewRecordWriter creates a RecordWriter on w.
func NewRecordWriter(w io.Writer) *RecordWriter {
	return &RecordWriter{w: w}
}

// WriteRecord encodes and writes one line.
func (rw *RecordWriter) WriteRecord(line string) error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.closed {
		return ErrWriterClosed
	}
	rec, err := EncodeUTF(line)
	if err != nil {
		return err
	}
	n, err := rw.w.Write(rec)
	rw.written += int64(n)
	if err != nil {
		return fmt.Errorf("session: write record: %w", err)
	}
	return nil
}

// Written returns the number of bytes written so far.
func (rw *RecordWriter) Written() int64 {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.written
}

// Close ends the stream. If the underlying writer supports half-close
// (as TCP connections do) its write side is shut down.
func (rw *RecordWriter) Close() error {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.closed {
		return nil
	}
	rw.closed = true
	if hc, ok := rw.w.(interface{ CloseWrite() error }); ok {
		return hc.CloseWrite()
	}
	return nil
}
