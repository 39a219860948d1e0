package session

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

var (
	ErrEndOfInput   = errors.New("session: end of input")
	ErrSourceClosed = errors.New("session: input source closed")
)

// LineReader reads newline-terminated lines. Line terminators ("\n" or
// "\r\n") are stripped; nothing else is trimmed.
//
// Lines are read by a background goroutine, so Close unblocks a pending
// ReadLine even when the underlying reader cannot be interrupted, as with
// a terminal on stdin. A line that arrives after Close is dropped.
type LineReader struct {
	r *bufio.Reader
	c io.Closer

	start     sync.Once
	closeOnce sync.Once
	lines     chan lineResult
	done      chan struct{}
	closeErr  error
	// err is the terminal error, valid once lines is closed.
	err error
}

type lineResult struct {
	line string
	err  error
}

// NewLineReader creates a LineReader on r. If r is an io.Closer, Close
// closes it.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{
		r:     bufio.NewReader(r),
		lines: make(chan lineResult),
		done:  make(chan struct{}),
	}
	if c, ok := r.(io.Closer); ok {
		lr.c = c
	}
	return lr
}

func (lr *LineReader) ReadLine() (string, error) {
	if lr.isClosed() {
		return "", ErrSourceClosed
	}
	lr.start.Do(func() { go lr.pump() })

	select {
	case <-lr.done:
		return "", ErrSourceClosed
	case res, ok := <-lr.lines:
		if lr.isClosed() {
			return "", ErrSourceClosed
		}
		if !ok {
			return "", lr.err
		}
		return res.line, res.err
	}
}

// pump reads lines until end of input or Close. Read errors other than
// end of input are delivered and reading continues.
func (lr *LineReader) pump() {
	for {
		line, err := lr.readLine()
		if errors.Is(err, ErrEndOfInput) {
			lr.err = err
			close(lr.lines)
			return
		}
		select {
		case lr.lines <- lineResult{line: line, err: err}:
		case <-lr.done:
			return
		}
	}
}

func (lr *LineReader) readLine() (string, error) {
	line, err := lr.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrEndOfInput
			}
			return line, nil
		}
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

func (lr *LineReader) isClosed() bool {
	select {
	case <-lr.done:
		return true
	default:
		return false
	}
}

func (lr *LineReader) Close() error {
	lr.closeOnce.Do(func() {
		close(lr.done)
		if lr.c != nil {
			lr.closeErr = lr.c.Close()
		}
	})
	return lr.closeErr
}
