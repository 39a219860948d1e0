// Package session runs a blocking request/response client: it connects a
// transport, sends every line read from an input source as a
// length-prefixed record until a sentinel line arrives, then releases the
// input source, the output stream and the transport in that order.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// DefaultSentinel is the line that ends a session.
const DefaultSentinel = "Over"

// State is a session state.
type State int

const (
	StateInit State = iota
	StateConnected
	StateLooping
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateConnected:
		return "CONNECTED"
	case StateLooping:
		return "LOOPING"
	case StateClosed:
		return "CLOSED"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Transport is a connected byte stream.
type Transport interface {
	io.Writer
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context, address string, port int) (Transport, error)
}

// LineSource yields input lines. ReadLine returns ErrEndOfInput once the
// input is exhausted. Close must unblock a pending ReadLine.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// ConnectionError is returned when the session cannot be started.
type ConnectionError struct {
	Address string
	Port    int
	Cause   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("session: connect %s:%d: %v", e.Address, e.Port, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// Config configures a session.
type Config struct {
	Address string
	Port    int
	// Sentinel ends the session. It is matched exactly; empty means
	// DefaultSentinel.
	Sentinel string
	// MaxReadFailures ends the session after that many consecutive read
	// failures. Zero retries forever.
	MaxReadFailures int
}

// Result reports how a session ended.
type Result struct {
	State        State
	History      []State
	Sent         int
	BytesSent    int64
	ReadFailures int
	SendFailures int
	// CloseErr joins the errors of every failed release.
	CloseErr error
}

func (r *Result) enter(s State) {
	r.State = s
	r.History = append(r.History, s)
}

// Session is a single run of the loop.
type Session struct {
	Config Config
	Dialer Dialer
	// OpenSource acquires the input source once the transport is connected.
	OpenSource func() (LineSource, error)
	// Prompt, when set, receives the interactive prompts.
	Prompt io.Writer
	Logger *slog.Logger
}

// New creates a session.
func New(cfg Config, dialer Dialer, openSource func() (LineSource, error)) *Session {
	return &Session{
		Config:     cfg,
		Dialer:     dialer,
		OpenSource: openSource,
		Logger:     slog.New(slog.DiscardHandler),
	}
}

// Run executes the session. It returns an error only when the session
// could not be started, in which case the result is FAILED. Cancelling ctx
// closes the input source, which ends the loop.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	res.enter(StateInit)

	transport, err := s.Dialer.Dial(ctx, s.Config.Address, s.Config.Port)
	if err != nil {
		res.enter(StateFailed)
		s.Logger.Debug("session failed", "address", s.Config.Address, "port", s.Config.Port, "err", err)
		return res, &ConnectionError{Address: s.Config.Address, Port: s.Config.Port, Cause: err}
	}
	src, err := s.OpenSource()
	if err != nil {
		res.enter(StateFailed)
		if cerr := transport.Close(); cerr != nil {
			s.Logger.Warn("close transport failed", "err", cerr)
			res.CloseErr = cerr
		}
		return res, &ConnectionError{Address: s.Config.Address, Port: s.Config.Port, Cause: fmt.Errorf("open input: %w", err)}
	}
	source := &onceCloser{LineSource: src}
	out := NewRecordWriter(transport)

	res.enter(StateConnected)
	s.Logger.Debug("session connected", "address", s.Config.Address, "port", s.Config.Port)
	s.prompt("Connected")

	stop := context.AfterFunc(ctx, func() {
		s.Logger.Debug("session cancelled, closing input")
		source.Close()
	})
	res.enter(StateLooping)
	s.loop(ctx, source, out, res)
	stop()
	res.BytesSent = out.Written()

	res.enter(StateClosed)
	res.CloseErr = s.release(source, out, transport)
	s.Logger.Debug("session closed", "sent", res.Sent, "bytes", res.BytesSent, "read_failures", res.ReadFailures, "send_failures", res.SendFailures)
	return res, nil
}

func (s *Session) loop(ctx context.Context, source LineSource, out *RecordWriter, res *Result) {
	sentinel := s.Config.Sentinel
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	consecutive := 0
	for {
		s.prompt("Type Something:")
		line, err := source.ReadLine()
		if err != nil {
			if errors.Is(err, ErrEndOfInput) {
				s.Logger.Debug("end of input")
				return
			}
			if errors.Is(err, ErrSourceClosed) {
				s.Logger.Debug("input source closed")
				return
			}
			if ctx.Err() != nil {
				return
			}
			res.ReadFailures++
			consecutive++
			s.Logger.Warn("read failed", "err", err)
			if s.Config.MaxReadFailures > 0 && consecutive >= s.Config.MaxReadFailures {
				s.Logger.Warn("too many read failures", "count", consecutive)
				return
			}
			continue
		}
		consecutive = 0
		if line == sentinel {
			return
		}
		if err := out.WriteRecord(line); err != nil {
			res.SendFailures++
			s.Logger.Warn("send failed", "len", len(line), "err", err)
			continue
		}
		res.Sent++
	}
}

// release closes the input source, the output stream and the transport,
// attempting every step regardless of earlier failures.
func (s *Session) release(source LineSource, out io.Closer, transport Transport) error {
	steps := []struct {
		name string
		c    io.Closer
	}{
		{"input", source},
		{"output", out},
		{"transport", transport},
	}
	var errs []error
	for _, step := range steps {
		if err := step.c.Close(); err != nil {
			s.Logger.Warn("close failed", "resource", step.name, "err", err)
			errs = append(errs, fmt.Errorf("close %s: %w", step.name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Session) prompt(msg string) {
	if s.Prompt != nil {
		fmt.Fprintln(s.Prompt, msg)
	}
}

// onceCloser closes the wrapped source at most once and reports the
// result of that close to every caller.
type onceCloser struct {
	LineSource
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.LineSource.Close() })
	return o.err
}
