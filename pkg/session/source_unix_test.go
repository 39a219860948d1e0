//go:build unix

package session

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"
)

// blockingPipe returns the read end of a pipe as a blocking *os.File, the
// way a terminal or shell pipe reaches a process on stdin.
func blockingPipe(t *testing.T) (*os.File, int) {
	t.Helper()
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() { syscall.Close(fds[1]) })
	return os.NewFile(uintptr(fds[0]), "pipe"), fds[1]
}

func TestLineReaderCloseUnblocksBlockingFile(t *testing.T) {
	r, w := blockingPipe(t)
	lr := NewLineReader(r)

	errc := make(chan error, 1)
	go func() {
		_, err := lr.ReadLine()
		errc <- err
	}()
	time.Sleep(50 * time.Millisecond)
	if err := lr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-errc:
		if !errors.Is(err, ErrSourceClosed) {
			t.Errorf("ReadLine: got %v, want ErrSourceClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending ReadLine not unblocked by Close")
	}

	syscall.Write(w, []byte("late\n"))
	if _, err := lr.ReadLine(); !errors.Is(err, ErrSourceClosed) {
		t.Errorf("ReadLine after a late line: got %v, want ErrSourceClosed", err)
	}
}

func TestSessionCancelOnBlockingFile(t *testing.T) {
	r, w := blockingPipe(t)
	ev := &events{}
	dialer := &fakeDialer{transport: &fakeTransport{ev: ev}}
	s := New(Config{Address: "127.0.0.1", Port: 5000}, dialer, func() (LineSource, error) {
		return NewLineReader(r), nil
	})
	prompts := make(promptWriter, 8)
	s.Prompt = prompts

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)
	waitPrompts(t, prompts, 2)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if res.State != StateClosed {
			t.Errorf("state: got %s, want CLOSED", res.State)
		}
		if res.Sent != 0 || res.ReadFailures != 0 {
			t.Errorf("got sent=%d read_failures=%d, want 0 and 0", res.Sent, res.ReadFailures)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending read on a blocking file not unblocked by cancellation")
	}

	// A line typed after cancellation is not sent.
	syscall.Write(w, []byte("late\n"))
	if n := dialer.transport.buf.Len(); n != 0 {
		t.Errorf("bytes sent after cancellation: %d", n)
	}
}
