package ratelimit

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

// fakeClock advances only when the limiter sleeps.
type fakeClock struct {
	t     time.Time
	slept time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept += d
	c.t = c.t.Add(d)
}

func newTestLimiter(bytesPerSecond int64) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(bytesPerSecond)
	l.now = clock.now
	l.sleep = clock.sleep
	l.last = clock.t
	return l, clock
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		rate      int64
		expectNil bool
	}{
		{"positive", 1024, false},
		{"zero means unlimited", 0, true},
		{"negative means unlimited", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.rate); (got == nil) != tt.expectNil {
				t.Errorf("New(%d) = %v, expectNil %v", tt.rate, got, tt.expectNil)
			}
		})
	}
}

func TestLimiter_Wait(t *testing.T) {
	l, clock := newTestLimiter(1000)

	// A full bucket covers the first second without sleeping.
	l.Wait(1000)
	if clock.slept != 0 {
		t.Fatalf("slept %v on a full bucket", clock.slept)
	}

	l.Wait(500)
	if clock.slept != 500*time.Millisecond {
		t.Errorf("slept %v, want 500ms", clock.slept)
	}
}

func TestLimiter_NilNeverBlocks(t *testing.T) {
	var l *Limiter
	l.Wait(1 << 20)
}

func TestReaderAndWriter_PassThroughWithoutLimiter(t *testing.T) {
	r := strings.NewReader("data")
	if Reader(r, nil) != io.Reader(r) {
		t.Error("Reader with nil limiter should return the original reader")
	}
	var buf bytes.Buffer
	if Writer(&buf, nil) != io.Writer(&buf) {
		t.Error("Writer with nil limiter should return the original writer")
	}
}

func TestWriter_Throttles(t *testing.T) {
	l, clock := newTestLimiter(chunk)
	var buf bytes.Buffer
	payload := bytes.Repeat([]byte("x"), 3*chunk)

	n, err := Writer(&buf, l).Write(payload)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) || buf.Len() != len(payload) {
		t.Fatalf("wrote %d/%d bytes", n, buf.Len())
	}
	// First chunk is covered by the bucket, the other two cost a second each.
	if clock.slept != 2*time.Second {
		t.Errorf("slept %v, want 2s", clock.slept)
	}
}

func TestReader_Throttles(t *testing.T) {
	l, clock := newTestLimiter(chunk)
	payload := bytes.Repeat([]byte("y"), 2*chunk)

	got, err := io.ReadAll(Reader(bytes.NewReader(payload), l))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("payload mismatch")
	}
	if clock.slept < 900*time.Millisecond {
		t.Errorf("slept %v, want about 1s", clock.slept)
	}
}
