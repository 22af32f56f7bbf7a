// Package ratelimit caps the bandwidth of transfer streams with a token
// bucket. The bucket holds one second worth of tokens, so short bursts pass
// unthrottled while the average rate stays at the limit.
//
// A Limiter is owned by a single transfer and is not safe for concurrent use.
package ratelimit

import (
	"io"
	"time"
)

// Limiter is a token bucket measured in bytes.
type Limiter struct {
	rate   float64 // bytes per second
	tokens float64 // may go negative when a chunk exceeds the bucket
	last   time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// New returns a limiter for bytesPerSecond, or nil when the rate is not
// positive. A nil *Limiter never blocks.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	l := &Limiter{
		rate:  float64(bytesPerSecond),
		now:   time.Now,
		sleep: time.Sleep,
	}
	l.tokens = l.rate
	l.last = l.now()
	return l
}

// Wait blocks until n bytes may be sent.
func (l *Limiter) Wait(n int) {
	if l == nil || n <= 0 {
		return
	}
	l.refill()
	need := float64(n)
	if l.tokens < need {
		l.sleep(time.Duration((need - l.tokens) / l.rate * float64(time.Second)))
		l.refill()
	}
	l.tokens -= need
}

func (l *Limiter) refill() {
	now := l.now()
	l.tokens += now.Sub(l.last).Seconds() * l.rate
	if l.tokens > l.rate {
		l.tokens = l.rate
	}
	l.last = now
}

// chunk bounds a single Wait so that throttling stays smooth.
const chunk = 8 * 1024

type reader struct {
	r io.Reader
	l *Limiter
}

// Reader returns r throttled by l. A nil limiter returns r itself.
func Reader(r io.Reader, l *Limiter) io.Reader {
	if l == nil {
		return r
	}
	return &reader{r: r, l: l}
}

func (r *reader) Read(p []byte) (int, error) {
	if len(p) > chunk {
		p = p[:chunk]
	}
	r.l.Wait(len(p))
	return r.r.Read(p)
}

type writer struct {
	w io.Writer
	l *Limiter
}

// Writer returns w throttled by l. A nil limiter returns w itself.
func Writer(w io.Writer, l *Limiter) io.Writer {
	if l == nil {
		return w
	}
	return &writer{w: w, l: l}
}

func (w *writer) Write(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		end := min(written+chunk, len(p))
		w.l.Wait(end - written)
		n, err := w.w.Write(p[written:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}
