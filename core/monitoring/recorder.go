package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Captured is an error recorded by Recorder.
type Captured struct {
	Err  error
	Tags map[string]string
}

// Recorder keeps captured errors in memory.
type Recorder struct {
	mu       sync.Mutex
	captured []Captured
	flushes  int
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, Captured{Err: err, Tags: tags})
}

func (r *Recorder) Recover() {
	if v := recover(); v != nil {
		r.CaptureException(panicError{v}, map[string]string{"panic": "true"})
		panic(v)
	}
}

func (r *Recorder) Flush(time.Duration) {
	r.mu.Lock()
	r.flushes++
	r.mu.Unlock()
}

// Captured returns a copy of the recorded errors.
func (r *Recorder) Captured() []Captured {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Captured(nil), r.captured...)
}

func (r *Recorder) Flushes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes
}

type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprint("panic: ", p.v) }
