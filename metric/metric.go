// Package metric publishes processing counters of DSP sessions with
// expvar. Counters are keyed by session name, so all processors running
// the same program add up.
package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"pipelined.dev/faust/signal"
)

const sessionsLabel = "faust.sessions"

// Counter names.
const (
	// BlockCounter measures number of processed blocks.
	BlockCounter = "Blocks"
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// ParamCounter measures parameter writes applied between blocks.
	ParamCounter = "Params"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts the duration of processed signal.
	DurationCounter = "Duration"
	// ProcessorCounter counts processors metered for the session.
	ProcessorCounter = "Processors"
)

var (
	sessions = registry{
		m: make(map[string]*counters),
	}

	names = []string{
		BlockCounter,
		FrameCounter,
		ParamCounter,
		LatencyCounter,
		DurationCounter,
		ProcessorCounter,
	}
)

// ResetFunc returns new MeasureFunc closure. It's called when processing
// actually starts so the first latency is measured from there.
type ResetFunc func() MeasureFunc

// MeasureFunc captures a processed block with the number of parameter
// writes applied before it.
type MeasureFunc func(frames int64, params int)

// Meter registers a processor of the named session.
func Meter(session string, sampleRate int) ResetFunc {
	c := sessions.get(session)
	c.processors.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			blockSize     int64
			blockDuration time.Duration
		)
		return func(frames int64, params int) {
			c.latency.set(time.Since(calledAt))
			c.blocks.Add(1)
			c.frames.Add(frames)
			c.params.Add(int64(params))
			if blockSize != frames {
				blockSize = frames
				blockDuration = signal.DurationOf(sampleRate, frames)
			}
			c.duration.add(blockDuration)
			calledAt = time.Now()
		}
	}
}

// Get returns counter values of the named session. Result is empty if the
// session was never metered.
func Get(session string) map[string]string {
	m := make(map[string]string)
	for _, name := range names {
		if v := expvar.Get(key(session, name)); v != nil {
			m[name] = v.String()
		}
	}
	return m
}

// Sessions returns sorted names of metered sessions.
func Sessions() []string {
	sessions.Lock()
	defer sessions.Unlock()
	result := make([]string, 0, len(sessions.m))
	for name := range sessions.m {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// GetAll returns counters of all metered sessions.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	for _, name := range Sessions() {
		m[name] = Get(name)
	}
	return m
}

type registry struct {
	sync.Mutex
	m map[string]*counters
}

// get returns counters of the session, publishing them on first use.
func (r *registry) get(session string) *counters {
	r.Lock()
	defer r.Unlock()
	if c, ok := r.m[session]; ok {
		return c
	}
	c := &counters{
		processors: expvar.NewInt(key(session, ProcessorCounter)),
		blocks:     expvar.NewInt(key(session, BlockCounter)),
		frames:     expvar.NewInt(key(session, FrameCounter)),
		params:     expvar.NewInt(key(session, ParamCounter)),
		latency:    &duration{},
		duration:   &duration{},
	}
	expvar.Publish(key(session, LatencyCounter), c.latency)
	expvar.Publish(key(session, DurationCounter), c.duration)
	r.m[session] = c
	return c
}

type counters struct {
	processors *expvar.Int
	blocks     *expvar.Int
	frames     *expvar.Int
	params     *expvar.Int
	latency    *duration
	duration   *duration
}

func key(session, counter string) string {
	return fmt.Sprintf("%s.%s.%s", sessionsLabel, session, counter)
}

// duration is an expvar.Var with time.Duration formatting.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%q", time.Duration(atomic.LoadInt64(&v.d)).String())
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
