package metric_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/faust/metric"
)

func TestMeter(t *testing.T) {
	sampleRate := 44100
	var tests = []struct {
		session            string
		routines           int
		blocks             int
		blockSize          int64
		params             int
		expectedFrames     string
		expectedBlocks     string
		expectedParams     string
		expectedProcessors string
	}{
		{
			session:            "metric_test.reverb",
			routines:           2,
			blocks:             10,
			blockSize:          100,
			params:             1,
			expectedFrames:     "2000",
			expectedBlocks:     "20",
			expectedParams:     "20",
			expectedProcessors: "2",
		},
		{
			session:            "metric_test.reverb",
			routines:           2,
			blocks:             10,
			blockSize:          100,
			expectedFrames:     "4000",
			expectedBlocks:     "40",
			expectedParams:     "20",
			expectedProcessors: "4",
		},
		{
			session:            "metric_test.gain",
			routines:           1,
			blocks:             3,
			blockSize:          512,
			params:             2,
			expectedFrames:     "1536",
			expectedBlocks:     "3",
			expectedParams:     "6",
			expectedProcessors: "1",
		},
	}
	measure := func(fn metric.MeasureFunc, wg *sync.WaitGroup, blocks int, blockSize int64, params int) {
		for i := 0; i < blocks; i++ {
			fn(blockSize, params)
		}
		wg.Done()
	}

	for _, c := range tests {
		wg := &sync.WaitGroup{}
		wg.Add(c.routines)
		for i := 0; i < c.routines; i++ {
			go measure(metric.Meter(c.session, sampleRate)(), wg, c.blocks, c.blockSize, c.params)
		}
		wg.Wait()
		values := metric.Get(c.session)
		assert.Equal(t, c.expectedFrames, values[metric.FrameCounter])
		assert.Equal(t, c.expectedBlocks, values[metric.BlockCounter])
		assert.Equal(t, c.expectedParams, values[metric.ParamCounter])
		assert.Equal(t, c.expectedProcessors, values[metric.ProcessorCounter])
	}
	all := metric.GetAll()
	assert.Contains(t, all, "metric_test.gain")
	assert.Contains(t, all, "metric_test.reverb")
	assert.Contains(t, metric.Sessions(), "metric_test.gain")
}

func TestDuration(t *testing.T) {
	session := "metric_test.duration"
	measure := metric.Meter(session, 48000)()
	measure(480, 0)
	measure(480, 0)
	measure(960, 0)
	values := metric.Get(session)
	assert.Equal(t, strconv.Quote("40ms"), values[metric.DurationCounter])
	assert.NotEmpty(t, values[metric.LatencyCounter])
}

func TestUnknownSession(t *testing.T) {
	assert.Empty(t, metric.Get("metric_test.missing"))
}
