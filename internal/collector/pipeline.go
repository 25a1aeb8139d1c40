// Package collector implements the receiving side: a TCP intake server that
// decodes record streams and a pipeline that fans them out to outputs.
package collector

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"logdrop/internal/output"
)

// pipelineBuffer is the channel depth between intake and dispatch, and
// between dispatch and each output.
const pipelineBuffer = 256

// Pipeline moves decoded records from inputs to outputs. Records lacking a
// "message" field are dropped. Every surviving record is handed to each
// output on its own channel, so one slow sink does not corrupt another's
// ordering.
type Pipeline struct {
	in       chan map[string]any
	outputs  []output.Output
	channels []chan map[string]any
	logger   *slog.Logger
	wg       sync.WaitGroup

	received atomic.Int64
	dropped  atomic.Int64
	fed      []*atomic.Int64
	failed   []*atomic.Int64
}

func NewPipeline(outputs []output.Output, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		in:      make(chan map[string]any, pipelineBuffer),
		outputs: outputs,
		logger:  logger,
	}
	for range outputs {
		p.channels = append(p.channels, make(chan map[string]any, pipelineBuffer))
		p.fed = append(p.fed, &atomic.Int64{})
		p.failed = append(p.failed, &atomic.Int64{})
	}
	return p
}

// Start launches the dispatch goroutine and one feeder goroutine per output.
func (p *Pipeline) Start() {
	for i, out := range p.outputs {
		p.wg.Add(1)
		go func(i int, out output.Output, ch <-chan map[string]any) {
			defer p.wg.Done()
			p.logger.Debug("output_started", "output", out.Name())
			for rec := range ch {
				if err := out.Feed(rec); err != nil {
					p.failed[i].Add(1)
					p.logger.Warn("output_feed_failed", "output", out.Name(), "error", err.Error())
					continue
				}
				p.fed[i].Add(1)
			}
		}(i, out, p.channels[i])
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for rec := range p.in {
			p.received.Add(1)
			if _, ok := rec["message"]; !ok {
				p.dropped.Add(1)
				p.logger.Warn("record_dropped", "reason", "message_field_required")
				continue
			}
			for _, ch := range p.channels {
				ch <- rec
			}
		}
		for _, ch := range p.channels {
			close(ch)
		}
	}()
}

// Submit hands one decoded record to the pipeline. It blocks when the
// pipeline is saturated, which backpressures the intake connections.
func (p *Pipeline) Submit(record map[string]any) {
	p.in <- record
}

// Stop drains the pipeline and closes every output. Submit must not be
// called after Stop.
func (p *Pipeline) Stop() {
	close(p.in)
	p.wg.Wait()
	for _, out := range p.outputs {
		if err := out.Close(); err != nil {
			p.logger.Warn("output_close_failed", "output", out.Name(), "error", err.Error())
		}
	}
}

// OutputStats is a point-in-time counter snapshot for one output.
type OutputStats struct {
	Fed    int64 `json:"fed"`
	Failed int64 `json:"failed"`
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	Received int64                  `json:"received"`
	Dropped  int64                  `json:"dropped"`
	Outputs  map[string]OutputStats `json:"outputs"`
}

func (p *Pipeline) Snapshot() Stats {
	s := Stats{
		Received: p.received.Load(),
		Dropped:  p.dropped.Load(),
		Outputs:  make(map[string]OutputStats, len(p.outputs)),
	}
	for i, out := range p.outputs {
		s.Outputs[out.Name()] = OutputStats{
			Fed:    p.fed[i].Load(),
			Failed: p.failed[i].Load(),
		}
	}
	return s
}
