package analysis

import (
	"sync"

	"github.com/banshee-data/vibration.report/internal/imu"
)

// Processor is the single-producer pipeline stage: it decodes a raw line,
// converts it to physical units, pushes it into the sliding window, and
// computes the analysis frame for it. Each frame's rolling statistics depend
// on all prior pushes, so ProcessLine must be driven from one goroutine per
// sensor stream.
type Processor struct {
	window *Window
	engine *Engine
	recent *Recent

	mu   sync.Mutex
	last *Frame
}

// NewProcessor wires a window, engine, and recent-sample store together.
// Zero capacities select the defaults.
func NewProcessor(params EngineParams, windowCapacity, recentCapacity int) *Processor {
	return &Processor{
		window: NewWindow(windowCapacity),
		engine: NewEngine(params),
		recent: NewRecent(recentCapacity),
	}
}

// ProcessLine runs one line through decode, convert, push, and compute. A
// malformed line returns the decode error and leaves all state untouched.
func (p *Processor) ProcessLine(line string) (*Frame, error) {
	raw, err := imu.ParseLine(line)
	if err != nil {
		return nil, err
	}
	return p.ProcessSample(imu.Convert(raw)), nil
}

// ProcessSample pushes one physical sample and computes its frame.
func (p *Processor) ProcessSample(s imu.PhysicalSample) *Frame {
	p.window.Push(s)
	p.recent.Add(s)
	f := p.engine.Compute(p.window.Snapshot(), s)

	p.mu.Lock()
	p.last = &f
	p.mu.Unlock()
	return &f
}

// Last returns the most recently computed frame, or nil before any sample
// has been processed.
func (p *Processor) Last() *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Recent exposes the per-channel history store.
func (p *Processor) Recent() *Recent {
	return p.recent
}

// Params returns the effective engine parameters.
func (p *Processor) Params() EngineParams {
	return p.engine.Params()
}
