package plant

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/btcarb/tickerplant/internal/tick"
)

// Source produces the sequence of raw messages for one plant run. Next
// blocks until a message is available and returns io.EOF when the input is
// exhausted or the live connection closes cleanly. A source never buffers
// more than one in-flight message, so a slow handler throttles ingestion.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Parser converts one raw message into zero or one tick. received is the
// ingestion timestamp in nanoseconds; zero lets the parser assign it.
type Parser interface {
	Parse(raw []byte, received uint64) *tick.Parsed
}

// TickHandler consumes one decoded tick. An error terminates the plant.
type TickHandler func(tick.Tick) error

// RawHandler consumes the raw form of a decoded message.
// An error terminates the plant.
type RawHandler func([]byte) error

type runState uint8

const (
	stateUnstarted runState = iota
	stateRunning
	stateDone
)

// Plant binds one source and parser to an ordered set of handlers and
// drives the run loop. Handlers must all be registered before Run; a plant
// cannot be restarted after Run returns.
type Plant struct {
	source       Source
	parser       Parser
	tickHandlers []TickHandler
	rawHandlers  []RawHandler
	state        runState
}

// New creates a plant for the given source and parser.
func New(source Source, parser Parser) *Plant {
	return &Plant{source: source, parser: parser}
}

// AddTickHandler appends a tick handler. Registration order is dispatch order.
func (p *Plant) AddTickHandler(h TickHandler) {
	p.tickHandlers = append(p.tickHandlers, h)
}

// AddRawHandler appends a raw message handler, ordered independently of
// the tick handlers.
func (p *Plant) AddRawHandler(h RawHandler) {
	p.rawHandlers = append(p.rawHandlers, h)
}

// Run pulls messages from the source until it is exhausted, parsing each
// and invoking every tick handler in registration order, then every raw
// handler. Handler errors are not caught here: downstream consumers assume
// a complete ordered feed, so a failing handler stops the whole plant.
func (p *Plant) Run(ctx context.Context) error {
	if p.state != stateUnstarted {
		return errors.New("plant already run, create a fresh plant and source to run again")
	}
	p.state = stateRunning
	defer func() { p.state = stateDone }()

	for {
		raw, err := p.source.Next(ctx)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		parsed := p.parser.Parse(raw, 0)
		if parsed == nil {
			continue
		}
		for _, h := range p.tickHandlers {
			if err := h(parsed.Tick); err != nil {
				return err
			}
		}
		if len(parsed.Raw) == 0 {
			continue
		}
		for _, h := range p.rawHandlers {
			if err := h(parsed.Raw); err != nil {
				return err
			}
		}
	}
}
