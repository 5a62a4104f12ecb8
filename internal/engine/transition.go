package engine

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mavwarf/moodscape/internal/mood"
)

// teardown is a deferred release of one retired chain set. It only ever
// touches the chains it captured.
type teardown struct {
	id     uint64
	chains []*chain
	timer  Timer
	log    func(format string, args ...any)
}

func (td *teardown) run() {
	redundant := 0
	for _, c := range td.chains {
		redundant += c.release()
	}
	if redundant > 0 {
		td.log("teardown %d: %d generators already stopped", td.id, redundant)
	}
}

// transition retires the current chains and builds m's soundscape. The
// caller holds e.mu.
func (e *Engine) transition(m mood.Mood) Transition {
	span := startSpan(m)
	defer span.End()

	now := e.graph.CurrentTime()
	retired := e.chains
	for _, c := range retired {
		if err := c.fadeOut(now, e.timing.FadeOut.Seconds()); err != nil {
			e.log.Printf("fade out: %v", err)
		}
	}
	if len(retired) > 0 {
		e.scheduleTeardown(retired)
	}

	scape, ok := mood.Lookup(m)
	if !ok {
		e.log.Printf("mood %q has no soundscape, going silent", m)
	}
	built := make([]*chain, 0, len(scape.Layers))
	for _, l := range scape.Layers {
		if c := e.build(l, now); c != nil {
			built = append(built, c)
		}
	}
	e.chains = built
	e.current, e.hasMood = m, true

	span.SetAttributes(
		attribute.String("soundscape", scape.Name),
		attribute.Int("chains.built", len(built)),
		attribute.Int("chains.retired", len(retired)),
		attribute.Float64("audio.time", now),
	)
	e.log.Printf("mood %s: soundscape %q, %d chains built, %d retired", m, scape.Name, len(built), len(retired))

	return Transition{
		Mood:       m,
		Soundscape: scape.Name,
		At:         e.clock.Now(),
		AudioTime:  now,
		Built:      len(built),
		Retired:    len(retired),
	}
}

// scheduleTeardown releases chains after the teardown delay. The caller
// holds e.mu.
func (e *Engine) scheduleTeardown(chains []*chain) {
	td := &teardown{id: e.nextTask, chains: chains, log: e.log.Printf}
	e.nextTask++
	e.pending[td.id] = td
	td.timer = e.clock.AfterFunc(e.timing.TeardownDelay, func() {
		e.mu.Lock()
		delete(e.pending, td.id)
		e.mu.Unlock()
		td.run()
	})
}
