package tts

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the pause between consecutive synthesis calls.
const DefaultInterval = 2 * time.Second

type pacedSynthesizer struct {
	Synthesizer
	interval time.Duration
	sleep    func(context.Context, time.Duration) error

	mu      sync.Mutex
	started bool
}

// Paced wraps s so that every call after the first waits interval before it
// reaches the vendor. Calls are serialized.
func Paced(s Synthesizer, interval time.Duration) Synthesizer {
	return &pacedSynthesizer{
		Synthesizer: s,
		interval:    interval,
		sleep:       sleepCtx,
	}
}

func (p *pacedSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && p.interval > 0 {
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}
	p.started = true

	return p.Synthesizer.Synthesize(ctx, text, voice)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
