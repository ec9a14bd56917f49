package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const refillInterval = 30 * time.Second

// WordPool keeps a batch of words from a slow source in memory. Generate
// only reads the pool and tops up from the fallback, it never waits on the
// source. Run does the refilling.
type WordPool struct {
	source   WordSource
	fallback WordSource
	words    chan string
	wake     chan struct{}
	logger   zerolog.Logger
}

func NewWordPool(source, fallback WordSource, size int, logger zerolog.Logger) *WordPool {
	return &WordPool{
		source:   source,
		fallback: fallback,
		words:    make(chan string, max(size, 1)),
		wake:     make(chan struct{}, 1),
		logger:   logger,
	}
}

func (p *WordPool) Generate(count int) []string {
	words := FallbackWords{Primary: pooled(p.words), Fallback: p.fallback}.Generate(count)
	select {
	case p.wake <- struct{}{}:
	default:
	}
	return words
}

// Run fills the pool until ctx is done, after every Generate and on a timer
// in case the source was unavailable.
func (p *WordPool) Run(ctx context.Context) {
	ticker := time.NewTicker(refillInterval)
	defer ticker.Stop()

	for {
		p.Fill()
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-ticker.C:
		}
	}
}

// Fill asks the source for enough words to top the pool up.
func (p *WordPool) Fill() {
	missing := cap(p.words) - len(p.words)
	if missing == 0 {
		return
	}
	added := 0
	for _, w := range p.source.Generate(missing) {
		select {
		case p.words <- w:
			added++
		default:
		}
	}
	if added == 0 {
		p.logger.Warn().Msg("word pool refill returned nothing")
		return
	}
	p.logger.Debug().Int("added", added).Int("pooled", len(p.words)).Msg("word pool refilled")
}

type pooled chan string

func (c pooled) Generate(count int) []string {
	words := make([]string, 0, count)
	for len(words) < count {
		select {
		case w := <-c:
			words = append(words, w)
		default:
			return words
		}
	}
	return words
}
