// Package values supplies randomized primitives for blueprints: names, emails,
// URLs, words, numbers, UUIDs and timestamps, grouped by category.
//
// A Provider owns a single ChaCha8 source. All draws go through a mutex, so one
// Provider can be shared by many factories and goroutines. Two providers built
// with the same seed produce the same sequence.
package values

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Provider generates randomized values.
type Provider struct {
	mu   sync.Mutex
	src  *rand.ChaCha8
	rand *rand.Rand
	now  time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithSeed makes the provider deterministic.
func WithSeed(seed uint64) Option {
	return func(p *Provider) {
		p.src = rand.NewChaCha8(seedBytes(seed))
		p.rand = rand.New(p.src)
	}
}

// WithNow anchors relative dates (Date().Recent, Date().Past) to t.
func WithNow(t time.Time) Option {
	return func(p *Provider) {
		p.now = t
	}
}

// New creates a provider seeded from crypto/rand unless WithSeed is given.
func New(opts ...Option) *Provider {
	var seed [32]byte
	_, _ = crand.Read(seed[:])
	src := rand.NewChaCha8(seed)

	p := &Provider{src: src, rand: rand.New(src)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	defaultOnce     sync.Once
	defaultProvider *Provider
)

// Default returns a process-wide provider.
func Default() *Provider {
	defaultOnce.Do(func() {
		defaultProvider = New()
	})
	return defaultProvider
}

func seedBytes(seed uint64) [32]byte {
	var b [32]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(b[i*8:], seed+uint64(i)*0x9e3779b97f4a7c15)
	}
	return b
}

// IntN returns a uniform int in [0, n). It panics if n <= 0.
func (p *Provider) IntN(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rand.IntN(n)
}

// Float64 returns a uniform float in [0.0, 1.0).
func (p *Provider) Float64() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rand.Float64()
}

func (p *Provider) uuid() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	// ChaCha8 never fails to read.
	id, _ := uuid.NewRandomFromReader(p.src)
	return id
}

func (p *Provider) clock() time.Time {
	if p.now.IsZero() {
		return time.Now()
	}
	return p.now
}

// Pick returns a uniformly chosen element of xs. It panics on an empty slice.
func Pick[V any](p *Provider, xs []V) V {
	return xs[p.IntN(len(xs))]
}

// Person generates names.
func (p *Provider) Person() Person { return Person{p} }

// Internet generates emails, domains and URLs.
func (p *Provider) Internet() Internet { return Internet{p} }

// Lorem generates filler text.
func (p *Provider) Lorem() Lorem { return Lorem{p} }

// Number generates bounded numbers.
func (p *Provider) Number() Number { return Number{p} }

// Datatype generates identifiers and booleans.
func (p *Provider) Datatype() Datatype { return Datatype{p} }

// Date generates timestamps relative to the provider clock.
func (p *Provider) Date() Date { return Date{p} }
