package registrar

import (
	"context"
	"sync"
)

// Sequencer hands out ledger sequence numbers for one account. Callers hold
// it from reading the chain nonce until the submission settles, so two
// registrations never sign with the same nonce.
type Sequencer struct {
	sem    chan struct{}
	next   uint64
	synced bool
}

func NewSequencer() *Sequencer {
	return &Sequencer{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the sequencer is free or ctx is done.
func (s *Sequencer) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sequencer) Release() {
	<-s.sem
}

// Reserve returns the nonce to use given the chain's view. The local
// counter wins when the node has not yet seen our last transaction.
// Must be called while holding the sequencer.
func (s *Sequencer) Reserve(chain uint64) uint64 {
	if s.synced && s.next > chain {
		return s.next
	}
	return chain
}

// Commit records that nonce was accepted.
func (s *Sequencer) Commit(nonce uint64) {
	s.next = nonce + 1
	s.synced = true
}

// Invalidate drops the local counter; the next Reserve trusts the chain.
func (s *Sequencer) Invalidate() {
	s.synced = false
}

// Sequencers keys one Sequencer per account.
type Sequencers struct {
	mu sync.Mutex
	by map[string]*Sequencer
}

func NewSequencers() *Sequencers {
	return &Sequencers{by: make(map[string]*Sequencer)}
}

func (p *Sequencers) For(account string) *Sequencer {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.by[account]
	if !ok {
		s = NewSequencer()
		p.by[account] = s
	}
	return s
}
