// Package antientropy implements the summarize → diff → apply exchange
// shape shared by both CRDTs (spec §4.3): a peer advertises a fixed-width
// bloom summary of its state; the other peer computes the delta batch the
// summary is missing and sends it back. Running one round in each direction
// converges two replicas when no new writes interleave (Q5).
//
// The protocol itself stays generic over each CRDT's concrete state and
// delta types — it has no network transport and no I/O; wiring a socket on
// top of Exchange is left to a host (the overlay transport is explicitly
// out of scope, per spec §1).
package antientropy

// Protocol packages one CRDT's four pure operations into the shape the
// exchange loop below drives: summarize a state, diff a state against a
// peer's summary, apply a delta batch to a state, and test whether a delta
// batch is empty (no-op).
type Protocol[State any, Delta any] struct {
	Summarize func(state State) []byte
	Diff      func(state State, summary []byte) (Delta, error)
	Apply     func(state State, delta Delta)
	IsEmpty   func(delta Delta) bool
}

// Exchange runs one full round: each side computes what the other is
// missing from its own state against the peer's summary, then applies the
// resulting delta to the peer's state. Grounded conceptually on the
// locator/getheaders round-trip shape in node/p2p/headers.go, adapted here
// to a pure two-state exchange with no sockets involved.
func (p Protocol[State, Delta]) Exchange(a, b State) error {
	summaryA := p.Summarize(a)
	summaryB := p.Summarize(b)

	deltaForB, err := p.Diff(a, summaryB)
	if err != nil {
		return err
	}
	deltaForA, err := p.Diff(b, summaryA)
	if err != nil {
		return err
	}

	if !p.IsEmpty(deltaForB) {
		p.Apply(b, deltaForB)
	}
	if !p.IsEmpty(deltaForA) {
		p.Apply(a, deltaForA)
	}
	return nil
}

// Idle reports whether a is already a no-op summary match against b: no
// round of Exchange would produce any delta in either direction (Q4: diff
// against one's own summary is always empty, so Idle(a, a) is always true).
func (p Protocol[State, Delta]) Idle(a, b State) (bool, error) {
	summaryB := p.Summarize(b)
	deltaForB, err := p.Diff(a, summaryB)
	if err != nil {
		return false, err
	}
	if !p.IsEmpty(deltaForB) {
		return false, nil
	}

	summaryA := p.Summarize(a)
	deltaForA, err := p.Diff(b, summaryA)
	if err != nil {
		return false, err
	}
	return p.IsEmpty(deltaForA), nil
}
