// Package paginator provides a bidirectional cursor over a fixed,
// pre-fetched result sequence.
package paginator

import "errors"

// ErrExhausted is reported when a step crosses the sequence boundary. It is
// an expected outcome, not a failure.
var ErrExhausted = errors.New("paginator: exhausted")

// Direction selects where a single Step call moves. It is derived from the
// control the user pressed and is never remembered between calls.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Paginator walks a fixed sequence. Position starts one slot before the
// first element so the first forward step yields element zero; the invariant
// -1 <= position <= len(results) always holds.
type Paginator[T any] struct {
	results  []T
	position int
}

// New builds a cursor over results. The slice is owned by the paginator and
// must not be mutated afterwards; build a fresh cursor for a new result set.
func New[T any](results []T) *Paginator[T] {
	return &Paginator[T]{results: results, position: -1}
}

// Reset replaces the sequence and rewinds the cursor. A new result set
// always starts a fresh walk; positions are never carried over.
func (p *Paginator[T]) Reset(results []T) {
	p.results = results
	p.position = -1
}

// Step moves one element in the given direction and returns it, or
// ErrExhausted when the boundary is crossed. Position saturates at the
// boundary, so repeated exhausted steps stay exhausted.
func (p *Paginator[T]) Step(dir Direction) (T, error) {
	var zero T
	switch dir {
	case Backward:
		if !p.HasPrev() {
			p.position = -1
			return zero, ErrExhausted
		}
		p.position--
	default:
		if !p.HasNext() {
			p.position = len(p.results)
			return zero, ErrExhausted
		}
		p.position++
	}
	return p.results[p.position], nil
}

// HasNext reports whether a forward step can yield an element. It is false
// at the last index and stays false at the saturated position len(results)
// a forward exhaustion leaves behind.
func (p *Paginator[T]) HasNext() bool {
	return p.position < len(p.results)-1
}

// HasPrev reports whether a backward step can yield an element. It is false
// at position zero and at the rewound position -1.
func (p *Paginator[T]) HasPrev() bool {
	return p.position > 0
}

// Current returns the element under the cursor, if any.
func (p *Paginator[T]) Current() (T, bool) {
	var zero T
	if p.position < 0 || p.position >= len(p.results) {
		return zero, false
	}
	return p.results[p.position], true
}

// Position reports the cursor index.
func (p *Paginator[T]) Position() int { return p.position }

// Len reports the sequence length.
func (p *Paginator[T]) Len() int { return len(p.results) }
