package model

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyEnsemble  = errors.New("ensemble has no paths")
	ErrInvalidPayload = errors.New("invalid payload")
)

// PricePath is an ordered sequence of prices; index 0 is the known start price.
type PricePath []float64

// Ensemble is a non-empty set of equal-length paths sharing one start price.
// StartPrice equals Paths[i][0] for every path by construction.
type Ensemble struct {
	StartPrice float64
	Paths      []PricePath
}

// NewEnsemble wraps paths after checking the structural invariants: at least one
// path, no zero-length path, all paths of equal length.
func NewEnsemble(paths []PricePath) (*Ensemble, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyEnsemble
	}
	steps := len(paths[0])
	if steps == 0 {
		return nil, fmt.Errorf("%w: zero-length path", ErrInvalidPayload)
	}
	for i, p := range paths {
		if len(p) != steps {
			return nil, fmt.Errorf("%w: path %d has %d steps, want %d", ErrInvalidPayload, i, len(p), steps)
		}
	}
	return &Ensemble{StartPrice: paths[0][0], Paths: paths}, nil
}

func (e *Ensemble) Size() int {
	return len(e.Paths)
}

func (e *Ensemble) Steps() int {
	if len(e.Paths) == 0 {
		return 0
	}
	return len(e.Paths[0])
}

func (e *Ensemble) FinalPrices() []float64 {
	finals := make([]float64, len(e.Paths))
	for i, p := range e.Paths {
		finals[i] = p[len(p)-1]
	}
	return finals
}

// Sample returns copies of the first n paths (all of them if n exceeds the size).
func (e *Ensemble) Sample(n int) []PricePath {
	return SamplePrefix(e.Paths, n)
}

// SamplePrefix copies at most n leading paths so the caller never aliases the source.
func SamplePrefix(paths []PricePath, n int) []PricePath {
	if n > len(paths) {
		n = len(paths)
	}
	if n < 0 {
		n = 0
	}
	out := make([]PricePath, n)
	for i := 0; i < n; i++ {
		out[i] = append(PricePath(nil), paths[i]...)
	}
	return out
}
