// Package classifier defines the species classification contract. The
// ingestion pipeline is written against the Classifier interface so a real
// model can replace the stub without touching the pipeline's control flow.
package classifier

import (
	"context"
)

// Candidate is one ranked species prediction.
type Candidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is the outcome of one classification call. Identified false with an
// empty candidate list means the classifier could not produce a confident
// result; this is a normal outcome, not an error. Classifier faults
// (malformed input, internal failure, timeout) are reported through the
// error return instead.
type Result struct {
	Identified bool        `json:"identified"`
	Candidates []Candidate `json:"candidates"`
	Confidence float64     `json:"confidence"`
}

// Top returns the highest ranked candidate. Callers must check Identified
// before relying on the returned value.
func (r *Result) Top() Candidate {
	if len(r.Candidates) == 0 {
		return Candidate{}
	}
	return r.Candidates[0]
}

// Classifier identifies bird species from image bytes.
type Classifier interface {
	Identify(ctx context.Context, image []byte) (Result, error)
}
