package classifier

import (
	"context"
)

// StubClassifier is a placeholder implementation used until a real model is
// wired in. It never identifies anything, which forces callers to supply
// identification manually.
type StubClassifier struct{}

// NewStub returns the stub classifier.
func NewStub() *StubClassifier {
	return &StubClassifier{}
}

// Identify always reports an unidentified result.
func (s *StubClassifier) Identify(ctx context.Context, image []byte) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{
		Identified: false,
		Candidates: nil,
		Confidence: 0,
	}, nil
}
