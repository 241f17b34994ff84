package tools

import "context"

// RootsResult is roots()'s structured output (spec.md §6).
type RootsResult struct {
	Roots []string
}

// Roots implements roots(): list the currently allowed root directories.
func Roots(ctx context.Context, s *Session, _ struct{}) (RootsResult, error) {
	return RootsResult{Roots: s.Roots.Roots()}, nil
}
