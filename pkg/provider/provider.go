// Package provider supplies asset references that must always be mirrored, in
// addition to the ones found by scanning build artifacts.
package provider

import (
	"context"
	"fmt"
)

// Provider returns a list of asset references. Entries are returned untyped: the
// collector skips anything that is not a string instead of failing the run.
// state is an opaque value handed through from the caller.
type Provider interface {
	Provide(ctx context.Context, state any) ([]any, error)
}

// Func adapts an ordinary function to the Provider interface.
type Func func(ctx context.Context, state any) ([]any, error)

// Provide calls f.
func (f Func) Provide(ctx context.Context, state any) ([]any, error) {
	return f(ctx, state)
}

func (f Func) String() string { return "func provider" }

// Static returns a Provider that always yields refs.
func Static(refs ...string) Provider {
	out := make([]any, len(refs))
	for i, ref := range refs {
		out[i] = ref
	}
	return Func(func(context.Context, any) ([]any, error) {
		return out, nil
	})
}

// Chain runs providers in order and concatenates their results.
// The first failing provider aborts the chain.
type Chain []Provider

// Provide implements Provider.
func (c Chain) Provide(ctx context.Context, state any) ([]any, error) {
	var all []any
	for _, p := range c {
		entries, err := p.Provide(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Describe(p), err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

func (c Chain) String() string { return fmt.Sprintf("chain of %d providers", len(c)) }

// Describe returns a human readable name for p, used in error messages.
func Describe(p Provider) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
