package loader

import (
	"context"
	"fmt"
	"net/url"
)

// Resolution is the outcome of resolving a specifier.
type Resolution struct {
	URL          string
	ShortCircuit bool
}

// ResolveNextFunc is the next resolve handler in the host chain.
type ResolveNextFunc func(ctx context.Context, specifier, parentURL string) (*Resolution, error)

// Resolve resolves specifier against parentURL when the parent is a network
// URL owned by this loader, so relative imports inside fetched modules stay on
// the network. Any other request is delegated to next unchanged.
func (l *Loader) Resolve(ctx context.Context, specifier, parentURL string, next ResolveNextFunc) (*Resolution, error) {
	if parentURL == "" || !l.Handles(parentURL) {
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotHandled, specifier)
		}
		return next(ctx, specifier, parentURL)
	}

	base, err := url.Parse(parentURL)
	if err != nil {
		return nil, fmt.Errorf("parse parent url %q: %w", parentURL, err)
	}
	ref, err := url.Parse(specifier)
	if err != nil {
		return nil, fmt.Errorf("parse specifier %q: %w", specifier, err)
	}
	return &Resolution{URL: base.ResolveReference(ref).String(), ShortCircuit: true}, nil
}
