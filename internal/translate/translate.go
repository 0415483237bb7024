// Package translate defines the text-translation capability used by the
// fan-out path. The server treats it as opaque: any implementation that
// maps (text, from, to) to text will do.
package translate

import "context"

// Translator converts text from one language to another.
type Translator interface {
	Translate(ctx context.Context, text, fromLanguage, toLanguage string) (string, error)
}

// Identity returns the input unchanged. It is the default implementation
// for deployments without a translation backend.
type Identity struct{}

// NewIdentity returns the pass-through translator.
func NewIdentity() *Identity { return &Identity{} }

func (*Identity) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}
