package i18n

import (
	"context"

	"golang.org/x/text/language"
)

type contextKey struct{}

// WithLanguage stores the display language on ctx
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, contextKey{}, tag)
}

// FromContext returns the display language on ctx, or the default one
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(contextKey{}).(language.Tag); ok {
		return tag
	}
	return Supported[0]
}
