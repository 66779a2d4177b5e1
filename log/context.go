package log

import (
	"context"
)

type ctxScopeKey struct{}

// scope is a log position of the event: severity and dotted name path
// like ydb.tagpool.acquire. Scope stored in context is never mutated.
type scope struct {
	level Level
	names []string
}

func (s scope) appendNames(names []string) []string {
	path := make([]string, 0, len(s.names)+len(names))

	return append(append(path, s.names...), names...)
}

func scopeFromContext(ctx context.Context) scope {
	s, _ := ctx.Value(ctxScopeKey{}).(scope)

	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	return context.WithValue(ctx, ctxScopeKey{}, s)
}

func WithLevel(ctx context.Context, lvl Level) context.Context {
	s := scopeFromContext(ctx)
	s.level = lvl

	return withScope(ctx, s)
}

func LevelFromContext(ctx context.Context) Level {
	return scopeFromContext(ctx).level
}

// WithNames appends names to the path of ctx. Sibling contexts derived
// from the same parent do not share the appended tail.
func WithNames(ctx context.Context, names ...string) context.Context {
	s := scopeFromContext(ctx)
	s.names = s.appendNames(names)

	return withScope(ctx, s)
}

func NamesFromContext(ctx context.Context) []string {
	names := scopeFromContext(ctx).names
	if names == nil {
		return []string{}
	}

	return names[:len(names):len(names)]
}

func with(ctx context.Context, lvl Level, names ...string) context.Context {
	s := scopeFromContext(ctx)
	s.level = lvl
	s.names = s.appendNames(names)

	return withScope(ctx, s)
}
