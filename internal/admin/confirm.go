package admin

import (
	"context"
	"errors"
)

var ErrNotConfirmed = errors.New("action was not confirmed")

// Confirmer is asked before every destructive admin action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type confirmedKey struct{}

// WithConfirmation marks ctx as carrying the caller's explicit approval.
func WithConfirmation(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, confirmedKey{}, ok)
}

// ContextConfirmer approves only contexts built with WithConfirmation(ctx, true).
var ContextConfirmer Confirmer = ConfirmFunc(func(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmedKey{}).(bool)
	return ok
})

func ask(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil || !c.Confirm(ctx, prompt) {
		return ErrNotConfirmed
	}
	return nil
}
