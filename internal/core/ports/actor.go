package ports

import "context"

type actorKey struct{}

// WithActor tags ctx with the email of the authenticated caller.
func WithActor(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, actorKey{}, email)
}

// ActorFrom returns the caller tagged by WithActor, or "" for system calls.
func ActorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}
