package id

import "context"

type contextKey struct{}

func FromContext(ctx context.Context) Gen {
	if gen, ok := ctx.Value(contextKey{}).(Gen); ok {
		return gen
	}
	return nil
}

func InjectContext(ctx context.Context, gen Gen) context.Context {
	return context.WithValue(ctx, contextKey{}, gen)
}
