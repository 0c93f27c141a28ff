package scope

import (
	"context"

	"github.com/blxryer/haste-server/internal/utils"

	"github.com/The127/ioc"
)

type scopeKeyType string

// Run opens a scope on root, hands fn a context carrying it and closes the scope afterwards.
func Run(ctx context.Context, root *ioc.DependencyProvider, fn func(ctx context.Context) error) error {
	scope := root.NewScope()
	defer utils.PanicOnError(scope.Close, "closing scope")

	return fn(ContextWithScope(ctx, scope))
}

func ContextWithScope(ctx context.Context, scope *ioc.DependencyProvider) context.Context {
	return context.WithValue(ctx, scopeKeyType("scope"), scope)
}

func GetScope(ctx context.Context) *ioc.DependencyProvider {
	return ctx.Value(scopeKeyType("scope")).(*ioc.DependencyProvider)
}
