package di

import "fmt"

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a token with a unique name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry name.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory for the token.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token, panicking on a type mismatch.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	s := sr.Get(token.name)
	typed, ok := s.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type %T", token.name, s))
	}
	return typed
}
