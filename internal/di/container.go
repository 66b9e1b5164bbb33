// Package di provides a minimal dependency injection container with
// type-safe tokens. Services are registered lazily via factories and
// memoized on first resolution.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get resolves a service by name, panicking if it is unknown.
	Get(name string) any
}

// Container is the full registration and resolution surface.
type Container interface {
	ServiceRegistry

	// Register stores an already-built service under a name.
	Register(name string, service any)

	// RegisterFactory stores a lazy constructor under a name.
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	if s, ok := c.services[name]; ok {
		c.mu.Unlock()
		return s
	}

	factory, ok := c.factories[name]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: unknown service %q", name))
	}
	c.mu.Unlock()

	// Build outside the lock so factories can resolve dependencies.
	s := factory(c)

	c.mu.Lock()
	c.services[name] = s
	c.mu.Unlock()

	return s
}
