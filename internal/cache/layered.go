package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through its layers fastest first. A hit is copied into
// every layer in front of the one that answered.
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache puts a memory layer over a disk directory, so verdicts
// survive between runs
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{layers: []Cache{
		NewMemoryCache(memoryTTL, 10*time.Minute),
		NewDiskCache(diskDir, diskTTL),
	}}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, ok := layer.Get(key)
		if !ok {
			continue
		}
		for _, front := range c.layers[:i] {
			_ = front.Set(key, val, 0)
		}
		return val, true
	}
	return nil, false
}

// Set writes every layer. A failing layer does not stop the others.
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	return c.each(func(layer Cache) error { return layer.Set(key, value, ttl) })
}

func (c *LayeredCache) Delete(key string) error {
	return c.each(func(layer Cache) error { return layer.Delete(key) })
}

func (c *LayeredCache) Clear() error {
	return c.each(Cache.Clear)
}

func (c *LayeredCache) each(fn func(Cache) error) error {
	var errs []error
	for _, layer := range c.layers {
		if err := fn(layer); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
