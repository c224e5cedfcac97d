package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a memory layer to a persistent layer
type LayeredCache struct {
	memory Store
	disk   Store
}

// NewLayeredCache creates a memory cache over a disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(NewMemoryCache(memoryTTL, 10*time.Minute), NewDiskCache(diskDir, diskTTL))
}

// NewLayered stacks any two stores
func NewLayered(memory, persistent Store) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		disk:   persistent,
	}
}

// Get checks memory first, then the persistent layer, promoting hits
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, found, err := c.memory.Get(ctx, key); err == nil && found {
		return val, true, nil
	}

	val, found, err := c.disk.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	_ = c.memory.Set(ctx, key, val)
	return val, true, nil
}

// Set stores a value in both layers, persistent first
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.disk.Set(ctx, key, value); err != nil {
		return err
	}
	return c.memory.Set(ctx, key, value)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	_ = c.memory.Delete(ctx, key)
	return c.disk.Delete(ctx, key)
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear(ctx context.Context) error {
	_ = c.memory.Clear(ctx)
	return c.disk.Clear(ctx)
}

// Close closes the persistent layer when it holds resources
func (c *LayeredCache) Close() error {
	return Close(c.disk)
}
