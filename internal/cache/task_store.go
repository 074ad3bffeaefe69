package cache

import (
	"fmt"
	"time"
)

const taskSource = "xcontest"

func taskKey(code string, version int) string {
	return fmt.Sprintf("xctsk:v%d:%s", version, code)
}

// SetTaskDocument caches a raw task document fetched for a task code
func (c *Cache) SetTaskDocument(code string, version int, doc []byte, ttl time.Duration) {
	c.Set(taskKey(code, version), doc, ttl, taskSource)
}

// GetTaskDocument returns a fresh cached task document
func (c *Cache) GetTaskDocument(code string, version int) ([]byte, bool) {
	return c.Get(taskKey(code, version))
}

// GetStaleTaskDocument returns a cached task document that may be past its TTL
func (c *Cache) GetStaleTaskDocument(code string, version int) ([]byte, bool) {
	return c.GetStale(taskKey(code, version))
}
