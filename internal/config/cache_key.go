package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// VisitorViewKey returns the cache key holding a visitor's view state
func (r *CacheKeyStruct) VisitorViewKey(visitorID string) string {
	return fmt.Sprintf("visitor:%s:view", visitorID)
}

var CacheKey = NewCacheKeyStruct()
