package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key registering a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// EventQueue is the Redis list consumed by the event log worker.
func (r *CacheKeyStruct) EventQueue() string {
	return "event_log_queue"
}

// EventChannel is the pub/sub channel for the live admin event stream.
func (r *CacheKeyStruct) EventChannel() string {
	return "events:live"
}

var CacheKey = NewCacheKeyStruct()
