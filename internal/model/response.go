package model

import "math"

// Response is the JSON envelope returned by the collection endpoints.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    []T    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// OK builds a successful envelope. A nil slice is sent as an empty array.
func OK[T any](data []T) Response[T] {
	if data == nil {
		data = []T{}
	}
	return Response[T]{Success: true, Data: data}
}

// Failed builds an error envelope with an empty data array.
func Failed[T any](msg string) Response[T] {
	return Response[T]{Success: false, Data: []T{}, Error: msg}
}

// KeyStatus describes the cache state of a single key.
type KeyStatus struct {
	Cached     bool    `json:"cached" yaml:"cached"`
	TTLSeconds int64   `json:"ttl_seconds" yaml:"ttl_seconds"`
	TTLHours   float64 `json:"ttl_hours" yaml:"ttl_hours"`
}

// NewKeyStatus derives the status from the key presence and its remaining
// TTL in whole seconds. Absent keys report -1 seconds.
func NewKeyStatus(cached bool, ttlSeconds int64) KeyStatus {
	if !cached {
		return KeyStatus{Cached: false, TTLSeconds: -1}
	}
	ks := KeyStatus{Cached: true, TTLSeconds: ttlSeconds}
	if ttlSeconds > 0 {
		ks.TTLHours = math.Round(float64(ttlSeconds)/3600*10) / 10
	}
	return ks
}

// CacheStatus is the body of the cache introspection endpoint.
type CacheStatus struct {
	Success     bool                  `json:"success"`
	CacheStatus map[Dataset]KeyStatus `json:"cache_status,omitempty"`
	Error       string                `json:"error,omitempty"`
}
