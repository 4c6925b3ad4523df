// SPDX-License-Identifier: AGPL-3.0-only
// Provenance-includes-location: https://github.com/prometheus/prometheus/blob/main/util/pool/pool.go
// Provenance-includes-license: Apache-2.0
// Provenance-includes-copyright: The Prometheus Authors

package pool

import (
	"math/bits"
	"sync"
)

// BucketedPool is a bucketed pool for variably sized slices. Buckets hold slices
// whose capacity is a power of two, up to maxSize.
//
// It is safe for concurrent use.
type BucketedPool[T ~[]E, E any] struct {
	buckets []sync.Pool
	maxSize uint
	// make is the function used to create an empty slice when none exist yet.
	make func(int) T
}

// NewBucketedPool returns a new BucketedPool with buckets for every power of two
// up to maxSize.
func NewBucketedPool[T ~[]E, E any](maxSize uint, makeFunc func(int) T) *BucketedPool[T, E] {
	return &BucketedPool[T, E]{
		buckets: make([]sync.Pool, bits.Len(maxSize)),
		maxSize: maxSize,
		make:    makeFunc,
	}
}

// Get returns an empty slice with a capacity of at least size, rounded up to
// the next power of two.
func (p *BucketedPool[T, E]) Get(size int) T {
	if size <= 0 {
		return p.make(0)
	}

	bucketIndex := bits.Len(uint(size - 1))

	// The requested size is larger than anything we pool: allocate it directly.
	if uint(size) > p.maxSize || bucketIndex >= len(p.buckets) {
		return p.make(1 << bucketIndex)
	}

	if s, ok := p.buckets[bucketIndex].Get().(T); ok {
		return s[:0]
	}
	return p.make(1 << bucketIndex)
}

// Put returns a slice to the pool. Slices larger than maxSize are dropped.
func (p *BucketedPool[T, E]) Put(s T) {
	size := uint(cap(s))
	if size == 0 || size > p.maxSize {
		return
	}

	// A slice whose capacity isn't a power of two can only serve requests for
	// the bucket below it.
	bucketIndex := bits.Len(size) - 1
	if bucketIndex < 0 || bucketIndex >= len(p.buckets) {
		return
	}
	p.buckets[bucketIndex].Put(s[:0])
}
