/*
Copyright 2026 The Vitess Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package federation

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// BloomFilter is an approximate membership filter. MayContain may answer
// true for keys that were never added, but must never answer false for a key
// that was.
type BloomFilter interface {
	MayContain(key string) (bool, error)
}

type alwaysMaybe struct{}

func (alwaysMaybe) MayContain(string) (bool, error) { return true, nil }

// AlwaysMaybe is used for members that registered no filter.
var AlwaysMaybe BloomFilter = alwaysMaybe{}

// Bloom is an in-memory bloom filter using double hashing over a single
// 64 bit xxhash. It must be fully populated before it is shared; Add is not
// safe to call concurrently with MayContain.
type Bloom struct {
	bits []uint64
	m    uint64
	k    uint64
}

var _ BloomFilter = (*Bloom)(nil)

// NewBloom sizes a filter for expected keys at the given false positive rate.
func NewBloom(expected int, fpRate float64) *Bloom {
	if expected < 1 {
		expected = 1
	}
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = 0.01
	}
	n := float64(expected)
	m := uint64(math.Ceil(-n * math.Log(fpRate) / (math.Ln2 * math.Ln2)))
	if m < 64 {
		m = 64
	}
	k := uint64(math.Round(float64(m) / n * math.Ln2))
	if k < 1 {
		k = 1
	}
	return &Bloom{bits: make([]uint64, (m+63)/64), m: m, k: k}
}

func (b *Bloom) Add(key string) {
	lo, hi := split(key)
	for i := uint64(0); i < b.k; i++ {
		idx := (lo + i*hi) % b.m
		b.bits[idx/64] |= 1 << (idx % 64)
	}
}

func (b *Bloom) MayContain(key string) (bool, error) {
	lo, hi := split(key)
	for i := uint64(0); i < b.k; i++ {
		idx := (lo + i*hi) % b.m
		if b.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Hashes is the number of probes per key.
func (b *Bloom) Hashes() int { return int(b.k) }

func split(key string) (uint64, uint64) {
	h := xxhash.Sum64String(key)
	lo, hi := h&0xffffffff, h>>32
	// an odd step never cycles early
	return lo, hi | 1
}
