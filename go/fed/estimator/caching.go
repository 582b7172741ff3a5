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

package estimator

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/fedopt/fedopt/go/fed/algebra"
)

// Caching memoises the estimates of another estimator, keyed by the printed
// form of the sub-tree. Failed estimates are not cached. It is safe for
// concurrent use.
type Caching struct {
	next  CardinalityEstimator
	cache *cache.Cache
}

var _ CardinalityEstimator = (*Caching)(nil)

// NewCaching wraps next. Entries live for ttl; a non-positive ttl keeps them
// forever.
func NewCaching(next CardinalityEstimator, ttl time.Duration) *Caching {
	if ttl <= 0 {
		return &Caching{next: next, cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Caching{next: next, cache: cache.New(ttl, 2*ttl)}
}

func (c *Caching) Cardinality(n algebra.Node) (float64, error) {
	key := algebra.String(n)
	if v, ok := c.cache.Get(key); ok {
		return v.(float64), nil
	}
	card, err := c.next.Cardinality(n)
	if err != nil {
		return 0, err
	}
	c.cache.SetDefault(key, card)
	return card, nil
}

// Len returns the number of cached estimates, expired ones included.
func (c *Caching) Len() int {
	return c.cache.ItemCount()
}

// Flush drops every cached estimate.
func (c *Caching) Flush() {
	c.cache.Flush()
}
