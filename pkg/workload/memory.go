// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package workload

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"
	"unsafe"
)

type Item struct {
	ID   int    `json:"id"`
	Data string `json:"data"`
}

// AllocateItems allocates n items.
func AllocateItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ID:   i,
			Data: fmt.Sprintf("This is item %d with some extra data to consume more memory", i),
		}
	}
	return items
}

type LeakItem struct {
	ID        int
	Timestamp int64
	Data      string
}

// LeakStore retains items until reset.
type LeakStore struct {
	mu    sync.Mutex
	items []LeakItem
	bytes int64
}

func NewLeakStore() *LeakStore {
	return &LeakStore{}
}

func randomString(rng *rand.Rand) string {
	return strconv.FormatUint(rng.Uint64(), 36)
}

// Add appends n items to the store, and returns the new number of items.
func (s *LeakStore) Add(n int, rng *rand.Rand) int {
	now := time.Now().UnixMilli()
	added := make([]LeakItem, n)
	var bytes int64
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range added {
		added[i] = LeakItem{
			ID:        len(s.items) + i,
			Timestamp: now,
			Data:      "Memory leak item with random data: " + randomString(rng),
		}
		bytes += int64(unsafe.Sizeof(LeakItem{})) + int64(len(added[i].Data))
	}
	s.items = append(s.items, added...)
	s.bytes += bytes
	return len(s.items)
}

// Reset drops all the items, and returns how many there were.
func (s *LeakStore) Reset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.items = nil
	s.bytes = 0
	return n
}

func (s *LeakStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Bytes estimates the memory retained by the items.
func (s *LeakStore) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}
