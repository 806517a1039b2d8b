package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProximityStore_PutGet(t *testing.T) {
	s := NewProximityStore[string](10, 5)

	_, ok := s.Get(3)
	assert.False(t, ok)
	assert.False(t, s.Has(3))

	s.Put(3, "three")
	s.Put(3, "tres")

	v, ok := s.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "tres", v)
	assert.True(t, s.Has(3))
	assert.Equal(t, 1, s.Len())
}

func TestProximityStore_Evict(t *testing.T) {
	tests := []struct {
		name     string
		maxSize  int
		keep     int
		fill     int
		anchor   int
		wantLen  int
		wantKeys []int
	}{
		{
			name:    "under capacity keeps everything",
			maxSize: 10, keep: 2, fill: 10, anchor: 0,
			wantLen: 10,
		},
		{
			name:    "over capacity keeps window around anchor",
			maxSize: 5, keep: 2, fill: 10, anchor: 5,
			wantLen:  5,
			wantKeys: []int{3, 4, 5, 6, 7},
		},
		{
			name:    "window clipped at collection start",
			maxSize: 5, keep: 3, fill: 10, anchor: 0,
			wantLen:  4,
			wantKeys: []int{0, 1, 2, 3},
		},
		{
			name:    "anchor far away drops everything",
			maxSize: 5, keep: 3, fill: 10, anchor: 100,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProximityStore[int](tt.maxSize, tt.keep)
			for i := 0; i < tt.fill; i++ {
				s.Put(i, i)
			}

			removed := s.Evict(tt.anchor)

			assert.Equal(t, tt.wantLen, s.Len())
			assert.Equal(t, tt.fill-tt.wantLen, removed)
			if tt.wantKeys != nil {
				assert.Equal(t, tt.wantKeys, s.Keys())
			}
		})
	}
}

func TestProximityStore_ConcurrentAccess(t *testing.T) {
	s := NewProximityStore[string](50, 25)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				idx := w*100 + i
				s.Put(idx, fmt.Sprint(idx))
				s.Get(idx)
				s.Evict(idx)
			}
		}(w)
	}
	wg.Wait()

	s.Evict(799)
	assert.LessOrEqual(t, s.Len(), 51)
	assert.True(t, s.Has(799))
}
