package spclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampBatchSize(t *testing.T) {
	tests := []struct {
		name string
		size int
		want int
	}{
		{"zero", 0, MinBatchSize},
		{"negative", -5, MinBatchSize},
		{"in range", 200, 200},
		{"above limit", 10000, MaxBatchSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampBatchSize(tt.size))
		})
	}
}
