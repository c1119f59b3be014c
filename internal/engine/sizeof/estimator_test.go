package sizeof

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  int64
	}{
		{name: "nil", value: nil, want: 0},
		{name: "bytes", value: []byte("hello"), want: 5},
		{name: "string", value: "hello world", want: 11},
		{name: "bool", value: true, want: 1},
		{name: "int", value: 42, want: 8},
		{name: "float", value: 3.14, want: 8},
		{name: "map", value: map[string]int{"a": 1}, want: int64(len(`{"a":1}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.value))
		})
	}
}

func TestEstimateUnserializableFallsBack(t *testing.T) {
	// Channels cannot be JSON-marshaled.
	assert.Equal(t, int64(DefaultFallbackBytes), Estimate(make(chan int)))
}

func TestEstimateStruct(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}

	got := Estimate(payload{Name: "x", N: 7})
	assert.Equal(t, int64(len(`{"name":"x","n":7}`)), got)
}
