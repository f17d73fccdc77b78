package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_Add(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Weight
		want    Weight
		wantErr bool
	}{
		{name: "simple", a: 3, b: 4, want: 7},
		{name: "negative", a: -3, b: -4, want: -7},
		{name: "mixed", a: 10, b: -4, want: 6},
		{name: "max plus zero", a: math.MaxInt64, b: 0, want: math.MaxInt64},
		{name: "positive overflow", a: math.MaxInt64, b: 1, wantErr: true},
		{name: "negative overflow", a: math.MinInt64, b: -1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWeight_Sub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Weight
		want    Weight
		wantErr bool
	}{
		{name: "simple", a: 10, b: 4, want: 6},
		{name: "below zero", a: 4, b: 10, want: -6},
		{name: "min minus zero", a: math.MinInt64, b: 0, want: math.MinInt64},
		{name: "positive overflow", a: math.MaxInt64, b: -1, wantErr: true},
		{name: "negative overflow", a: math.MinInt64, b: 1, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.a.Sub(tc.b)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrOverflow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWeight_Neg(t *testing.T) {
	got, err := Weight(5).Neg()
	require.NoError(t, err)
	assert.Equal(t, Weight(-5), got)

	got, err = Weight(math.MinInt64 + 1).Neg()
	require.NoError(t, err)
	assert.Equal(t, Weight(math.MaxInt64), got)

	_, err = Weight(math.MinInt64).Neg()
	assert.ErrorIs(t, err, ErrOverflow)
}
