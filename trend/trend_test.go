// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package trend

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFilled(t *testing.T) {
	b := New(5, Empty)
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, b.Snapshot())
	assert.Equal(t, 1, New(0, 0).Len())
}

func TestPushFIFO(t *testing.T) {
	b := New(4, Empty)
	in := []float64{0.1, 0.2, 0.3, 0.4}
	for _, v := range in {
		b.Push(v)
	}
	assert.Equal(t, in, b.Snapshot())

	b.Push(0.5)
	assert.Equal(t, []float64{0.2, 0.3, 0.4, 0.5}, b.Snapshot())
	assert.NotContains(t, b.Snapshot(), 0.1)
	assert.Equal(t, 4, b.Len())
}

func TestPushClamps(t *testing.T) {
	b := New(3, Empty)
	b.Push(-1)
	b.Push(7)
	b.Push(math.NaN())
	assert.Equal(t, []float64{0, 1, 0}, b.Snapshot())
}

func TestSnapshotIsCopy(t *testing.T) {
	b := New(2, 0)
	s := b.Snapshot()
	s[0] = 0.9
	assert.Equal(t, []float64{0, 0}, b.Snapshot())
}
