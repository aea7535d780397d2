// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package trend holds a fixed depth history of normalized readings used to
// draw a bar chart of recent values.
package trend

import "math"

// Empty is the sentinel a new buffer is filled with. It draws as an
// off-scale bar so a fresh chart starts visually at rest.
const Empty = 1.0

// Buffer is a ring of values in [0, 1]. The zero value is not usable; use
// New.
type Buffer struct {
	values []float64
	// head is the index of the oldest value.
	head int
}

// New returns a buffer of depth n filled with fill.
func New(n int, fill float64) *Buffer {
	if n < 1 {
		n = 1
	}
	b := &Buffer{values: make([]float64, n)}
	fill = clamp(fill)
	for i := range b.values {
		b.values[i] = fill
	}
	return b
}

// Push evicts the oldest value and appends v, clamped to [0, 1].
func (b *Buffer) Push(v float64) {
	b.values[b.head] = clamp(v)
	b.head = (b.head + 1) % len(b.values)
}

// Snapshot returns a copy of the values, oldest first.
func (b *Buffer) Snapshot() []float64 {
	out := make([]float64, 0, len(b.values))
	out = append(out, b.values[b.head:]...)
	return append(out, b.values[:b.head]...)
}

// Len returns the fixed depth of the buffer.
func (b *Buffer) Len() int {
	return len(b.values)
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
