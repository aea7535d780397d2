// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the Sensirion wire helpers shared by the gas
// sensor drivers: the CRC-8 used to protect every 16 bit word, and the codec
// that turns word slices into the CRC-interleaved byte stream the devices
// expect.
package common

import (
	"errors"
	"math"
)

// ErrCRC is returned when a received word does not match its CRC byte.
var ErrCRC = errors.New("invalid crc")

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. Polynomial 0x31, initial value 0xff.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// EncodeWords converts words into big-endian byte pairs, each followed by
// its CRC.
func EncodeWords(words []uint16) []byte {
	b := make([]byte, len(words)*3)
	for ix, w := range words {
		b[ix*3] = byte(w >> 8)
		b[ix*3+1] = byte(w)
		b[ix*3+2] = CRC8(b[ix*3 : ix*3+2])
	}
	return b
}

// DecodeWords verifies and strips the CRC bytes of a response. len(b) must
// be a multiple of 3.
func DecodeWords(b []byte) ([]uint16, error) {
	if len(b)%3 != 0 {
		return nil, errors.New("response length is not a multiple of 3")
	}
	words := make([]uint16, len(b)/3)
	for ix := range words {
		if CRC8(b[ix*3:ix*3+2]) != b[ix*3+2] {
			return nil, ErrCRC
		}
		words[ix] = uint16(b[ix*3])<<8 | uint16(b[ix*3+1])
	}
	return words, nil
}

// WordsToFloat32 joins two words, most significant first, into the IEEE754
// value used by the SCD30 measurement registers.
func WordsToFloat32(hi, lo uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}
