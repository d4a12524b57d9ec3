// Copyright 2026 The Warrant Authors
// SPDX-License-Identifier: Apache-2.0

package payload

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the compression algorithm applied to a
// payload before encryption. The tag byte is the first byte of the
// plaintext frame, so it is covered by the authentication tag. These
// values are protocol constants.
type CompressionTag uint8

const (
	// CompressionNone indicates uncompressed data. Used for content
	// that is already compressed (media, archives) where another
	// pass adds CPU cost without reducing size.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 indicates LZ4 block compression. Fast default
	// for binary data when content type is unknown or mixed.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd indicates zstd compression at the default
	// level. Better ratios for text-like content: JSON health
	// records, logs, exports.
	CompressionZstd CompressionTag = 2
)

// String returns the human-readable name of a compression tag.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses a compression tag from its string
// representation, as it appears in configuration.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("payload: unknown compression tag %q", name)
	}
}

// frameHeaderSize is the compressed frame header: 1 tag byte plus a
// 4-byte little-endian uncompressed length. The length bounds
// decompression output so a corrupted frame cannot cause unbounded
// allocation.
const frameHeaderSize = 5

// Compress frames data with the given compression tag:
//
//	[Tag: 1 byte] [UncompressedLength: 4 bytes LE] [Body]
//
// If the compressed body would be no smaller than the input, the frame
// silently falls back to CompressionNone — the tag in the frame always
// reflects what was actually applied.
func Compress(data []byte, tag CompressionTag) ([]byte, error) {
	if len(data) > math.MaxUint32 {
		return nil, fmt.Errorf("payload: %d bytes exceeds the 4 GiB frame limit", len(data))
	}

	var body []byte
	switch tag {
	case CompressionNone:
		body = data
	case CompressionLZ4:
		buffer := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buffer, nil)
		if err != nil {
			return nil, fmt.Errorf("payload: lz4 compression: %w", err)
		}
		if n == 0 || n >= len(data) {
			// Incompressible.
			tag = CompressionNone
			body = data
		} else {
			body = buffer[:n]
		}
	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("payload: creating zstd encoder: %w", err)
		}
		defer encoder.Close()
		body = encoder.EncodeAll(data, nil)
		if len(body) >= len(data) {
			tag = CompressionNone
			body = data
		}
	default:
		return nil, fmt.Errorf("payload: unknown compression tag %d", uint8(tag))
	}

	frame := make([]byte, frameHeaderSize+len(body))
	frame[0] = byte(tag)
	binary.LittleEndian.PutUint32(frame[1:frameHeaderSize], uint32(len(data)))
	copy(frame[frameHeaderSize:], body)
	return frame, nil
}

// Decompress reverses Compress, returning the original bytes.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < frameHeaderSize {
		return nil, fmt.Errorf("payload: frame is %d bytes, minimum is %d", len(frame), frameHeaderSize)
	}

	tag := CompressionTag(frame[0])
	uncompressedLength := binary.LittleEndian.Uint32(frame[1:frameHeaderSize])
	body := frame[frameHeaderSize:]

	switch tag {
	case CompressionNone:
		if uint32(len(body)) != uncompressedLength {
			return nil, fmt.Errorf("payload: frame length %d does not match header %d", len(body), uncompressedLength)
		}
		return body, nil
	case CompressionLZ4:
		output := make([]byte, uncompressedLength)
		n, err := lz4.UncompressBlock(body, output)
		if err != nil {
			return nil, fmt.Errorf("payload: lz4 decompression: %w", err)
		}
		if uint32(n) != uncompressedLength {
			return nil, fmt.Errorf("payload: lz4 produced %d bytes, header says %d", n, uncompressedLength)
		}
		return output, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(uncompressedLength)+1))
		if err != nil {
			return nil, fmt.Errorf("payload: creating zstd decoder: %w", err)
		}
		defer decoder.Close()
		output, err := decoder.DecodeAll(body, make([]byte, 0, uncompressedLength))
		if err != nil {
			return nil, fmt.Errorf("payload: zstd decompression: %w", err)
		}
		if uint32(len(output)) != uncompressedLength {
			return nil, fmt.Errorf("payload: zstd produced %d bytes, header says %d", len(output), uncompressedLength)
		}
		return output, nil
	default:
		return nil, fmt.Errorf("payload: unknown compression tag %d", uint8(tag))
	}
}
