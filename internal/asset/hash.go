package asset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const hashChunkSize = 64 * 1024

// Fingerprint is the 64-bit content hash providers use for exact matching:
// file size plus the little-endian uint64 sum of the first and last 64 KiB.
type Fingerprint struct {
	Hash string
	Size int64
}

// ComputeFingerprint hashes the video file. Files smaller than 128 KiB hash
// their full content twice, matching provider behavior.
func ComputeFingerprint(path string) (Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open for hashing: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Fingerprint{}, fmt.Errorf("stat for hashing: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return Fingerprint{}, fmt.Errorf("refusing to hash empty file %s", path)
	}

	sum := uint64(size)

	head, err := sumChunk(file, min64(size, hashChunkSize))
	if err != nil {
		return Fingerprint{}, err
	}
	sum += head

	tailStart := size - hashChunkSize
	if tailStart < 0 {
		tailStart = 0
	}
	if _, err := file.Seek(tailStart, io.SeekStart); err != nil {
		return Fingerprint{}, fmt.Errorf("seek tail chunk: %w", err)
	}
	tail, err := sumChunk(file, min64(size, hashChunkSize))
	if err != nil {
		return Fingerprint{}, err
	}
	sum += tail

	return Fingerprint{Hash: fmt.Sprintf("%016x", sum), Size: size}, nil
}

func sumChunk(r io.Reader, length int64) (uint64, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, fmt.Errorf("read hash chunk: %w", err)
	}
	var sum uint64
	i := 0
	for ; i+8 <= len(buf); i += 8 {
		sum += binary.LittleEndian.Uint64(buf[i : i+8])
	}
	if i < len(buf) {
		var last [8]byte
		copy(last[:], buf[i:])
		sum += binary.LittleEndian.Uint64(last[:])
	}
	return sum, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
