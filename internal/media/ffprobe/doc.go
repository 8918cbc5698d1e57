// Package ffprobe wraps ffprobe JSON inspection for container duration and
// stream-level language metadata.
package ffprobe
