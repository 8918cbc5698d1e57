// Package pipeline orchestrates the per-asset subtitle workflow: inventory,
// acquisition, alignment, embedding, and archival, with bounded parallelism
// across assets and failure containment at asset and language granularity.
package pipeline

import (
	"sync"

	"subforge/internal/asset"
)

// Stage is the lifecycle position of one asset within a run. State lives in
// memory only; reruns rederive everything from the filesystem.
type Stage string

const (
	StageDiscovered    Stage = "discovered"
	StageInventoried   Stage = "inventoried"
	StageAcquiring     Stage = "acquiring"
	StageSynchronizing Stage = "synchronizing"
	StageEmbedding     Stage = "embedding"
	StageArchived      Stage = "archived"
	StageFailed        Stage = "failed"
	StageSkipped       Stage = "skipped"
)

// AssetState tracks one asset through the run.
type AssetState struct {
	Asset asset.VideoAsset
	Stage Stage
	// SkipReason explains a skipped terminal state.
	SkipReason string
	// UnresolvedLanguages are targets that ended the run with no subtitle,
	// embedded or sidecar.
	UnresolvedLanguages []string
	// DegradedLanguages were embedded without timing alignment.
	DegradedLanguages []string
	// EmbeddedLanguages were newly embedded by this run.
	EmbeddedLanguages []string
	// Err is the fatal error for a failed asset.
	Err error
}

// pathLocks serializes work on a normalized asset path. Two assets never
// share a path within one run, but the lock also guards against the same
// path appearing twice through symlinked directories.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.Mutex)}
}

func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	m, ok := p.locks[path]
	if !ok {
		m = &sync.Mutex{}
		p.locks[path] = m
	}
	p.mu.Unlock()
	m.Lock()
	return m.Unlock
}
