// Package loader orchestrates the data-preparation pipeline: read a source
// file, normalize its schema, impute coordinates, de-duplicate, categorize,
// and drop unresolved rows. It is the sole entry point presentation code
// uses to obtain incident data.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/metroviz/crimedash/internal/classify"
	"github.com/metroviz/crimedash/internal/impute"
	"github.com/metroviz/crimedash/internal/model"
	"github.com/metroviz/crimedash/internal/schema"
	"github.com/metroviz/crimedash/internal/store"
)

// Manager loads and caches prepared datasets keyed by source path. A path
// is prepared at most once per process; repeated loads return the cached
// immutable dataset until Invalidate is called. When a persistent store is
// attached, results also survive restarts as long as the file content hash
// matches.
type Manager struct {
	charset string
	persist *store.Cache

	mu    sync.Mutex
	cache map[string]*entry
}

// entry is one path's cache slot. The build runs under the entry's own
// once, so concurrent loads of the same path share one build while
// distinct paths prepare in parallel.
type entry struct {
	once sync.Once
	ds   *Dataset
}

// NewManager creates a Manager. charset names the source file encoding
// ("" or "utf-8" for none); persist may be nil to keep caching in-memory
// only.
func NewManager(charset string, persist *store.Cache) *Manager {
	return &Manager{
		charset: charset,
		persist: persist,
		cache:   make(map[string]*entry),
	}
}

// Load returns the prepared dataset for path. Expected failure modes
// (missing file, empty file, malformed rows, missing offense column) are
// logged and produce an empty dataset, never an error: the empty result is
// the dashboard's "stop and show an error" signal.
func (m *Manager) Load(ctx context.Context, path string) *Dataset {
	m.mu.Lock()
	e, ok := m.cache[path]
	if !ok {
		e = &entry{}
		m.cache[path] = e
	}
	m.mu.Unlock()

	e.once.Do(func() {
		e.ds = m.build(ctx, path)
	})
	return e.ds
}

// Invalidate drops the cached dataset for path, in memory and in the
// persistent store. The next Load re-runs the pipeline.
func (m *Manager) Invalidate(ctx context.Context, path string) {
	m.mu.Lock()
	delete(m.cache, path)
	m.mu.Unlock()

	if m.persist != nil {
		if err := m.persist.Invalidate(ctx, path); err != nil {
			zap.L().Warn("loader: invalidate persistent cache",
				zap.String("path", path), zap.Error(err))
		}
	}
}

func (m *Manager) build(ctx context.Context, path string) *Dataset {
	log := zap.L().With(zap.String("component", "loader"), zap.String("path", path))
	empty := &Dataset{Path: path, LoadedAt: time.Now()}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("loader: read source file", zap.Error(err))
		return empty
	}

	var hash string
	if m.persist != nil {
		sum := sha256.Sum256(data)
		hash = hex.EncodeToString(sum[:])
		if cached, ok, err := m.persist.Get(ctx, path, hash); err != nil {
			log.Warn("loader: persistent cache lookup", zap.Error(err))
		} else if ok {
			log.Info("loader: dataset served from persistent cache",
				zap.Int("rows", len(cached)))
			return &Dataset{Path: path, LoadedAt: time.Now(), incidents: cached}
		}
	}

	header, records, err := parseTable(path, data, m.charset)
	if err != nil {
		log.Error("loader: parse source", zap.Error(err))
		return empty
	}
	if len(records) == 0 {
		log.Warn("loader: source has no data rows")
		return empty
	}

	variant := schema.Detect(header)
	rows, err := schema.Normalize(header, records)
	if err != nil {
		log.Error("loader: schema normalization", zap.Error(err))
		return empty
	}

	rows = impute.FillCentroids(rows)
	before := len(rows)
	rows = dedupe(rows)

	incidents, err := classify.Apply(rows)
	if err != nil {
		log.Error("loader: categorization", zap.Error(err))
		return empty
	}

	// Final filter: every published record has both coordinates resolved,
	// either from the source or from its group centroid.
	kept := incidents[:0]
	for i := range incidents {
		if rows[i].HasCoordinates() {
			kept = append(kept, incidents[i])
		}
	}

	log.Info("loader: dataset prepared",
		zap.String("variant", variant.String()),
		zap.Int("raw_rows", len(records)),
		zap.Int("duplicates", before-len(rows)),
		zap.Int("dropped_no_coords", len(rows)-len(kept)),
		zap.Int("rows", len(kept)),
	)

	ds := &Dataset{Path: path, LoadedAt: time.Now(), incidents: kept}

	if m.persist != nil && len(kept) > 0 {
		if err := m.persist.Put(ctx, path, hash, kept); err != nil {
			log.Warn("loader: persist dataset", zap.Error(err))
		}
	}
	return ds
}

// dedupe removes exact-duplicate rows, keeping first occurrences in order.
// Runs after normalization and imputation, before categorization.
func dedupe(rows []model.Row) []model.Row {
	seen := make(map[model.Row]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
