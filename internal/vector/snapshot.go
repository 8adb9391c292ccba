package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
)

// snapshotEntry is the per-document payload inside a snapshot pair.
type snapshotEntry struct {
	Vector       []float64 `json:"vector"`
	VocabVersion int       `json:"vocabulary_version"`
	Metadata     Metadata  `json:"metadata"`
	SearchText   string    `json:"searchText"`
}

// snapshotPair serializes as the two-element array [id, entry] required by
// the snapshot file format.
type snapshotPair struct {
	ID    string
	Entry snapshotEntry
}

func (p snapshotPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.ID, p.Entry})
}

func (p *snapshotPair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("snapshot pair: %w", err)
	}
	if err := json.Unmarshal(raw[0], &p.ID); err != nil {
		return fmt.Errorf("snapshot pair id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &p.Entry); err != nil {
		return fmt.Errorf("snapshot pair entry: %w", err)
	}
	return nil
}

// snapshotFile is the on-disk layout:
// {vectors: [[id, {...}], ...], vocabulary: [...], timestamp: ISO8601}.
type snapshotFile struct {
	Vectors    []snapshotPair `json:"vectors"`
	Vocabulary []string       `json:"vocabulary"`
	Timestamp  time.Time      `json:"timestamp"`
}

// SaveSnapshot writes the current index state to the configured path using
// write-new-then-rename so a partial failure never corrupts the previous
// snapshot.
func (idx *Index) SaveSnapshot() error {
	if idx.cfg.SnapshotPath == "" {
		return errors.New("snapshot path not configured")
	}

	state := idx.state.Load()

	snap := snapshotFile{
		Vectors:    make([]snapshotPair, 0, len(state.docs)),
		Vocabulary: append([]string(nil), state.vocab...),
		Timestamp:  time.Now().UTC(),
	}
	for _, doc := range state.docs {
		snap.Vectors = append(snap.Vectors, snapshotPair{
			ID: doc.ID,
			Entry: snapshotEntry{
				Vector:       doc.Vector,
				VocabVersion: doc.VocabVersion,
				Metadata:     doc.Metadata,
				SearchText:   doc.SearchText,
			},
		})
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(idx.cfg.SnapshotPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	tmp := idx.cfg.SnapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, idx.cfg.SnapshotPath); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}

	idx.logger.Info("vector snapshot saved",
		zap.String("path", idx.cfg.SnapshotPath),
		zap.Int("documents", len(snap.Vectors)),
		zap.Int("vocabulary", len(snap.Vocabulary)),
	)
	return nil
}

// LoadSnapshot restores index state from disk. A missing file starts empty
// and returns nil; a corrupt file starts empty and returns
// domain.ErrSnapshotCorrupt so callers can report non-fatal status.
func (idx *Index) LoadSnapshot() error {
	if idx.cfg.SnapshotPath == "" {
		return errors.New("snapshot path not configured")
	}

	data, err := os.ReadFile(idx.cfg.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			idx.logger.Info("no vector snapshot found, starting empty",
				zap.String("path", idx.cfg.SnapshotPath))
			return nil
		}
		return fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		idx.logger.Warn("vector snapshot corrupt, starting empty",
			zap.String("path", idx.cfg.SnapshotPath), zap.Error(err))
		idx.Clear()
		return fmt.Errorf("%w: %s", domain.ErrSnapshotCorrupt, err)
	}

	state := emptyState()
	state.vocab = snap.Vocabulary
	for pos, term := range snap.Vocabulary {
		state.vocabIndex[term] = pos
	}
	maxVersion := 0
	for i := range snap.Vectors {
		p := &snap.Vectors[i]
		state.docs[p.ID] = &Document{
			ID:           p.ID,
			Vector:       p.Entry.Vector,
			VocabVersion: p.Entry.VocabVersion,
			Metadata:     p.Entry.Metadata,
			SearchText:   p.Entry.SearchText,
		}
		if p.Entry.VocabVersion > maxVersion {
			maxVersion = p.Entry.VocabVersion
		}
	}
	state.version = maxVersion

	idx.mu.Lock()
	idx.state.Store(state)
	idx.mu.Unlock()

	idx.logger.Info("vector snapshot loaded",
		zap.String("path", idx.cfg.SnapshotPath),
		zap.Int("documents", len(state.docs)),
		zap.Int("vocabulary", len(state.vocab)),
	)
	return nil
}
