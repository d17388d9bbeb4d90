package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/nugget/lifeboard/internal/appdata"
	"github.com/nugget/lifeboard/internal/mission"
)

// LoadDocument reads the document in slot key. A missing slot, a
// corrupt value, or a document from an unknown schema version yields
// fallback; none of these is reported to the caller as an error, only
// logged.
func (s *Store) LoadDocument(ctx context.Context, key string, fallback appdata.AppData, logger *slog.Logger) appdata.AppData {
	if logger == nil {
		logger = slog.Default()
	}
	raw, err := s.Get(ctx, NamespaceDocument, key)
	if errors.Is(err, ErrNotFound) {
		logger.Info("no stored document, starting fresh", "key", key)
		return fallback
	}
	if err != nil {
		logger.Warn("document read failed, using defaults", "key", key, "error", err)
		return fallback
	}
	doc, err := appdata.Migrate([]byte(raw))
	if err != nil {
		logger.Warn("stored document unusable, using defaults", "key", key, "error", err)
		return fallback
	}
	logger.Debug("document loaded", "key", key, "schema_version", doc.SchemaVersion, "bytes", len(raw))
	return doc
}

// SaveDocument writes doc to slot key.
func (s *Store) SaveDocument(ctx context.Context, key string, doc appdata.AppData) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.Set(ctx, NamespaceDocument, key, string(raw))
}

// SaveDigest archives a daily digest under its date key.
func (s *Store) SaveDigest(ctx context.Context, dg mission.DailyDigest) error {
	raw, err := json.Marshal(dg)
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}
	return s.Set(ctx, NamespaceDigest, dg.Date, string(raw))
}

// Digest returns the archived digest for a yyyy-MM-dd day, or
// [ErrNotFound].
func (s *Store) Digest(ctx context.Context, day string) (mission.DailyDigest, error) {
	raw, err := s.Get(ctx, NamespaceDigest, day)
	if err != nil {
		return mission.DailyDigest{}, err
	}
	var dg mission.DailyDigest
	if err := json.Unmarshal([]byte(raw), &dg); err != nil {
		return mission.DailyDigest{}, fmt.Errorf("decode digest %s: %w", day, err)
	}
	return dg, nil
}

// DigestDays returns the yyyy-MM-dd keys of every archived digest,
// oldest first.
func (s *Store) DigestDays(ctx context.Context) ([]string, error) {
	all, err := s.List(ctx, NamespaceDigest)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(all)), nil
}

// PruneDigests deletes archived digests for days before the yyyy-MM-dd
// day and returns how many were removed.
func (s *Store) PruneDigests(ctx context.Context, before string) (int, error) {
	days, err := s.DigestDays(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, day := range days {
		if day >= before {
			break
		}
		if err := s.Delete(ctx, NamespaceDigest, day); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
