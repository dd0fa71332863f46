// Package store is the canonical fact store: a JSON file holding world
// settings, the character registry, and the episode history. The pipeline
// reads it once per run as an immutable snapshot; writers go through
// name-resolving operations that surface LookupMiss on unknown names.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hansollee/lorecheck/internal/match"
	"github.com/hansollee/lorecheck/internal/model"
)

const snapshotCacheKey = "facts:snapshot"

// Store is a JSON-file-backed fact store with a short-lived snapshot cache
type Store struct {
	path  string
	mu    sync.Mutex
	cache *gocache.Cache
}

// Open creates a store over the given file. The file may not exist yet;
// it is created on first write.
func Open(path string, snapshotTTL time.Duration) *Store {
	if snapshotTTL <= 0 {
		snapshotTTL = 30 * time.Second
	}
	return &Store{
		path:  path,
		cache: gocache.New(snapshotTTL, 2*snapshotTTL),
	}
}

// Snapshot returns a deep-copied view of the current facts. Concurrent
// writers cannot mutate a snapshot once handed out.
func (s *Store) Snapshot() (model.FactSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, found := s.cache.Get(snapshotCacheKey); found {
		return deepCopy(cached.(model.FactSheet))
	}

	sheet, err := s.load()
	if err != nil {
		return model.FactSheet{}, err
	}
	s.cache.Set(snapshotCacheKey, sheet, gocache.DefaultExpiration)
	return deepCopy(sheet)
}

// UpsertCharacter adds a character or merges traits into an existing one,
// resolving by name. New characters get a generated id.
func (s *Store) UpsertCharacter(name string, traits map[string]any) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.load()
	if err != nil {
		return model.Character{}, err
	}

	if id, ok := match.ResolveName(name, sheet.Characters); ok {
		for i := range sheet.Characters {
			if sheet.Characters[i].ID != id {
				continue
			}
			mergeTraits(&sheet.Characters[i], traits)
			if err := s.save(sheet); err != nil {
				return model.Character{}, err
			}
			return sheet.Characters[i], nil
		}
	}

	ch := model.Character{ID: uuid.NewString(), Name: name, Traits: traits}
	sheet.Characters = append(sheet.Characters, ch)
	if err := s.save(sheet); err != nil {
		return model.Character{}, err
	}
	return ch, nil
}

// UpdateCharacterByName merges traits into the character the name resolves
// to. An unresolvable name is a LookupMiss.
func (s *Store) UpdateCharacterByName(name string, traits map[string]any) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.load()
	if err != nil {
		return model.Character{}, err
	}

	id, ok := match.ResolveName(name, sheet.Characters)
	if !ok {
		return model.Character{}, model.NewError(model.KindLookupMiss, "store.UpdateCharacterByName",
			"no character matches %q", name)
	}

	for i := range sheet.Characters {
		if sheet.Characters[i].ID != id {
			continue
		}
		mergeTraits(&sheet.Characters[i], traits)
		if err := s.save(sheet); err != nil {
			return model.Character{}, err
		}
		return sheet.Characters[i], nil
	}
	return model.Character{}, model.NewError(model.KindLookupMiss, "store.UpdateCharacterByName",
		"no character matches %q", name)
}

// RemoveCharacterByName deletes the character the name resolves to.
// An unresolvable name is a LookupMiss.
func (s *Store) RemoveCharacterByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.load()
	if err != nil {
		return err
	}

	id, ok := match.ResolveName(name, sheet.Characters)
	if !ok {
		return model.NewError(model.KindLookupMiss, "store.RemoveCharacterByName",
			"no character matches %q", name)
	}

	kept := sheet.Characters[:0]
	for _, c := range sheet.Characters {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	sheet.Characters = kept
	return s.save(sheet)
}

// SetWorld sets one world-setting key
func (s *Store) SetWorld(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.load()
	if err != nil {
		return err
	}
	if sheet.World == nil {
		sheet.World = make(map[string]any)
	}
	sheet.World[key] = value
	return s.save(sheet)
}

// RecordEpisode appends or replaces the episode with the same number
func (s *Store) RecordEpisode(ep model.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sheet, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range sheet.Episodes {
		if sheet.Episodes[i].Number == ep.Number {
			sheet.Episodes[i] = ep
			replaced = true
			break
		}
	}
	if !replaced {
		sheet.Episodes = append(sheet.Episodes, ep)
	}
	return s.save(sheet)
}

// load reads the file without touching the cache; callers hold the lock
func (s *Store) load() (model.FactSheet, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.FactSheet{}, nil
	}
	if err != nil {
		return model.FactSheet{}, fmt.Errorf("read fact store: %w", err)
	}

	var sheet model.FactSheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return model.FactSheet{}, fmt.Errorf("parse fact store %s: %w", s.path, err)
	}
	return sheet, nil
}

// save writes atomically (temp file + rename) and invalidates the cache
func (s *Store) save(sheet model.FactSheet) error {
	data, err := json.MarshalIndent(sheet, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fact store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".facts-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write fact store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace fact store: %w", err)
	}

	s.cache.Delete(snapshotCacheKey)
	return nil
}

func mergeTraits(ch *model.Character, traits map[string]any) {
	if len(traits) == 0 {
		return
	}
	if ch.Traits == nil {
		ch.Traits = make(map[string]any)
	}
	for k, v := range traits {
		ch.Traits[k] = v
	}
}

// deepCopy round-trips through JSON so callers can never alias the
// cached sheet
func deepCopy(sheet model.FactSheet) (model.FactSheet, error) {
	data, err := json.Marshal(sheet)
	if err != nil {
		return model.FactSheet{}, fmt.Errorf("copy fact sheet: %w", err)
	}
	var out model.FactSheet
	if err := json.Unmarshal(data, &out); err != nil {
		return model.FactSheet{}, fmt.Errorf("copy fact sheet: %w", err)
	}
	return out, nil
}
