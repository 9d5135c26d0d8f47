// Copyright 2024-2026 Aiku AI

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exsync"
)

// DefaultFlushInterval is how often the ban list is re-persisted when no
// interval is configured.
const DefaultFlushInterval = time.Hour

// BanList is the persisted set of users whose messages are not relayed.
// Membership checks only touch memory; every mutation is written to disk
// before it returns.
type BanList struct {
	path string
	set  *exsync.Set[UserID]
	log  zerolog.Logger

	// saveMu serializes mutations with their writes so an older snapshot
	// never lands after a newer one and a rollback never undoes another
	// caller's persisted change.
	saveMu    sync.Mutex
	writeFile func(path string, data []byte) error
}

// NewBanList creates an empty ban list backed by the JSON file at path.
// Call Load before use.
func NewBanList(path string, log zerolog.Logger) *BanList {
	return &BanList{
		path:      path,
		set:       exsync.NewSet[UserID](),
		log:       log.With().Str("component", "ban_list").Logger(),
		writeFile: writeFileAtomic,
	}
}

// Load reads the persisted list. A missing file is created empty; an
// unreadable or corrupt file is treated as empty and logged. The returned
// error only reports a failure to write the initial file.
func (bl *BanList) Load() error {
	data, err := os.ReadFile(bl.path)
	if errors.Is(err, os.ErrNotExist) {
		bl.log.Info().Str("path", bl.path).Msg("Ban list not found, creating empty list")
		return bl.Save()
	} else if err != nil {
		bl.log.Warn().Err(err).Str("path", bl.path).Msg("Failed to read ban list, starting empty")
		return nil
	}

	var ids []UserID
	if err := json.Unmarshal(data, &ids); err != nil {
		bl.log.Warn().Err(err).Str("path", bl.path).Msg("Ban list is corrupt, starting empty")
		return nil
	}
	for _, id := range ids {
		bl.set.Add(id)
	}
	bl.log.Info().Int("count", bl.set.Size()).Str("path", bl.path).Msg("Loaded ban list")
	return nil
}

// IsBanned reports whether the user is blocked. Never blocks on I/O.
func (bl *BanList) IsBanned(userID UserID) bool {
	return bl.set.Has(userID)
}

// Ban adds the user and persists the list. added is false if the user was
// already banned. If the write fails the in-memory change is reverted.
func (bl *BanList) Ban(userID UserID) (added bool, err error) {
	bl.saveMu.Lock()
	defer bl.saveMu.Unlock()
	added = bl.set.Add(userID)
	if err = bl.save(); err != nil {
		if added {
			bl.set.Remove(userID)
		}
		return false, err
	}
	return added, nil
}

// Unban removes the user and persists the list. Unbanning a user who is not
// banned is a no-op that returns false without touching the file.
func (bl *BanList) Unban(userID UserID) (removed bool, err error) {
	bl.saveMu.Lock()
	defer bl.saveMu.Unlock()
	if !bl.set.Pop(userID) {
		return false, nil
	}
	if err = bl.save(); err != nil {
		bl.set.Add(userID)
		return false, err
	}
	return true, nil
}

// Len returns the number of banned users.
func (bl *BanList) Len() int {
	return bl.set.Size()
}

// List returns the banned users in ascending order.
func (bl *BanList) List() []UserID {
	ids := bl.set.AsList()
	slices.Sort(ids)
	return ids
}

// Save writes the full list to disk as a JSON array of integers.
func (bl *BanList) Save() error {
	bl.saveMu.Lock()
	defer bl.saveMu.Unlock()
	return bl.save()
}

// save writes the current snapshot. Callers hold saveMu.
func (bl *BanList) save() error {
	ids := bl.List()
	if ids == nil {
		ids = []UserID{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal ban list: %w", err)
	}
	if err = bl.writeFile(bl.path, data); err != nil {
		return fmt.Errorf("failed to write ban list: %w", err)
	}
	return nil
}

// RunPeriodicFlush re-persists the list on a fixed interval until ctx is
// cancelled. Pass 0 to use DefaultFlushInterval.
func (bl *BanList) RunPeriodicFlush(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	bl.log.Info().Dur("interval", interval).Msg("Starting periodic ban list flush")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			bl.log.Info().Msg("Periodic ban list flush stopped")
			return
		case <-ticker.C:
			if err := bl.Save(); err != nil {
				bl.log.Error().Err(err).Msg("Periodic ban list flush failed")
			} else {
				bl.log.Debug().Int("count", bl.set.Size()).Msg("Flushed ban list")
			}
		}
	}
}

// writeFileAtomic replaces path via a temp file in the same directory so a
// crash mid-write never leaves a truncated list behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
