package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"burnbin/internal/domain/activity"
	"burnbin/internal/pkg/sizefmt"
)

// SnapshotRecord is the persisted form of a shared entry.
type SnapshotRecord struct {
	Path       string `json:"path"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	UploadTime string `json:"upload_time"`
	Downloads  int64  `json:"downloads"`
}

// Snapshot maps file id to record. Only shared entries are included.
type Snapshot map[string]SnapshotRecord

// Marshal encodes the snapshot as an indented JSON document.
func (s Snapshot) Marshal() ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// ParseSnapshot decodes a document produced by Marshal. Empty input is an
// empty snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	snap := Snapshot{}
	if len(data) == 0 {
		return snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Snapshot copies the shared entries whose file still exists. The lock is
// held only for the copy; paths are checked after it is released.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	snap := make(Snapshot, len(r.order[KindShared]))
	for _, id := range r.order[KindShared] {
		e := r.entries[id]
		snap[id] = SnapshotRecord{
			Path:       e.Path,
			Name:       e.DisplayName,
			Size:       e.SizeLabel,
			UploadTime: e.UploadTime(),
			Downloads:  e.DownloadCount,
		}
	}
	r.mu.RUnlock()

	for id, rec := range snap {
		if info, err := os.Stat(rec.Path); err != nil || info.IsDir() {
			delete(snap, id)
		}
	}
	return snap
}

// Restore builds a Registry from snap. Records whose path is gone are dropped
// and counted in the activity log; size labels are recomputed from disk.
func Restore(snap Snapshot, store Store, sink activity.Sink) *Registry {
	r := New(store, sink)

	restored := make([]*FileEntry, 0, len(snap))
	dropped := 0
	for id, rec := range snap {
		info, err := os.Stat(rec.Path)
		if err != nil || info.IsDir() {
			dropped++
			continue
		}
		registeredAt, err := time.ParseInLocation(TimeLayout, rec.UploadTime, time.Local)
		if err != nil {
			registeredAt = r.now()
		}
		restored = append(restored, &FileEntry{
			ID:            id,
			Kind:          KindShared,
			Path:          rec.Path,
			DisplayName:   rec.Name,
			SizeLabel:     sizefmt.Label(info.Size()),
			Size:          info.Size(),
			RegisteredAt:  registeredAt,
			DownloadCount: rec.Downloads,
		})
	}

	sortByRegistration(restored)
	for _, e := range restored {
		r.entries[e.ID] = e
		r.order[KindShared] = append(r.order[KindShared], e.ID)
	}

	if len(restored) > 0 {
		r.appendActivity(fmt.Sprintf("Loaded %d shared file(s) from previous session", len(restored)))
	}
	if dropped > 0 {
		r.appendActivity(fmt.Sprintf("Dropped %d shared file(s) whose path no longer exists", dropped))
	}
	return r
}
