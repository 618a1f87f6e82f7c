// Package registry owns the set of files the host offers for download
// (shared entries) and the files remote clients sent in (uploaded entries).
//
// All methods are safe for concurrent use. Shared entries are persisted
// through a Store after every change; uploaded entries live for the process
// run only.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"burnbin/internal/domain/activity"
	"burnbin/internal/pkg/sizefmt"
)

const persistTimeout = 10 * time.Second

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*FileEntry
	order   map[Kind][]string
	retired map[string]struct{} // removed ids, never handed out again

	// persistMu orders snapshot writes; it is never held together with mu
	// for longer than the in-memory copy.
	persistMu sync.Mutex
	store     Store
	activity  activity.Sink

	now   func() time.Time
	newID func() string
}

// New returns an empty Registry. store may be nil, in which case nothing is
// persisted; sink may be nil.
func New(store Store, sink activity.Sink) *Registry {
	return &Registry{
		entries:  make(map[string]*FileEntry),
		order:    make(map[Kind][]string),
		retired:  make(map[string]struct{}),
		store:    store,
		activity: sink,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

type registerOptions struct {
	displayName string
	uploader    string
}

// Option customizes Register.
type Option func(*registerOptions)

// WithDisplayName overrides the name shown to clients, which defaults to the
// base name of the path.
func WithDisplayName(name string) Option {
	return func(o *registerOptions) { o.displayName = name }
}

// WithUploader records the remote address an uploaded file came from.
func WithUploader(addr string) Option {
	return func(o *registerOptions) { o.uploader = addr }
}

// Register adds path under a fresh id. Registering the same path twice yields
// two independent entries.
func (r *Registry) Register(path string, kind Kind, opts ...Option) (string, error) {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("%w: %v", ErrIO, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	name := o.displayName
	if name == "" {
		name = filepath.Base(path)
	}

	e := &FileEntry{
		Kind:         kind,
		Path:         path,
		DisplayName:  name,
		SizeLabel:    sizefmt.Label(info.Size()),
		Size:         info.Size(),
		RegisteredAt: r.now(),
	}
	if kind == KindUploaded {
		e.UploaderAddress = o.uploader
	}

	r.mu.Lock()
	e.ID = r.newID()
	for r.taken(e.ID) {
		e.ID = r.newID()
	}
	r.entries[e.ID] = e
	r.order[kind] = append(r.order[kind], e.ID)
	r.mu.Unlock()

	if kind == KindShared {
		r.appendActivity("File shared: " + name)
		r.persist()
	}
	return e.ID, nil
}

// Remove drops the entry. For uploaded entries the backing file is deleted as
// well; if that fails the entry is still gone and an ErrIO error is returned.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	delete(r.entries, id)
	r.retired[id] = struct{}{}
	r.order[e.Kind] = removeID(r.order[e.Kind], id)
	removed := *e
	r.mu.Unlock()

	if removed.Kind == KindShared {
		r.appendActivity("File removed: " + removed.DisplayName)
		r.persist()
		return nil
	}

	r.appendActivity("Uploaded file removed: " + removed.DisplayName)
	if err := os.Remove(removed.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Get returns a copy of the entry. The backing path is checked on every call;
// Size reflects the current on-disk size.
func (r *Registry) Get(id string) (FileEntry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	var out FileEntry
	if ok {
		out = *e
	}
	r.mu.RUnlock()

	if !ok {
		return FileEntry{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}

	info, err := os.Stat(out.Path)
	if err != nil || info.IsDir() {
		return FileEntry{}, fmt.Errorf("%w: %s", ErrFileMissing, out.Path)
	}
	out.Size = info.Size()
	return out, nil
}

// GetKind is Get restricted to one kind; entries of the other kind are
// reported as unknown.
func (r *Registry) GetKind(id string, kind Kind) (FileEntry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	match := ok && e.Kind == kind
	r.mu.RUnlock()
	if !match {
		return FileEntry{}, fmt.Errorf("%w: %s", ErrUnknownID, id)
	}
	return r.Get(id)
}

// List returns entries of kind in insertion order.
func (r *Registry) List(kind Kind) []FileEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.order[kind]
	out := make([]FileEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.entries[id])
	}
	return out
}

// IncrementDownloadCount bumps the counter of a shared entry. Unknown ids
// are ignored so a race with Remove is harmless. The new count is persisted
// best-effort; a crash before the write loses the increment.
func (r *Registry) IncrementDownloadCount(id string) {
	r.mu.Lock()
	e, ok := r.entries[id]
	shared := ok && e.Kind == KindShared
	if shared {
		e.DownloadCount++
	}
	r.mu.Unlock()

	if shared {
		r.persist()
	}
}

// Len reports the number of entries of kind.
func (r *Registry) Len(kind Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order[kind])
}

// Persist writes the current snapshot to the store. Writes are serialized;
// the in-memory registry stays readable while the store is busy.
func (r *Registry) Persist(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	snap := r.Snapshot()
	if err := r.store.Save(ctx, snap); err != nil {
		log.Printf("registry_persist_failed entries=%d error=%q", len(snap), err)
		r.appendActivity(fmt.Sprintf("Error saving shared files: %v", err))
		return err
	}
	return nil
}

func (r *Registry) persist() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	_ = r.Persist(ctx)
}

func (r *Registry) appendActivity(msg string) {
	if r.activity != nil {
		r.activity.Append(msg)
	}
}

// taken must be called with mu held.
func (r *Registry) taken(id string) bool {
	if _, ok := r.entries[id]; ok {
		return true
	}
	_, ok := r.retired[id]
	return ok
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// sortByRegistration orders restored entries, since snapshots do not carry
// insertion order.
func sortByRegistration(entries []*FileEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].RegisteredAt.Equal(entries[j].RegisteredAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].RegisteredAt.Before(entries[j].RegisteredAt)
	})
}
