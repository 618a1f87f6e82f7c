package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnbin/internal/domain/activity"
)

func writeFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0644))
	return path
}

type memStore struct {
	mu    sync.Mutex
	saved Snapshot
	saves int
	err   error
}

func (m *memStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Snapshot{}, nil
	}
	return m.saved, nil
}

func (m *memStore) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.saved = snap
	return nil
}

func TestRegisterComputesSizeLabel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.pdf", 3*1024*1024)
	r := New(nil, nil)

	id, err := r.Register(path, KindShared)
	require.NoError(t, err)

	e, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "3.00 MB", e.SizeLabel)
	assert.Equal(t, int64(3*1024*1024), e.Size)
	assert.Equal(t, "report.pdf", e.DisplayName)
	assert.Equal(t, KindShared, e.Kind)
	assert.Zero(t, e.DownloadCount)
	assert.False(t, e.RegisteredAt.IsZero())
}

func TestRegisterMissingPath(t *testing.T) {
	r := New(nil, nil)

	_, err := r.Register(filepath.Join(t.TempDir(), "nope.txt"), KindShared)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, r.Len(KindShared))
}

func TestRegisterDirectoryIsNotFound(t *testing.T) {
	r := New(nil, nil)

	_, err := r.Register(t.TempDir(), KindShared)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegisterSamePathTwiceGivesDistinctIDs(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", 10)
	r := New(nil, nil)

	id1, err := r.Register(path, KindShared)
	require.NoError(t, err)
	id2, err := r.Register(path, KindShared)
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)
	assert.Len(t, r.List(KindShared), 2)
}

func TestRegisterRetriesOnIDCollision(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", 10)
	r := New(nil, nil)
	ids := []string{"same", "same", "other"}
	r.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	id1, err := r.Register(path, KindShared)
	require.NoError(t, err)
	id2, err := r.Register(path, KindShared)
	require.NoError(t, err)

	assert.Equal(t, "same", id1)
	assert.Equal(t, "other", id2)
}

func TestUploadedEntryKeepsUploader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "abc_photo.png", 2048)
	r := New(nil, nil)

	id, err := r.Register(path, KindUploaded, WithDisplayName("photo.png"), WithUploader("203.0.113.9"))
	require.NoError(t, err)

	e, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "photo.png", e.DisplayName)
	assert.Equal(t, "203.0.113.9", e.UploaderAddress)
	assert.Equal(t, "2.00 KB", e.SizeLabel)
}

func TestListIsPerKindInInsertionOrder(t *testing.T) {
	dir := t.TempDir()
	r := New(nil, nil)

	var shared []string
	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		id, err := r.Register(writeFile(t, dir, name, 1), KindShared)
		require.NoError(t, err)
		shared = append(shared, id)
	}
	upID, err := r.Register(writeFile(t, dir, "up.txt", 1), KindUploaded)
	require.NoError(t, err)

	list := r.List(KindShared)
	require.Len(t, list, 3)
	for i, e := range list {
		assert.Equal(t, shared[i], e.ID)
	}

	uploads := r.List(KindUploaded)
	require.Len(t, uploads, 1)
	assert.Equal(t, upID, uploads[0].ID)
}

func TestGetUnknownAndMissing(t *testing.T) {
	path := writeFile(t, t.TempDir(), "gone.txt", 5)
	r := New(nil, nil)
	id, err := r.Register(path, KindShared)
	require.NoError(t, err)

	_, err = r.Get("does-not-exist")
	assert.True(t, errors.Is(err, ErrUnknownID))

	require.NoError(t, os.Remove(path))
	_, err = r.Get(id)
	assert.True(t, errors.Is(err, ErrFileMissing))

	// the entry itself survives until removed
	assert.Len(t, r.List(KindShared), 1)
}

func TestGetKind(t *testing.T) {
	dir := t.TempDir()
	r := New(nil, nil)
	sharedID, err := r.Register(writeFile(t, dir, "s.txt", 1), KindShared)
	require.NoError(t, err)

	_, err = r.GetKind(sharedID, KindUploaded)
	assert.True(t, errors.Is(err, ErrUnknownID))

	e, err := r.GetKind(sharedID, KindShared)
	require.NoError(t, err)
	assert.Equal(t, sharedID, e.ID)
}

func TestRemoveSharedKeepsFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "keep.txt", 5)
	r := New(nil, nil)
	id, err := r.Register(path, KindShared)
	require.NoError(t, err)

	require.NoError(t, r.Remove(id))

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = r.Get(id)
	assert.True(t, errors.Is(err, ErrUnknownID))
	assert.Empty(t, r.List(KindShared))
}

func TestRemoveUploadedDeletesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "upload.bin", 5)
	r := New(nil, nil)
	id, err := r.Register(path, KindUploaded)
	require.NoError(t, err)

	require.NoError(t, r.Remove(id))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, r.List(KindUploaded))
}

func TestRemoveUploadedAlreadyDeletedIsFine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "upload.bin", 5)
	r := New(nil, nil)
	id, err := r.Register(path, KindUploaded)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	assert.NoError(t, r.Remove(id))
}

func TestRemoveUploadedDeleteFailureStillDropsEntry(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "upload.bin", 5)
	r := New(nil, nil)
	id, err := r.Register(path, KindUploaded)
	require.NoError(t, err)

	// swap the file for a non-empty directory so os.Remove fails
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0755))
	writeFile(t, path, "child", 1)

	err = r.Remove(id)
	assert.True(t, errors.Is(err, ErrIO))
	assert.Empty(t, r.List(KindUploaded))

	err = r.Remove(id)
	assert.True(t, errors.Is(err, ErrUnknownID))
}

func TestRemoveUnknown(t *testing.T) {
	r := New(nil, nil)
	assert.True(t, errors.Is(r.Remove("missing"), ErrUnknownID))
}

func TestIncrementDownloadCount(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{}
	r := New(store, nil)
	id, err := r.Register(writeFile(t, dir, "a.txt", 1), KindShared)
	require.NoError(t, err)

	r.IncrementDownloadCount(id)
	r.IncrementDownloadCount(id)
	r.IncrementDownloadCount("unknown")

	e, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), e.DownloadCount)
	assert.Equal(t, int64(2), store.saved[id].Downloads)
}

func TestIncrementDownloadCountIgnoresUploads(t *testing.T) {
	r := New(nil, nil)
	id, err := r.Register(writeFile(t, t.TempDir(), "u.txt", 1), KindUploaded)
	require.NoError(t, err)

	r.IncrementDownloadCount(id)

	e, err := r.Get(id)
	require.NoError(t, err)
	assert.Zero(t, e.DownloadCount)
}

func TestConcurrentIncrements(t *testing.T) {
	r := New(nil, nil)
	id, err := r.Register(writeFile(t, t.TempDir(), "a.txt", 1), KindShared)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.IncrementDownloadCount(id)
		}()
	}
	wg.Wait()

	e, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.DownloadCount)
}

func TestPersistOnlySharedEntries(t *testing.T) {
	dir := t.TempDir()
	store := &memStore{}
	r := New(store, nil)

	sharedID, err := r.Register(writeFile(t, dir, "s.txt", 1), KindShared)
	require.NoError(t, err)
	_, err = r.Register(writeFile(t, dir, "u.txt", 1), KindUploaded)
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	rec, ok := store.saved[sharedID]
	require.True(t, ok)
	assert.Equal(t, "s.txt", rec.Name)
	assert.Equal(t, "1.00 B", rec.Size)

	require.NoError(t, r.Remove(sharedID))
	assert.Empty(t, store.saved)
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	log := activity.NewQuiet()
	r := New(store, log)

	id, err := r.Register(writeFile(t, t.TempDir(), "s.txt", 1), KindShared)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, store.saves)

	lines := log.Lines()
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "Error saving shared files: disk full")
}

func TestActivityMessages(t *testing.T) {
	dir := t.TempDir()
	log := activity.NewQuiet()
	r := New(nil, log)

	sharedID, err := r.Register(writeFile(t, dir, "s.txt", 1), KindShared)
	require.NoError(t, err)
	upID, err := r.Register(writeFile(t, dir, "u.txt", 1), KindUploaded)
	require.NoError(t, err)
	require.NoError(t, r.Remove(sharedID))
	require.NoError(t, r.Remove(upID))

	var msgs []string
	for _, e := range log.Entries() {
		msgs = append(msgs, e.Message)
	}
	assert.Equal(t, []string{
		"File shared: s.txt",
		"File removed: s.txt",
		"Uploaded file removed: u.txt",
	}, msgs)
}

func TestRemovedIDIsNeverReused(t *testing.T) {
	dir := t.TempDir()
	r := New(nil, nil)
	ids := []string{"first", "first", "second"}
	r.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	id, err := r.Register(writeFile(t, dir, "a.txt", 1), KindShared)
	require.NoError(t, err)
	require.NoError(t, r.Remove(id))

	again, err := r.Register(writeFile(t, dir, "b.txt", 1), KindShared)
	require.NoError(t, err)
	assert.Equal(t, "second", again)
}
