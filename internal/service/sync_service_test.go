package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/state"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
)

const testDebounce = 40 * time.Millisecond

// fakeRemote is an in-memory hidden file with a version counter.
type fakeRemote struct {
	mu       sync.Mutex
	fileID   string
	version  int64
	modified time.Time
	content  []byte
	writes   int
	written  [][]byte
	backups  map[string][]byte
	writeErr error
	metaErr  error
	// unversioned makes the remote report an empty version string.
	unversioned bool
}

func newFakeRemote(content string) *fakeRemote {
	return &fakeRemote{
		fileID:   "file-1",
		version:  1,
		modified: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		content:  []byte(content),
		backups:  map[string][]byte{},
	}
}

func (f *fakeRemote) metaLocked() *models.RemoteFileMetadata {
	version := strconv.FormatInt(f.version, 10)
	if f.unversioned {
		version = ""
	}
	return &models.RemoteFileMetadata{
		ID:           f.fileID,
		Name:         "tutor_billing.json",
		ModifiedTime: f.modified,
		Version:      version,
	}
}

func (f *fakeRemote) EnsureFile(context.Context) (*models.RemoteFileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metaLocked(), nil
}

func (f *fakeRemote) Metadata(context.Context, string) (*models.RemoteFileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.metaErr != nil {
		return nil, f.metaErr
	}
	return f.metaLocked(), nil
}

func (f *fakeRemote) ReadFile(context.Context) ([]byte, *models.RemoteFileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.content...), f.metaLocked(), nil
}

func (f *fakeRemote) WriteFile(_ context.Context, content []byte, fileID string) (*models.RemoteFileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if fileID != f.fileID {
		return nil, errors.New("unknown file")
	}
	f.writes++
	f.written = append(f.written, append([]byte(nil), content...))
	f.content = append([]byte(nil), content...)
	f.version++
	f.modified = f.modified.Add(time.Minute)
	return f.metaLocked(), nil
}

func (f *fakeRemote) WriteVisibleBackup(_ context.Context, content []byte, filename string) (*models.RemoteFileMetadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filename == "" {
		filename = "backup_auto.json"
	}
	f.backups[filename] = append([]byte(nil), content...)
	return &models.RemoteFileMetadata{ID: "backup-" + filename, Name: filename, ModifiedTime: f.modified, Version: "1"}, nil
}

// externalWrite simulates another device saving the file.
func (f *fakeRemote) externalWrite(content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = []byte(content)
	f.version++
	f.modified = f.modified.Add(time.Minute)
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeRemote) lastWritten() models.Bundle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return codec.New(nil).Decode(f.written[len(f.written)-1])
}

func (f *fakeRemote) setWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErr = err
}

type syncFixture struct {
	remote *fakeRemote
	store  *state.Store
	sync   *SyncService
}

func newSyncFixture(t *testing.T, remoteContent string, resolver ConflictResolver) *syncFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	remote := newFakeRemote(remoteContent)
	store := state.NewStore()
	svc := NewSyncService(ctx, remote, store, codec.New(nil), resolver, SyncConfig{Debounce: testDebounce}, nil, nil)
	t.Cleanup(func() {
		svc.Close()
		cancel()
	})
	return &syncFixture{remote: remote, store: store, sync: svc}
}

func student(id, name string) models.Student {
	return models.Student{ID: id, Name: name, ClassDays: []string{"Monday"}, SessionLength: 1, HourlyRate: 500}
}

func TestSyncServiceRequestSaveIsNoopBeforeLoad(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)

	f.store.UpdateStudents([]models.Student{student("s1", "Ana")})

	require.Never(t, func() bool { return f.remote.writeCount() > 0 }, 4*testDebounce, 10*time.Millisecond)
	assert.Equal(t, models.SyncPhaseIdle, f.sync.Status().Phase)
	assert.False(t, f.sync.Connected())

	_, err := f.sync.SaveNow(context.Background())
	assert.ErrorIs(t, err, appErrors.ErrNotConnected)
}

func TestSyncServiceSavesOnceAfterDebounce(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)
	require.NoError(t, f.sync.Load(context.Background()))
	assert.Equal(t, "1", f.sync.LastSeenVersion())

	f.store.UpdateStudents([]models.Student{student("s1", "Ana")})
	assert.Equal(t, models.SyncPhaseArmed, f.sync.Status().Phase)
	assert.Zero(t, f.remote.writeCount(), "save must not happen before the debounce delay")

	require.Eventually(t, func() bool { return f.remote.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return f.remote.writeCount() > 1 }, 4*testDebounce, 10*time.Millisecond)

	status := f.sync.Status()
	assert.Equal(t, models.SyncOutcomeSaved, status.Outcome)
	assert.Contains(t, status.Message, "Saved: ")
	assert.Equal(t, "2", status.LastSeenVersion)
	assert.Equal(t, "Ana", f.remote.lastWritten().StudentsData[0].Name)
}

func TestSyncServiceCoalescesBurst(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)
	require.NoError(t, f.sync.Load(context.Background()))

	names := []string{"A", "B", "C", "D", "E"}
	for _, name := range names {
		f.store.UpdateStudents([]models.Student{student("s1", name)})
		time.Sleep(testDebounce / 4)
	}

	require.Eventually(t, func() bool { return f.remote.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return f.remote.writeCount() > 1 }, 4*testDebounce, 10*time.Millisecond)
	assert.Equal(t, "E", f.remote.lastWritten().StudentsData[0].Name)
}

func TestSyncServiceConflictReload(t *testing.T) {
	f := newSyncFixture(t, `{}`, FixedResolver(models.ConflictReload))
	require.NoError(t, f.sync.Load(context.Background()))

	f.remote.externalWrite(`{"studentsData":[{"id":"r1","name":"Remote"}]}`)
	f.store.UpdateStudents([]models.Student{student("s1", "Local")})

	require.Eventually(t, func() bool {
		return f.sync.Status().Outcome == models.SyncOutcomeReloaded
	}, time.Second, 5*time.Millisecond)

	assert.Zero(t, f.remote.writeCount())
	assert.Equal(t, "2", f.sync.LastSeenVersion())
	students := f.store.Students()
	require.Len(t, students, 1)
	assert.Equal(t, "Remote", students[0].Name)
	assert.Contains(t, f.sync.Status().Message, "Reloaded cloud version")
}

func TestSyncServiceConflictOverwrite(t *testing.T) {
	f := newSyncFixture(t, `{}`, FixedResolver(models.ConflictOverwrite))
	require.NoError(t, f.sync.Load(context.Background()))

	f.remote.externalWrite(`{"studentsData":[{"id":"r1","name":"Remote"}]}`)
	f.store.UpdateStudents([]models.Student{student("s1", "Local")})

	require.Eventually(t, func() bool { return f.remote.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return f.sync.LastSeenVersion() == "3" }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Local", f.remote.lastWritten().StudentsData[0].Name)
}

func TestSyncServiceConflictCancel(t *testing.T) {
	f := newSyncFixture(t, `{}`, FixedResolver(models.ConflictCancel))
	require.NoError(t, f.sync.Load(context.Background()))

	f.remote.externalWrite(`{"studentsData":[]}`)
	f.store.UpdateStudents([]models.Student{student("s1", "Local")})

	require.Eventually(t, func() bool {
		return f.sync.Status().Outcome == models.SyncOutcomeCanceled
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, f.remote.writeCount())
	assert.Equal(t, "1", f.sync.LastSeenVersion())
	assert.Equal(t, "Save canceled due to conflict.", f.sync.Status().Message)
	assert.Equal(t, "Local", f.store.Students()[0].Name, "the canceled mutation stays in memory")
}

func TestSyncServiceMissingRemoteVersionIsNotDrift(t *testing.T) {
	f := newSyncFixture(t, `{}`, FixedResolver(models.ConflictCancel))
	require.NoError(t, f.sync.Load(context.Background()))
	require.Equal(t, "1", f.sync.LastSeenVersion())

	f.remote.mu.Lock()
	f.remote.unversioned = true
	f.remote.mu.Unlock()
	f.store.UpdateStudents([]models.Student{student("s1", "Ana")})

	require.Eventually(t, func() bool { return f.remote.writeCount() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return f.sync.Status().Outcome == models.SyncOutcomeSaved
	}, time.Second, 5*time.Millisecond)
	assert.Nil(t, f.sync.Status().Conflict)
	assert.Equal(t, "Ana", f.remote.lastWritten().StudentsData[0].Name)
}

func TestSyncServiceFailureKeepsLastSeenVersion(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)
	require.NoError(t, f.sync.Load(context.Background()))
	f.remote.setWriteErr(errors.New("connection reset"))

	f.store.UpdateStudents([]models.Student{student("s1", "Ana")})
	require.Eventually(t, func() bool {
		return f.sync.Status().Outcome == models.SyncOutcomeFailed
	}, time.Second, 5*time.Millisecond)

	status := f.sync.Status()
	assert.Equal(t, models.SyncPhaseIdle, status.Phase)
	assert.Equal(t, "Save failed…", status.Message)
	assert.Contains(t, status.Error, "connection reset")
	assert.Equal(t, "1", f.sync.LastSeenVersion())
	assert.Equal(t, "Ana", f.store.Students()[0].Name)

	f.remote.setWriteErr(nil)
	f.store.UpdateStudents([]models.Student{student("s1", "Ana B")})
	require.Eventually(t, func() bool { return f.remote.writeCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestSyncServiceRearmsAfterActiveCycle(t *testing.T) {
	release := make(chan struct{})
	asked := make(chan struct{}, 1)
	resolver := ResolverFunc(func(ctx context.Context, _ models.Conflict) (models.ConflictChoice, error) {
		asked <- struct{}{}
		<-release
		return models.ConflictOverwrite, nil
	})
	f := newSyncFixture(t, `{}`, resolver)
	require.NoError(t, f.sync.Load(context.Background()))

	f.remote.externalWrite(`{}`)
	f.store.UpdateStudents([]models.Student{student("s1", "First")})

	select {
	case <-asked:
	case <-time.After(time.Second):
		t.Fatal("conflict was not raised")
	}
	assert.Equal(t, models.SyncPhaseConflictPending, f.sync.Status().Phase)
	f.store.UpdateStudents([]models.Student{student("s1", "Second")})
	assert.Equal(t, models.SyncPhaseConflictPending, f.sync.Status().Phase, "a mutation during a cycle must not start another one")
	close(release)

	require.Eventually(t, func() bool { return f.remote.writeCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Second", f.remote.lastWritten().StudentsData[0].Name)
	require.Never(t, func() bool { return f.remote.writeCount() > 2 }, 4*testDebounce, 10*time.Millisecond)
}

func TestSyncServiceEmptyBundleRoundTrip(t *testing.T) {
	f := newSyncFixture(t, ``, nil)
	require.NoError(t, f.sync.Load(context.Background()))
	f.store.Replace(models.EmptyBundle())

	outcome, err := f.sync.SaveNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncOutcomeSaved, outcome)

	f.store.UpdateStudents([]models.Student{student("s1", "Temp")})
	require.NoError(t, f.sync.Reload(context.Background()))
	assert.Equal(t, models.EmptyBundle(), f.store.Snapshot())
	require.Never(t, func() bool { return f.remote.writeCount() > 1 }, 4*testDebounce, 10*time.Millisecond)
}

func TestSyncServiceImportAndBackup(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)

	outcome, err := f.sync.Import(context.Background(), models.Bundle{StudentsData: []models.Student{student("s1", "Ana")}})
	require.NoError(t, err)
	assert.Equal(t, models.SyncOutcomeSkipped, outcome)
	assert.Len(t, f.store.Students(), 1)

	require.NoError(t, f.sync.Load(context.Background()))
	outcome, err = f.sync.Import(context.Background(), models.Bundle{StudentsData: []models.Student{student("s2", "Ben")}})
	require.NoError(t, err)
	assert.Equal(t, models.SyncOutcomeSaved, outcome)
	assert.Equal(t, "Ben", f.remote.lastWritten().StudentsData[0].Name)

	meta, err := f.sync.Backup(context.Background(), "manual.json")
	require.NoError(t, err)
	assert.Equal(t, "manual.json", meta.Name)
	assert.Contains(t, f.sync.Status().Message, "Backup saved to My Drive: manual.json")
	assert.Contains(t, string(f.remote.backups["manual.json"]), `"Ben"`)
}

func TestSyncServiceDisconnect(t *testing.T) {
	f := newSyncFixture(t, `{}`, nil)
	require.NoError(t, f.sync.Load(context.Background()))
	var statuses []models.SyncStatus
	var mu sync.Mutex
	f.sync.OnStatus(func(s models.SyncStatus) {
		mu.Lock()
		statuses = append(statuses, s)
		mu.Unlock()
	})

	f.store.UpdateStudents([]models.Student{student("s1", "Ana")})
	f.sync.Disconnect()

	require.Never(t, func() bool { return f.remote.writeCount() > 0 }, 4*testDebounce, 10*time.Millisecond)
	status := f.sync.Status()
	assert.False(t, status.Connected)
	assert.Empty(t, status.LastSeenVersion)
	assert.Equal(t, models.SyncOutcomeSignedOut, status.Outcome)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, statuses, 2)
	assert.Equal(t, models.SyncPhaseArmed, statuses[0].Phase)
}
