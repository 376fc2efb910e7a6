package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/s1natex/minitodo/internal/storage"
)

var fixedNow = time.Date(2024, time.July, 5, 14, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(t *testing.T, repo Repository) *Store {
	t.Helper()
	if repo == nil {
		repo = NewInMemoryRepo()
	}
	return NewStore(context.Background(), repo,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	)
}

type failingRepo struct {
	loadErr error
	saveErr error
	saves   int
}

func (r *failingRepo) Load(ctx context.Context) ([]Task, error) { return nil, r.loadErr }

func (r *failingRepo) Save(ctx context.Context, list []Task) error {
	r.saves++
	return r.saveErr
}

func TestStore_AddAppendsActiveTask(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	for i, text := range []string{"Buy milk", "  padded  ", "x"} {
		before := len(s.Tasks())
		task, ok, err := s.Add(ctx, text)
		if err != nil || !ok {
			t.Fatalf("add %q: ok=%v err=%v", text, ok, err)
		}
		list := s.Tasks()
		if len(list) != before+1 {
			t.Fatalf("expected length %d, got %d", before+1, len(list))
		}
		if list[i] != task {
			t.Fatalf("new task not appended at the end: %+v", list)
		}
		if task.Completed {
			t.Errorf("new tasks should default to Completed=false")
		}
		if task.Text != strings.TrimSpace(text) {
			t.Errorf("expected trimmed text %q, got %q", strings.TrimSpace(text), task.Text)
		}
		if !task.CreatedAt.Equal(fixedNow) {
			t.Errorf("expected CreatedAt=%v, got %v", fixedNow, task.CreatedAt)
		}
	}
}

func TestStore_AddBlankIsNoop(t *testing.T) {
	repo := &failingRepo{}
	s := newTestStore(t, repo)
	savesAfterInit := repo.saves

	for _, text := range []string{"", " ", "\t\n", "   \r\n "} {
		_, ok, err := s.Add(context.Background(), text)
		if ok || err != nil {
			t.Fatalf("blank %q should be rejected silently, ok=%v err=%v", text, ok, err)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("expected empty list, got %+v", s.Tasks())
	}
	if repo.saves != savesAfterInit {
		t.Fatalf("blank adds must not persist, saves=%d", repo.saves)
	}
}

func TestStore_ToggleIsInvolution(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	a, _, _ := s.Add(ctx, "a")
	b, _, _ := s.Add(ctx, "b")

	got, found, err := s.Toggle(ctx, a.ID)
	if !found || err != nil || !got.Completed {
		t.Fatalf("first toggle: %+v found=%v err=%v", got, found, err)
	}
	got, _, _ = s.Toggle(ctx, a.ID)
	if got.Completed {
		t.Fatalf("second toggle should restore completed=false")
	}

	list := s.Tasks()
	if list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("toggle must not reorder: %+v", list)
	}
}

func TestStore_ToggleUnknownIsNoop(t *testing.T) {
	repo := &failingRepo{}
	s := newTestStore(t, repo)
	saves := repo.saves

	if _, found, err := s.Toggle(context.Background(), "missing"); found || err != nil {
		t.Fatalf("expected not found without error, found=%v err=%v", found, err)
	}
	if repo.saves != saves {
		t.Fatalf("unknown toggle must not persist")
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	a, _, _ := s.Add(ctx, "a")
	b, _, _ := s.Add(ctx, "b")
	c, _, _ := s.Add(ctx, "c")

	found, err := s.Delete(ctx, b.ID)
	if !found || err != nil {
		t.Fatalf("delete: found=%v err=%v", found, err)
	}
	list := s.Tasks()
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
		t.Fatalf("unexpected list after delete: %+v", list)
	}

	found, err = s.Delete(ctx, b.ID)
	if found || err != nil {
		t.Fatalf("second delete should be a no-op, found=%v err=%v", found, err)
	}
	if len(s.Tasks()) != 2 {
		t.Fatalf("second delete changed the list")
	}
}

func TestStore_PersistsEveryChange(t *testing.T) {
	repo := NewInMemoryRepo()
	ctx := context.Background()
	s := newTestStore(t, repo)

	a, _, _ := s.Add(ctx, "a")
	_, _, _ = s.Toggle(ctx, a.ID)
	_, _, _ = s.Add(ctx, "b")

	reloaded := NewStore(ctx, repo)
	got := reloaded.Tasks()
	if len(got) != 2 || !got[0].Completed || got[1].Text != "b" {
		t.Fatalf("reloaded store does not match: %+v", got)
	}
	if !got[0].CreatedAt.Equal(fixedNow) {
		t.Fatalf("timestamp lost in round trip: %v", got[0].CreatedAt)
	}

	_, _ = s.Delete(ctx, a.ID)
	if got := NewStore(ctx, repo).Tasks(); len(got) != 1 || got[0].Text != "b" {
		t.Fatalf("delete was not persisted: %+v", got)
	}
}

func TestStore_MalformedSnapshotStartsEmpty(t *testing.T) {
	slot := storage.NewMemory()
	ctx := context.Background()
	if err := slot.Put(ctx, StorageKey, []byte(`{not json`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	s := NewStore(ctx, NewSnapshotRepo(slot))
	if n := len(s.Tasks()); n != 0 {
		t.Fatalf("expected empty list, got %d tasks", n)
	}

	// the corrupt snapshot is replaced on startup
	raw, err := slot.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != "[]" {
		t.Fatalf("expected snapshot rewritten to [], got %s", raw)
	}
}

func TestStore_LoadErrorStartsEmpty(t *testing.T) {
	repo := &failingRepo{loadErr: errors.New("disk gone")}
	s := newTestStore(t, repo)
	if len(s.Tasks()) != 0 {
		t.Fatalf("expected empty list")
	}
	if repo.saves != 0 {
		t.Fatalf("a failed read must not be followed by a save, got %d saves", repo.saves)
	}
}

// flakySlot fails reads while getErr is set, like a briefly locked
// database.
type flakySlot struct {
	*storage.Memory
	getErr error
}

func (f *flakySlot) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func TestStore_ReadErrorKeepsStoredSnapshot(t *testing.T) {
	ctx := context.Background()
	slot := &flakySlot{Memory: storage.NewMemory()}
	saved, err := Encode([]Task{{ID: "keep", Text: "Buy milk", CreatedAt: fixedNow}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := slot.Put(ctx, StorageKey, saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	slot.getErr = errors.New("i/o timeout")
	s := NewStore(ctx, NewSnapshotRepo(slot))
	if n := len(s.Tasks()); n != 0 {
		t.Fatalf("expected empty list after failed read, got %d tasks", n)
	}

	slot.getErr = nil
	raw, err := slot.Get(ctx, StorageKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(raw) != string(saved) {
		t.Fatalf("stored snapshot changed at startup: %s", raw)
	}

	// once storage recovers a fresh store sees the original task
	if got := NewStore(ctx, NewSnapshotRepo(slot)).Tasks(); len(got) != 1 || got[0].ID != "keep" {
		t.Fatalf("expected the saved task back, got %+v", got)
	}
}

func TestStore_PersistFailureKeepsChange(t *testing.T) {
	repo := &failingRepo{saveErr: errors.New("quota exceeded")}
	s := newTestStore(t, repo)

	task, ok, err := s.Add(context.Background(), "a")
	if !ok {
		t.Fatalf("add should succeed in memory")
	}
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if list := s.Tasks(); len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("in-memory change should stand: %+v", list)
	}
}

func TestStore_RetriesDuplicateIDs(t *testing.T) {
	ids := []string{"same", "same", "other"}
	i := 0
	s := NewStore(context.Background(), NewInMemoryRepo(), WithIDGenerator(func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}))
	ctx := context.Background()
	a, _, _ := s.Add(ctx, "a")
	b, _, err := s.Add(ctx, "b")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("ids must be unique, both %q", a.ID)
	}
}

func TestStore_GivesUpOnConstantIDs(t *testing.T) {
	s := NewStore(context.Background(), NewInMemoryRepo(), WithIDGenerator(func() string { return "x" }))
	ctx := context.Background()
	if _, _, err := s.Add(ctx, "a"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, ok, err := s.Add(ctx, "b"); ok || err == nil {
		t.Fatalf("expected id allocation failure, ok=%v err=%v", ok, err)
	}
	if len(s.Tasks()) != 1 {
		t.Fatalf("failed add must not change the list")
	}
}

func TestStore_DefaultIDsAreUnique(t *testing.T) {
	s := NewStore(context.Background(), NewInMemoryRepo())
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		task, _, err := s.Add(context.Background(), "t")
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("duplicate id %q", task.ID)
		}
		seen[task.ID] = true
	}
}

func TestStore_SubscribeNotifiesOnChange(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	calls := 0
	unsubscribe := s.Subscribe(func() {
		calls++
		_ = s.Summary() // observers may read the store
	})

	a, _, _ := s.Add(ctx, "a")
	_, _, _ = s.Add(ctx, "  ")
	_, _, _ = s.Toggle(ctx, a.ID)
	_, _, _ = s.Toggle(ctx, "missing")
	_, _ = s.Delete(ctx, a.ID)
	if calls != 3 {
		t.Fatalf("expected 3 notifications, got %d", calls)
	}

	unsubscribe()
	_, _, _ = s.Add(ctx, "b")
	if calls != 3 {
		t.Fatalf("unsubscribed observer was called")
	}
}

func TestStore_TasksReturnsCopy(t *testing.T) {
	s := newTestStore(t, nil)
	_, _, _ = s.Add(context.Background(), "a")

	list := s.Tasks()
	list[0].Text = "mutated"
	if s.Tasks()[0].Text != "a" {
		t.Fatalf("caller mutation leaked into the store")
	}
}

func TestStore_Scenario(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	milk, _, _ := s.Add(ctx, "Buy milk")
	list := s.Tasks()
	if len(list) != 1 || list[0].Text != "Buy milk" || list[0].Completed {
		t.Fatalf("after first add: %+v", list)
	}

	_, _, _ = s.Toggle(ctx, milk.ID)
	sum := s.Summary()
	if TotalLabel(sum.Total) != "1 task total" || CompletedLabel(sum.Completed) != "1 completed" {
		t.Fatalf("footer after toggle: %q / %q", TotalLabel(sum.Total), CompletedLabel(sum.Completed))
	}

	_, _, _ = s.Add(ctx, "Walk dog")
	if n := len(s.Tasks()); n != 2 {
		t.Fatalf("expected 2 tasks, got %d", n)
	}

	done := s.Visible(FilterCompleted)
	if len(done) != 1 || done[0].Text != "Buy milk" {
		t.Fatalf("completed filter: %+v", done)
	}

	_, _ = s.Delete(ctx, milk.ID)
	list = s.Tasks()
	if len(list) != 1 || list[0].Text != "Walk dog" {
		t.Fatalf("after delete: %+v", list)
	}
	sum = s.Summary()
	if TotalLabel(sum.Total) != "1 task total" || CompletedLabel(sum.Completed) != "0 completed" {
		t.Fatalf("footer after delete: %q / %q", TotalLabel(sum.Total), CompletedLabel(sum.Completed))
	}
}
