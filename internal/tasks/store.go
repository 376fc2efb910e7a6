package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrPersist wraps storage failures. The in-memory change that triggered the
// write has already been applied when it is returned.
var ErrPersist = errors.New("persist tasks")

const maxIDAttempts = 8

var tracer = otel.Tracer("github.com/s1natex/minitodo/internal/tasks")

// Store owns the task list. Every mutation runs to completion under mu,
// including the snapshot write, before the next one starts.
type Store struct {
	mu    sync.Mutex
	tasks []Task
	repo  Repository

	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore loads the persisted list from repo. A missing snapshot starts an
// empty list, and so does an unreadable one. Only a malformed snapshot is
// overwritten by the initial save; a failed read leaves storage untouched so
// the data survives until a real change is made.
func NewStore(ctx context.Context, repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
		subs:   make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, span := tracer.Start(ctx, "tasks.Store.load")
	defer span.End()

	list, err := repo.Load(ctx)
	if err != nil {
		s.logger.Warn("store_load_failed", slog.String("error", err.Error()))
		span.RecordError(err)
		list = nil
	}
	s.tasks = list
	span.SetAttributes(attribute.Int("tasks.count", len(list)))
	s.logger.Info("store_loaded", slog.Int("tasks", len(list)))

	if err != nil && !errors.Is(err, ErrMalformedSnapshot) {
		observeSummary(Summarize(s.tasks))
		return s
	}
	s.mu.Lock()
	_ = s.persistLocked(ctx)
	s.mu.Unlock()
	return s
}

// Add appends a task with the trimmed text. Blank text is a no-op and
// reports ok=false.
func (s *Store) Add(ctx context.Context, text string) (Task, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, false, nil
	}

	ctx, span := tracer.Start(ctx, "tasks.Store.Add")
	defer span.End()

	s.mu.Lock()
	id, err := s.allocateIDLocked()
	if err != nil {
		s.mu.Unlock()
		endWithError(span, err)
		return Task{}, false, err
	}
	t := Task{
		ID:        id,
		Text:      text,
		Completed: false,
		CreatedAt: s.now(),
	}
	s.tasks = append(s.tasks, t)
	err = s.persistLocked(ctx)
	s.mu.Unlock()

	span.SetAttributes(attribute.String("task.id", t.ID))
	taskOperationsTotal.WithLabelValues("add").Inc()
	s.notify()
	if err != nil {
		endWithError(span, err)
	}
	return t, true, err
}

// Toggle flips completed on the task with id. Unknown ids are a no-op and
// report found=false.
func (s *Store) Toggle(ctx context.Context, id string) (Task, bool, error) {
	ctx, span := tracer.Start(ctx, "tasks.Store.Toggle", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, false, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	t := s.tasks[i]
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	taskOperationsTotal.WithLabelValues("toggle").Inc()
	s.notify()
	if err != nil {
		endWithError(span, err)
	}
	return t, true, err
}

// Delete removes the task with id. Unknown ids are a no-op and report
// found=false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "tasks.Store.Delete", trace.WithAttributes(attribute.String("task.id", id)))
	defer span.End()

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	taskOperationsTotal.WithLabelValues("delete").Inc()
	s.notify()
	if err != nil {
		endWithError(span, err)
	}
	return true, err
}

// Tasks returns a copy of the list in insertion order.
func (s *Store) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Visible returns the tasks matching f.
func (s *Store) Visible(f Filter) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.Apply(s.tasks)
}

func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summarize(s.tasks)
}

// Subscribe registers fn to run after every change to the list. fn is called
// without the store lock held and may read the store. The returned func
// removes the subscription.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *Store) indexLocked(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) allocateIDLocked() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexLocked(id) < 0 {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique task id")
}

// persistLocked writes the full list. Failures leave the in-memory list as is.
func (s *Store) persistLocked(ctx context.Context) error {
	observeSummary(Summarize(s.tasks))

	snapshot := append([]Task(nil), s.tasks...)
	if err := s.repo.Save(ctx, snapshot); err != nil {
		persistFailuresTotal.Inc()
		s.logger.Error("store_persist_failed",
			slog.Int("tasks", len(snapshot)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
