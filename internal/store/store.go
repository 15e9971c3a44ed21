// Package store owns the habit collection. It is the only writer of
// habits: every mutation runs under one lock, recomputes derived fields,
// then persists the whole collection.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"habitkeeper/internal/apperror"
	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/model"
	"habitkeeper/internal/ordering"
	"habitkeeper/internal/repository"
	"habitkeeper/internal/streak"
	"habitkeeper/pkg/logger"
	"habitkeeper/pkg/metrics"
	"habitkeeper/pkg/util"
)

// Repository is durable storage for the serialized collection. Load
// returns repository.ErrNotFound when nothing was ever saved.
type Repository interface {
	Backend() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Events receives a notification after each applied mutation.
type Events interface {
	HabitCreated(ctx context.Context, h model.Habit)
	CompletionToggled(ctx context.Context, h model.Habit, day string, completed bool)
	HabitDeleted(ctx context.Context, id string)
}

type Option func(*Store)

func WithEvents(e Events) Option {
	return func(s *Store) { s.events = e }
}

func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

type Store struct {
	mu      sync.RWMutex
	habits  []model.Habit // insertion order
	version uint64        // bumped by every mutation

	saveMu       sync.Mutex
	savedVersion uint64

	repo     Repository
	cal      *dateutil.Calendar
	events   Events
	newID    func() (string, error)
	validate *validator.Validate
	logger   *zap.Logger
}

func New(repo Repository, cal *dateutil.Calendar, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		habits:   []model.Habit{},
		repo:     repo,
		cal:      cal,
		newID:    newHabitID,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UUIDv7 ids sort by creation time.
func newHabitID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Load replaces the in-memory collection with the stored one. A missing
// or unreadable document leaves the collection empty; it never fails.
func (s *Store) Load(ctx context.Context) {
	log := logger.WithTrace(ctx, s.logger)
	start := time.Now()

	habits := []model.Habit{}
	data, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		log.Info("No stored habits, starting empty", zap.String("backend", s.repo.Backend()))
	case err != nil:
		kind := util.ClassifyStorageError(err)
		metrics.IncrementStorageError("load", kind)
		metrics.RecordPersistDuration(s.repo.Backend(), "load", "failed", time.Since(start))
		log.Error("Failed to load habits, starting empty",
			zap.String("backend", s.repo.Backend()),
			zap.String("kind", kind),
			zap.Error(err),
		)
	default:
		records, err := s.decodeCollection(data)
		if err != nil {
			metrics.IncrementStorageError("load", util.ClassifyStorageError(err))
			log.Error("Stored habits are malformed, starting empty", zap.Error(err))
			break
		}
		habits = s.migrate(records)
		metrics.RecordPersistDuration(s.repo.Backend(), "load", "success", time.Since(start))
	}

	s.mu.Lock()
	s.habits = habits
	s.version++
	s.mu.Unlock()

	log.Info("Habits loaded",
		zap.String("backend", s.repo.Backend()),
		zap.Int("count", len(habits)),
	)
}

// Save writes the current collection.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	data, err := json.Marshal(s.habits)
	version := s.version
	s.mu.RUnlock()

	if err != nil {
		return apperror.Storage("store.Save", err)
	}
	return s.persist(ctx, "store.Save", data, version)
}

// Create validates form and appends a new habit. A returned StorageError
// accompanies a habit that was created but not persisted.
func (s *Store) Create(ctx context.Context, form model.HabitForm) (model.Habit, error) {
	const op = "store.Create"
	log := logger.WithTrace(ctx, s.logger)

	form = form.Normalize()
	if err := s.validateForm(op, form); err != nil {
		log.Warn("Rejected habit form", zap.Error(err))
		return model.Habit{}, err
	}

	id, err := s.newID()
	if err != nil {
		return model.Habit{}, fmt.Errorf("%s: generate id: %w", op, err)
	}

	h := model.Habit{
		ID:             id,
		Title:          form.Title,
		Description:    form.Description,
		Frequency:      form.Frequency,
		TargetDays:     form.TargetDays,
		Color:          form.Color,
		Urgency:        form.Urgency,
		CompletedDates: []string{},
		CreatedAt:      s.cal.Current(),
		StreakCount:    0,
	}

	s.mu.Lock()
	s.habits = append(s.habits, h)
	data, version, encErr := s.encodeLocked()
	s.mu.Unlock()

	metrics.IncrementHabitMutation("create")
	log.Info("Habit created",
		zap.String("id", h.ID),
		zap.String("title", h.Title),
		zap.String("frequency", string(h.Frequency)),
		zap.Int("urgency", h.Urgency),
	)

	persistErr := s.persistEncoded(ctx, op, data, version, encErr)
	if s.events != nil {
		s.events.HabitCreated(ctx, h.Clone())
	}
	return h.Clone(), persistErr
}

// ToggleCompletion flips day (a day key or ISO instant) in the habit's
// completed set: marks it done if absent, un-marks it if present.
func (s *Store) ToggleCompletion(ctx context.Context, id, day string) (model.Habit, error) {
	return s.toggle(ctx, id, func() (string, error) {
		return s.cal.ParseKey(day)
	})
}

// ToggleCompletionOn is ToggleCompletion for the local day of t.
func (s *Store) ToggleCompletionOn(ctx context.Context, id string, t time.Time) (model.Habit, error) {
	return s.toggle(ctx, id, func() (string, error) {
		return s.cal.Key(t), nil
	})
}

func (s *Store) toggle(ctx context.Context, id string, dayKey func() (string, error)) (model.Habit, error) {
	const op = "store.ToggleCompletion"
	log := logger.WithTrace(ctx, s.logger)

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		log.Warn("Toggle on unknown habit", zap.String("id", id))
		return model.Habit{}, apperror.NotFound(op, id)
	}
	key, err := dayKey()
	if err != nil {
		s.mu.Unlock()
		return model.Habit{}, err
	}

	h := &s.habits[i]
	completed := !h.HasCompletion(key)
	if completed {
		h.CompletedDates = append(slices.Clone(h.CompletedDates), key)
	} else {
		h.CompletedDates = slices.DeleteFunc(slices.Clone(h.CompletedDates), func(d string) bool {
			return d == key
		})
	}
	// the streak cache must be refreshed in the same critical section
	h.StreakCount = streak.Compute(h.CompletedDates, s.cal.Today())
	out := h.Clone()
	data, version, encErr := s.encodeLocked()
	s.mu.Unlock()

	metrics.IncrementHabitMutation("toggle")
	log.Info("Habit completion toggled",
		zap.String("id", id),
		zap.String("date", key),
		zap.Bool("completed", completed),
		zap.Int("streak", out.StreakCount),
	)

	persistErr := s.persistEncoded(ctx, op, data, version, encErr)
	if s.events != nil {
		s.events.CompletionToggled(ctx, out.Clone(), key, completed)
	}
	return out, persistErr
}

// Delete removes the habit. Deleting an unknown id is a successful no-op.
// The only possible error is a StorageError after a real removal.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "store.Delete"
	log := logger.WithTrace(ctx, s.logger)

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		log.Debug("Delete on unknown habit ignored", zap.String("id", id))
		return nil
	}
	s.habits = slices.Delete(s.habits, i, i+1)
	data, version, encErr := s.encodeLocked()
	s.mu.Unlock()

	metrics.IncrementHabitMutation("delete")
	log.Info("Habit deleted", zap.String("id", id))

	persistErr := s.persistEncoded(ctx, op, data, version, encErr)
	if s.events != nil {
		s.events.HabitDeleted(ctx, id)
	}
	return persistErr
}

func (s *Store) Get(id string) (model.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Habit{}, apperror.NotFound("store.Get", id)
	}
	return s.habits[i].Clone(), nil
}

// Snapshot returns a copy of the collection in insertion order.
func (s *Store) Snapshot() []model.Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Habit, len(s.habits))
	for i, h := range s.habits {
		out[i] = h.Clone()
	}
	return out
}

// List returns the collection ordered for display.
func (s *Store) List() []model.Habit {
	return ordering.SortForDisplay(s.Snapshot())
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.habits)
}

func (s *Store) Calendar() *dateutil.Calendar {
	return s.cal
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.habits, func(h model.Habit) bool { return h.ID == id })
}

// encodeLocked must be called with mu held for writing.
func (s *Store) encodeLocked() ([]byte, uint64, error) {
	s.version++
	data, err := json.Marshal(s.habits)
	return data, s.version, err
}

func (s *Store) persistEncoded(ctx context.Context, op string, data []byte, version uint64, encErr error) error {
	if encErr != nil {
		metrics.IncrementStorageError(op, "encode_error")
		logger.WithTrace(ctx, s.logger).Error("Failed to encode habits", zap.String("op", op), zap.Error(encErr))
		return apperror.Storage(op, encErr)
	}
	return s.persist(ctx, op, data, version)
}

// persist writes one snapshot. Writes are serialized and a snapshot older
// than the last one written is skipped. The in-memory state is never
// rolled back on failure. The write outlives a cancelled caller.
func (s *Store) persist(ctx context.Context, op string, data []byte, version uint64) error {
	log := logger.WithTrace(ctx, s.logger)

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if version < s.savedVersion {
		log.Debug("Skipping stale snapshot",
			zap.Uint64("version", version),
			zap.Uint64("saved_version", s.savedVersion),
		)
		return nil
	}

	start := time.Now()
	err := s.repo.Save(context.WithoutCancel(ctx), data)
	if err != nil {
		kind := util.ClassifyStorageError(err)
		metrics.IncrementStorageError(op, kind)
		metrics.RecordPersistDuration(s.repo.Backend(), "save", "failed", time.Since(start))
		log.Error("Failed to persist habits",
			zap.String("op", op),
			zap.String("backend", s.repo.Backend()),
			zap.String("kind", kind),
			zap.Error(err),
		)
		return apperror.Storage(op, err)
	}

	s.savedVersion = version
	metrics.RecordPersistDuration(s.repo.Backend(), "save", "success", time.Since(start))
	log.Debug("Habits persisted",
		zap.String("backend", s.repo.Backend()),
		zap.Uint64("version", version),
		zap.Int("bytes", len(data)),
	)
	return nil
}
