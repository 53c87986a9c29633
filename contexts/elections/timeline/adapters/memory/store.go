package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
	"agora/contexts/elections/timeline/ports"
)

// Store keeps stages in process and fans stage changes out to local
// subscribers. It implements every timeline port.
type Store struct {
	*Feed

	mu sync.RWMutex

	stages map[int64]entities.Stage
	nextID int64
	now    func() time.Time
}

func NewStore(seed []entities.Stage) *Store {
	store := &Store{
		Feed:   NewFeed(),
		stages: make(map[int64]entities.Stage, len(seed)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, stage := range seed {
		if stage.StageID <= 0 {
			store.nextID++
			stage.StageID = store.nextID
		}
		if stage.StageID > store.nextID {
			store.nextID = stage.StageID
		}
		store.stages[stage.StageID] = normalizeStage(stage)
	}
	return store
}

// SetNow pins the store clock; tests use it to walk through stage windows.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}

func (s *Store) ListStages(_ context.Context) ([]entities.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Stage, 0, len(s.stages))
	for _, stage := range s.stages {
		items = append(items, stage)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Precedes(items[j])
	})
	return items, nil
}

func (s *Store) GetStage(_ context.Context, stageID int64) (entities.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stage, ok := s.stages[stageID]
	if !ok {
		return entities.Stage{}, domainerrors.ErrStageNotFound
	}
	return stage, nil
}

func (s *Store) SaveStage(_ context.Context, stage entities.Stage) (entities.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stage = normalizeStage(stage)
	for _, existing := range s.stages {
		if existing.StageID != stage.StageID && stage.Category.Unique() && existing.Category == stage.Category {
			return entities.Stage{}, domainerrors.ErrCategoryConflict
		}
	}
	if stage.StageID == 0 {
		s.nextID++
		stage.StageID = s.nextID
	} else if _, ok := s.stages[stage.StageID]; !ok {
		return entities.Stage{}, domainerrors.ErrStageNotFound
	}
	s.stages[stage.StageID] = stage
	return stage, nil
}

func (s *Store) DeleteStage(_ context.Context, stageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stages[stageID]; !ok {
		return domainerrors.ErrStageNotFound
	}
	delete(s.stages, stageID)
	return nil
}

func normalizeStage(stage entities.Stage) entities.Stage {
	stage.Name = strings.TrimSpace(stage.Name)
	stage.StartTime = stage.StartTime.UTC()
	stage.EndTime = stage.EndTime.UTC()
	stage.CreatedAt = stage.CreatedAt.UTC()
	stage.UpdatedAt = stage.UpdatedAt.UTC()
	return stage
}

var _ ports.StageRepository = (*Store)(nil)
var _ ports.ChangeNotifier = (*Store)(nil)
var _ ports.ChangeSubscriber = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
