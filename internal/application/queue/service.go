package queue

import (
	"errors"
	"log/slog"
	"sync"

	"tomp3/internal/domain/media"
)

var (
	ErrEmptyAddress       = errors.New("empty address")
	ErrUnreachableAddress = errors.New("address unreachable")
	ErrNotVideo           = errors.New("address does not look like a video")
	ErrDownloadFailed     = errors.New("download failed")
	ErrNotFound           = errors.New("item not found")
	ErrItemBusy           = errors.New("conversion already in progress")
	ErrBatchActive        = errors.New("batch conversion already running")
	ErrEngineNotReady     = errors.New("engine not ready")
)

// Service owns the conversion queue and drives items through their
// lifecycle. All state lives in memory and dies with the process.
type Service struct {
	engine  Engine
	fetcher Fetcher
	logger  *slog.Logger

	mu          sync.Mutex
	items       []*media.Item
	byID        map[string]*media.Item
	batchActive bool

	// engineSlot serializes access to the non-reentrant engine.
	engineSlot chan struct{}
}

// NewService wires the queue against its engine and fetcher ports.
func NewService(engine Engine, fetcher Fetcher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:     engine,
		fetcher:    fetcher,
		logger:     logger,
		byID:       make(map[string]*media.Item),
		engineSlot: make(chan struct{}, 1),
	}
}

// Items returns the queue snapshot in ingestion order.
func (s *Service) Items() []media.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	views := make([]media.View, 0, len(s.items))
	for _, it := range s.items {
		views = append(views, viewOf(it))
	}
	return views
}

// Len reports how many items the queue currently holds.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// BatchActive reports whether a convert-all pass is running.
func (s *Service) BatchActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batchActive
}

// Item returns the current snapshot of a single item.
func (s *Service) Item(id string) (media.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return media.View{}, ErrNotFound
	}
	return viewOf(it), nil
}

// Artifact returns the converted audio for a done item.
func (s *Service) Artifact(id string) (media.Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok || it.Artifact == nil {
		return media.Artifact{}, ErrNotFound
	}
	return *it.Artifact, nil
}

// Remove drops an item from the queue and releases its artifact. An
// in-flight conversion for the item keeps running against its own copy
// of the payload; its transitions land nowhere once the item is gone.
func (s *Service) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	for idx := range s.items {
		if s.items[idx].ID == id {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
			break
		}
	}
	it.Artifact = nil
	s.logger.Info("item removed", "id", id, "name", it.Name)
	return nil
}

func (s *Service) append(it *media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, it)
	s.byID[it.ID] = it
}

// setConverting, setDone and setError look the item up again on every
// call so that transitions for a removed item fall on the floor.
func (s *Service) setConverting(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.byID[id]; ok {
		it.Status = media.StatusConverting
		it.Progress = media.ProgressMid
	}
}

func (s *Service) setDone(id string, art *media.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.byID[id]; ok {
		it.Status = media.StatusDone
		it.Progress = media.ProgressDone
		it.Error = ""
		it.Artifact = art
	}
}

func (s *Service) setError(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.byID[id]; ok {
		it.Status = media.StatusError
		it.Progress = media.ProgressStart
		it.Error = message
		it.Artifact = nil
	}
}

func viewOf(it *media.Item) media.View {
	v := media.View{
		ID:        it.ID,
		Source:    it.Source,
		Name:      it.Name,
		Size:      it.Size,
		Status:    it.Status,
		Progress:  it.Progress,
		Error:     it.Error,
		CreatedAt: it.CreatedAt.Unix(),
	}
	if it.Status == media.StatusDone && it.Artifact != nil {
		v.DownloadURL = "/api/download/" + it.ID
	}
	return v
}
