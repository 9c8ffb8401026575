package queue

import (
	"context"
	"fmt"
	"path"
	"strings"

	"tomp3/internal/domain/media"
)

// workOrder is the snapshot of an item taken when its conversion is
// claimed. The pipeline works off the snapshot so a concurrent Remove
// cannot pull data out from under it.
type workOrder struct {
	id      string
	name    string
	source  media.Source
	address string
	data    []byte
}

// ConvertOne runs the full pipeline for one item and blocks until the
// item settles in done or error. Pipeline failures are recorded on the
// item itself; the returned error covers precondition failures only.
func (s *Service) ConvertOne(ctx context.Context, id string) error {
	if !s.engine.Ready() {
		return ErrEngineNotReady
	}
	order, err := s.begin(id)
	if err != nil {
		return err
	}
	s.logger.Info("conversion started", "id", order.id, "name", order.name, "source", order.source)

	data, err := s.resolve(ctx, order)
	if err != nil {
		s.logger.Warn("payload fetch failed", "id", order.id, "error", err)
		s.setError(order.id, err.Error())
		return nil
	}

	s.setConverting(order.id)
	art, err := s.transcode(ctx, order, data)
	if err != nil {
		s.logger.Warn("conversion failed", "id", order.id, "error", err)
		s.setError(order.id, engineMessage(err))
		return nil
	}
	s.setDone(order.id, art)
	s.logger.Info("conversion finished", "id", order.id, "output", art.Name, "size", len(art.Data))
	return nil
}

// ConvertAll sweeps the queue once in ingestion order, converting every
// item that is not already done. Items appended after the sweep starts
// wait for the next pass, and one item's failure never stops the sweep.
func (s *Service) ConvertAll(ctx context.Context) error {
	if !s.engine.Ready() {
		return ErrEngineNotReady
	}
	s.mu.Lock()
	if s.batchActive {
		s.mu.Unlock()
		return ErrBatchActive
	}
	s.batchActive = true
	ids := make([]string, 0, len(s.items))
	for _, it := range s.items {
		ids = append(ids, it.ID)
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.batchActive = false
		s.mu.Unlock()
	}()

	s.logger.Info("batch conversion started", "items", len(ids))
	attempted := 0
	for _, id := range ids {
		if s.skipInBatch(id) {
			continue
		}
		if err := s.ConvertOne(ctx, id); err != nil {
			s.logger.Warn("batch item skipped", "id", id, "error", err)
			continue
		}
		attempted++
	}
	s.logger.Info("batch conversion finished", "attempted", attempted)
	return nil
}

// skipInBatch reports whether a batch pass should pass over the item:
// it was removed since the sweep began, or it is already converted.
func (s *Service) skipInBatch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	return !ok || it.Status == media.StatusDone
}

// begin claims an idle item for conversion. Claiming resets the item to
// a clean fetching state; any previous artifact or error is discarded.
func (s *Service) begin(id string) (workOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.byID[id]
	if !ok {
		return workOrder{}, ErrNotFound
	}
	if it.IsProcessing() {
		return workOrder{}, ErrItemBusy
	}
	it.Status = media.StatusFetching
	it.Progress = media.ProgressStart
	it.Error = ""
	it.Artifact = nil
	return workOrder{
		id:      it.ID,
		name:    it.Name,
		source:  it.Source,
		address: it.Address,
		data:    it.Data,
	}, nil
}

// resolve materializes the item's payload. Upload payloads are owned by
// the item; URL payloads are fetched anew on every attempt.
func (s *Service) resolve(ctx context.Context, order workOrder) ([]byte, error) {
	if order.source == media.SourceUpload {
		return order.data, nil
	}
	payload, err := s.fetcher.Fetch(ctx, order.address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return payload.Data, nil
}

// transcode pushes one payload through the engine while holding the
// engine slot. Working files are keyed by item id and removed on every
// exit path.
func (s *Service) transcode(ctx context.Context, order workOrder, data []byte) (*media.Artifact, error) {
	s.engineSlot <- struct{}{}
	defer func() { <-s.engineSlot }()

	inputName := "input-" + order.id + strings.ToLower(path.Ext(order.name))
	outputName := "output-" + order.id + ".mp3"
	defer s.engine.Unlink(inputName)
	defer s.engine.Unlink(outputName)

	if err := s.engine.WriteInput(inputName, data); err != nil {
		return nil, err
	}
	if err := s.engine.ExtractAudio(ctx, inputName, outputName); err != nil {
		return nil, err
	}
	out, err := s.engine.ReadOutput(outputName)
	if err != nil {
		return nil, err
	}
	return &media.Artifact{
		Name: media.AudioOutputName(order.name),
		MIME: "audio/mpeg",
		Data: out,
	}, nil
}

func engineMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "Conversion failed"
	}
	return msg
}
