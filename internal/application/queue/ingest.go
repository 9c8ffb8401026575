package queue

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"tomp3/internal/domain/media"
)

// Upload is one candidate file handed to ingestion.
type Upload struct {
	Name string
	Data []byte
}

// IngestFiles appends every upload that passes the container filter and
// returns how many were accepted. Unsupported files are dropped without
// failing the call.
func (s *Service) IngestFiles(uploads []Upload) int {
	accepted := 0
	for _, up := range uploads {
		if !media.IsSupportedUploadName(up.Name) {
			s.logger.Info("upload skipped", "name", up.Name)
			continue
		}
		it := &media.Item{
			ID:        uuid.NewString(),
			Source:    media.SourceUpload,
			Name:      path.Base(strings.TrimSpace(up.Name)),
			Size:      int64(len(up.Data)),
			Status:    media.StatusReady,
			Data:      up.Data,
			CreatedAt: time.Now(),
		}
		s.append(it)
		accepted++
		s.logger.Info("file queued", "id", it.ID, "name", it.Name, "size", it.Size)
	}
	return accepted
}

// IngestURL validates an address, probes it and appends a queue item
// that carries the address only. The payload itself is fetched anew on
// every conversion attempt.
func (s *Service) IngestURL(ctx context.Context, address string) (media.View, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return media.View{}, ErrEmptyAddress
	}
	info, err := s.fetcher.Probe(ctx, address)
	if err != nil {
		return media.View{}, fmt.Errorf("%w: %v", ErrUnreachableAddress, err)
	}
	if !media.IsVideoContentType(info.ContentType) && !media.HasFileExtension(address) {
		return media.View{}, ErrNotVideo
	}
	it := &media.Item{
		ID:          uuid.NewString(),
		Source:      media.SourceURL,
		Name:        media.NameFromURL(address, time.Now()),
		Status:      media.StatusReady,
		Address:     address,
		ContentType: info.ContentType,
		CreatedAt:   time.Now(),
	}
	if info.ContentLength > 0 {
		it.Size = info.ContentLength
	}
	s.append(it)
	s.logger.Info("url queued", "id", it.ID, "name", it.Name, "address", address)
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewOf(it), nil
}
