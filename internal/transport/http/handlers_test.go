package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tomp3/internal/application/queue"
	"tomp3/internal/domain/media"
)

type stubQueue struct {
	items       []media.View
	batchActive bool

	ingestView media.View
	ingestErr  error

	convertErr    error
	convertAllErr error
	removeErr     error

	artifact    media.Artifact
	artifactErr error

	lastAddress string
	lastConvert string
	uploads     []queue.Upload
}

func (s *stubQueue) Items() []media.View { return s.items }

func (s *stubQueue) Item(id string) (media.View, error) {
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return media.View{}, queue.ErrNotFound
}

func (s *stubQueue) BatchActive() bool { return s.batchActive }

func (s *stubQueue) IngestFiles(uploads []queue.Upload) int {
	s.uploads = uploads
	return len(uploads)
}

func (s *stubQueue) IngestURL(_ context.Context, address string) (media.View, error) {
	s.lastAddress = address
	if strings.TrimSpace(address) == "" {
		return media.View{}, queue.ErrEmptyAddress
	}
	return s.ingestView, s.ingestErr
}

func (s *stubQueue) ConvertOne(_ context.Context, id string) error {
	s.lastConvert = id
	return s.convertErr
}

func (s *stubQueue) ConvertAll(context.Context) error { return s.convertAllErr }

func (s *stubQueue) Remove(string) error { return s.removeErr }

func (s *stubQueue) Artifact(string) (media.Artifact, error) {
	return s.artifact, s.artifactErr
}

type stubEngine struct {
	ready  bool
	status string
}

func (e *stubEngine) Ready() bool    { return e.ready }
func (e *stubEngine) Status() string { return e.status }

func newTestRouter(q *stubQueue, e *stubEngine) http.Handler {
	return NewRouter(NewHandler(q, e, 64<<20))
}

func TestQueue_ReturnsSnapshotEnvelope(t *testing.T) {
	q := &stubQueue{
		items:       []media.View{{ID: "a1", Name: "clip.mp4", Status: media.StatusReady}},
		batchActive: true,
	}
	router := newTestRouter(q, &stubEngine{ready: true, status: "ready"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/queue", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Items       []media.View `json:"items"`
		BatchActive bool         `json:"batchActive"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "a1" {
		t.Fatalf("unexpected items %v", resp.Items)
	}
	if !resp.BatchActive {
		t.Fatalf("expected batchActive flag")
	}
}

func TestAddURL_EmptyAddressAnswersNoContent(t *testing.T) {
	router := newTestRouter(&stubQueue{}, &stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/queue/url", strings.NewReader(`{"url":"  "}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestAddURL_RejectionBecomesBadRequest(t *testing.T) {
	q := &stubQueue{ingestErr: queue.ErrNotVideo}
	router := newTestRouter(q, &stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/queue/url", strings.NewReader(`{"url":"http://example.com/page"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "video") {
		t.Fatalf("expected rejection reason, got %q", rec.Body.String())
	}
}

func TestAddURL_ReturnsQueuedItem(t *testing.T) {
	q := &stubQueue{ingestView: media.View{ID: "u1", Name: "clip.mp4", Status: media.StatusReady}}
	router := newTestRouter(q, &stubEngine{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/queue/url", strings.NewReader(`{"url":"http://example.com/clip.mp4"}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if q.lastAddress != "http://example.com/clip.mp4" {
		t.Fatalf("unexpected address %q", q.lastAddress)
	}
	var view media.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil || view.ID != "u1" {
		t.Fatalf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}

func TestUploadFiles_PassesMultipartFiles(t *testing.T) {
	q := &stubQueue{}
	router := newTestRouter(q, &stubEngine{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, payload := range map[string]string{
		"clip.mp4": "aaa",
		"talk.mkv": "bbbb",
	} {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("form build failed: %v", err)
		}
		_, _ = part.Write([]byte(payload))
	}
	_ = mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/queue/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.uploads) != 2 {
		t.Fatalf("expected 2 uploads handed over, got %d", len(q.uploads))
	}
	if !strings.Contains(rec.Body.String(), `"accepted":2`) {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestUploadFiles_RequiresFiles(t *testing.T) {
	router := newTestRouter(&stubQueue{}, &stubEngine{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "no files here")
	_ = mw.Close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/queue/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestConvert_MapsPreconditionErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{queue.ErrNotFound, http.StatusNotFound},
		{queue.ErrItemBusy, http.StatusConflict},
		{queue.ErrEngineNotReady, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		router := newTestRouter(&stubQueue{convertErr: tc.err}, &stubEngine{status: "starting"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/convert/x1", nil))
		if rec.Code != tc.code {
			t.Fatalf("expected %d for %v, got %d", tc.code, tc.err, rec.Code)
		}
	}
}

func TestConvert_ReturnsSettledItem(t *testing.T) {
	q := &stubQueue{items: []media.View{{ID: "x1", Status: media.StatusDone, Progress: 100}}}
	router := newTestRouter(q, &stubEngine{ready: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/convert/x1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if q.lastConvert != "x1" {
		t.Fatalf("expected conversion of x1, got %q", q.lastConvert)
	}
	var view media.View
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil || view.Status != media.StatusDone {
		t.Fatalf("unexpected body %q (%v)", rec.Body.String(), err)
	}
}

func TestConvertAll_MapsPreconditionErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{queue.ErrBatchActive, http.StatusConflict},
		{queue.ErrEngineNotReady, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		router := newTestRouter(&stubQueue{convertAllErr: tc.err}, &stubEngine{status: "starting"})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/convert-all", nil))
		if rec.Code != tc.code {
			t.Fatalf("expected %d for %v, got %d", tc.code, tc.err, rec.Code)
		}
	}
}

func TestRemove_MapsMissingItem(t *testing.T) {
	router := newTestRouter(&stubQueue{removeErr: queue.ErrNotFound}, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/remove/x1", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDownload_ServesAttachment(t *testing.T) {
	q := &stubQueue{artifact: media.Artifact{
		Name: "clip.mp3",
		MIME: "audio/mpeg",
		Data: []byte("mp3-bytes"),
	}}
	router := newTestRouter(q, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/download/x1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") || !strings.Contains(got, "clip.mp3") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Body.String() != "mp3-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestDownload_MissingArtifact(t *testing.T) {
	q := &stubQueue{artifactErr: queue.ErrNotFound}
	router := newTestRouter(q, &stubEngine{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/download/x1", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEngine_ReportsStatus(t *testing.T) {
	router := newTestRouter(&stubQueue{}, &stubEngine{ready: false, status: "ffmpeg not found in PATH"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/engine", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Ready  bool   `json:"ready"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.Ready || resp.Status != "ffmpeg not found in PATH" {
		t.Fatalf("unexpected engine report %+v", resp)
	}
}
