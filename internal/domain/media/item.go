package media

import "time"

// Source tags where a queue item's payload comes from.
type Source string

const (
	SourceUpload Source = "upload"
	SourceURL    Source = "url"
)

// Status describes an item's position in the conversion lifecycle.
type Status string

const (
	StatusReady      Status = "ready"
	StatusFetching   Status = "fetching"
	StatusConverting Status = "converting"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Coarse phase markers reported as progress. The engine exposes no
// continuous percentage, so progress is a phase indicator.
const (
	ProgressStart = 0
	ProgressMid   = 60
	ProgressDone  = 100
)

// Artifact is the audio payload produced by a successful conversion.
// It is owned by exactly one item and discarded when the item is
// removed or reconverted.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Item is one unit of convertible work tracked by the queue.
type Item struct {
	ID        string
	Source    Source
	Name      string
	Size      int64
	Status    Status
	Progress  int
	Error     string
	CreatedAt time.Time

	// Upload origin: payload owned by the item from ingestion on.
	Data []byte

	// URL origin: resolvable address plus metadata from the ingest probe.
	// The payload is fetched lazily on every conversion attempt.
	Address     string
	ContentType string

	Artifact *Artifact
}

// IsProcessing reports whether the item has an in-flight conversion.
func (i *Item) IsProcessing() bool {
	return i.Status == StatusFetching || i.Status == StatusConverting
}

// View is the queue snapshot entry rendered to clients.
type View struct {
	ID          string `json:"id"`
	Source      Source `json:"source"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	Status      Status `json:"status"`
	Progress    int    `json:"progress"`
	Error       string `json:"error,omitempty"`
	DownloadURL string `json:"downloadUrl,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}
