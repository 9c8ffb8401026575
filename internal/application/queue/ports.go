package queue

import (
	"context"

	"tomp3/internal/domain/media"
)

// Engine is an application port for the transcoding engine. The engine is
// a process-wide singleton exposing an internal writable namespace, so
// callers must never run two extractions against it concurrently.
type Engine interface {
	// Ready reports whether the one-shot boot sequence has completed.
	Ready() bool
	// Status returns a human-readable boot/ready/failure description.
	Status() string
	WriteInput(name string, data []byte) error
	// ExtractAudio converts the named input into an audio-only output
	// under the engine's fixed encoding parameters.
	ExtractAudio(ctx context.Context, inputName, outputName string) error
	ReadOutput(name string) ([]byte, error)
	// Unlink removes a working file, best-effort.
	Unlink(name string)
}

// Fetcher is an application port for the network layer.
type Fetcher interface {
	// Probe performs a metadata-only request against address.
	Probe(ctx context.Context, address string) (media.RemoteInfo, error)
	// Fetch retrieves the complete payload behind address.
	Fetch(ctx context.Context, address string) (media.Payload, error)
}
