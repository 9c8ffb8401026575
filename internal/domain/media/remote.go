package media

// RemoteInfo is the metadata a remote source declares during a probe.
type RemoteInfo struct {
	ContentType   string
	ContentLength int64
}

// Payload is a fully retrieved remote payload.
type Payload struct {
	Data        []byte
	ContentType string
}
