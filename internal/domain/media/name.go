package media

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"
)

var allowedVideoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".wmv":  true,
	".mpeg": true,
	".mpg":  true,
	".m4v":  true,
	".3gp":  true,
	".ts":   true,
}

var extSuffixPattern = regexp.MustCompile(`\.\w+$`)

// IsSupportedVideoExt reports whether extension names a recognized video container.
func IsSupportedVideoExt(ext string) bool {
	return allowedVideoExts[strings.ToLower(strings.TrimSpace(ext))]
}

// IsSupportedUploadName reports whether a candidate filename passes the
// container filter. Candidates that fail are dropped, not rejected.
func IsSupportedUploadName(name string) bool {
	return IsSupportedVideoExt(path.Ext(strings.TrimSpace(name)))
}

// NameFromURL derives a display name from the last non-empty path segment
// of address, query string excluded. When no segment is extractable it
// synthesizes a timestamped name.
func NameFromURL(address string, now time.Time) string {
	name := ""
	if u, err := url.Parse(strings.TrimSpace(address)); err == nil {
		for _, segment := range strings.Split(u.Path, "/") {
			if segment != "" {
				name = segment
			}
		}
	}
	if name == "" {
		name = fmt.Sprintf("video-%d.mp4", now.UnixMilli())
	}
	return name
}

// HasFileExtension reports whether the address ends in a file-extension-like
// suffix once the query string is stripped.
func HasFileExtension(address string) bool {
	trimmed := strings.TrimSpace(address)
	if u, err := url.Parse(trimmed); err == nil {
		trimmed = u.Path
	}
	return extSuffixPattern.MatchString(trimmed)
}

// IsVideoContentType reports whether a declared content type names a video
// media type.
func IsVideoContentType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(value))
	}
	return strings.HasPrefix(mediaType, "video/")
}

// AudioOutputName returns name with its container extension replaced by .mp3.
func AudioOutputName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "audio"
	}
	return base + ".mp3"
}
