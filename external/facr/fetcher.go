package facr

import (
	"context"
	"fmt"
	"strings"
)

type fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// SourceFetcher routes a source to the web client or the file system.
//
// http(s) URLs always go to the web client. Other sources are read from disk
// when a file fetcher is configured. Without one, sources starting with "/"
// resolve against the client's base URL and everything else is rejected.
type SourceFetcher struct {
	web   fetcher
	files fetcher
}

func NewSourceFetcher(web *Client, files FileFetcher) *SourceFetcher {
	s := &SourceFetcher{files: files}
	if web != nil {
		s.web = web
	}
	return s
}

// NewWebFetcher returns a SourceFetcher that never reads local files. It is
// the fetcher for sources supplied by remote callers.
func NewWebFetcher(web *Client) *SourceFetcher {
	s := &SourceFetcher{}
	if web != nil {
		s.web = web
	}
	return s
}

func (s *SourceFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	switch {
	case IsWebSource(source):
		return s.fetchWeb(ctx, source)
	case s.files != nil:
		return s.files.Fetch(ctx, source)
	case strings.HasPrefix(strings.TrimSpace(source), "/"):
		return s.fetchWeb(ctx, source)
	default:
		return nil, fmt.Errorf("%w: %q is not a web address", ErrInvalidSource, source)
	}
}

func (s *SourceFetcher) fetchWeb(ctx context.Context, source string) ([]byte, error) {
	if s.web == nil {
		return nil, fmt.Errorf("%w: no web client configured for %q", ErrInvalidSource, source)
	}
	return s.web.Fetch(ctx, source)
}

// IsWebSource reports whether source is an http or https URL.
func IsWebSource(source string) bool {
	lower := strings.ToLower(strings.TrimSpace(source))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
