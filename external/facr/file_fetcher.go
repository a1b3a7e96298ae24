package facr

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileFetcher reads saved report pages from disk. Relative paths resolve
// against Root when it is set.
type FileFetcher struct {
	Root string
}

func (f FileFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := f.path(source)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func (f FileFetcher) path(source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("%w: source is required", ErrInvalidSource)
	}
	if strings.HasPrefix(source, "file://") {
		parsed, err := url.Parse(source)
		if err != nil {
			return "", fmt.Errorf("%w: parse source %q: %v", ErrInvalidSource, source, err)
		}
		source = parsed.Path
	}
	if f.Root != "" && !filepath.IsAbs(source) {
		source = filepath.Join(f.Root, source)
	}
	return source, nil
}
