package usecase

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadManifest returns one source per non-blank line. Lines starting with
// "#" are comments.
func ReadManifest(r io.Reader) ([]string, error) {
	var sources []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return sources, nil
}

func ReadManifestFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableManifest, err)
	}
	defer f.Close()

	return ReadManifest(f)
}
