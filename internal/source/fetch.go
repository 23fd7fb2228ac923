package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Fetcher acquires source files into a per-day run directory so every
// ingestion attempt keeps a local copy of what it read. Accepts http(s) URLs,
// file:// URLs, and bare filesystem paths.
type Fetcher struct {
	client  *http.Client
	baseDir string
	now     func() time.Time
}

// NewFetcher constructs a Fetcher rooted at baseDir.
func NewFetcher(baseDir string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseDir: baseDir,
		now:     time.Now,
	}
}

// Fetch places the file behind location under the run directory for subdir
// and returns its local path.
func (f *Fetcher) Fetch(ctx context.Context, location, subdir string) (string, error) {
	dir := filepath.Join(f.baseDir, "raw", f.now().UTC().Format("20060102"), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create run directory %s: %w", dir, err)
	}

	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.download(ctx, location, dir)
	case strings.HasPrefix(location, "file://"):
		return copyLocal(strings.TrimPrefix(location, "file://"), dir)
	default:
		return copyLocal(location, dir)
	}
}

func (f *Fetcher) download(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	target := filepath.Join(dir, path.Base(url))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("save %s: %w", target, err)
	}
	return target, nil
}

func copyLocal(sourcePath, dir string) (string, error) {
	in, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("locate source file %s: %w", sourcePath, err)
	}
	defer in.Close()

	target := filepath.Join(dir, filepath.Base(sourcePath))
	out, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("copy %s: %w", sourcePath, err)
	}
	return target, nil
}

// Checksum returns the hex SHA-256 of a file's contents, used for run
// provenance.
func Checksum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	digest := sha256.New()
	if _, err := io.Copy(digest, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", filePath, err)
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
