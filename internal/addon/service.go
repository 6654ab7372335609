package addon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/nexo-app/runtimes/internal/binary"
	"github.com/nexo-app/runtimes/internal/config"
)

// maxIndexSize bounds the remote document.
const maxIndexSize = 1 << 20

// Service serves the add-on index, refreshing it from a remote URL and
// caching the last good copy on disk.
type Service struct {
	URL       string
	Client    *http.Client
	CachePath string
	Fs        afero.Fs
	Logger    config.Logger

	mu      sync.Mutex
	current *Index
}

// NewService creates a service with a 30 second HTTP timeout.
func NewService(url, cachePath string, logger config.Logger) *Service {
	return &Service{
		URL:       url,
		Client:    &http.Client{Timeout: 30 * time.Second},
		CachePath: cachePath,
		Fs:        afero.NewOsFs(),
		Logger:    logger,
	}
}

// Get returns the current index: the last refreshed copy, else the disk
// cache, else the built-in default. It never touches the network.
func (s *Service) Get(ctx context.Context) *Index {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current
	}
	if idx, err := s.readCache(); err == nil {
		s.current = idx
		return idx
	} else if s.CachePath != "" {
		s.logger().Debug("add-on index cache unusable, using default", "path", s.CachePath, "error", err)
	}
	return Default()
}

// Refresh fetches the remote index. On failure the current index is kept and
// returned alongside the error.
func (s *Service) Refresh(ctx context.Context) (*Index, error) {
	idx, err := s.fetch(ctx)
	if err != nil {
		s.logger().Warn("failed to refresh add-on index", "url", s.URL, "error", err)
		return s.Get(ctx), err
	}

	s.mu.Lock()
	s.current = idx
	s.mu.Unlock()

	if err := s.writeCache(idx); err != nil {
		s.logger().Warn("failed to cache add-on index", "path", s.CachePath, "error", err)
	}
	s.logger().Info("add-on index refreshed", "url", s.URL)
	return idx, nil
}

func (s *Service) fetch(ctx context.Context) (*Index, error) {
	if s.URL == "" {
		return nil, fmt.Errorf("no index URL configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", binary.DefaultUserAgent)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexSize))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return Parse(data)
}

func (s *Service) readCache() (*Index, error) {
	if s.CachePath == "" {
		return nil, fmt.Errorf("no cache path")
	}
	data, err := afero.ReadFile(s.fs(), s.CachePath)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (s *Service) writeCache(idx *Index) error {
	if s.CachePath == "" {
		return nil
	}
	data, err := idx.Marshal()
	if err != nil {
		return err
	}
	fs := s.fs()
	if err := fs.MkdirAll(filepath.Dir(s.CachePath), 0755); err != nil {
		return err
	}
	tmp := s.CachePath + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0644); err != nil {
		return err
	}
	return fs.Rename(tmp, s.CachePath)
}

func (s *Service) fs() afero.Fs {
	if s.Fs == nil {
		return afero.NewOsFs()
	}
	return s.Fs
}

func (s *Service) logger() config.Logger {
	if s.Logger == nil {
		return config.DefaultLogger()
	}
	return s.Logger
}
