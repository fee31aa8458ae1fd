package snapshot

import (
	"clanwatch/internal/providers"
	"clanwatch/internal/snapshot/interfaces"
	"clanwatch/internal/structures"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var ErrNotFound = errors.New("dataset not found")

// Store is a blob store keyed by logical dataset name, e.g. "clan_logs"
// or "market/items/365".
type Store interface {
	GetRaw(name string) ([]byte, error)
	PutRaw(name string, data []byte) error
	Get(name string, out any) error
	Put(name string, v any) error
	List(prefix string) ([]string, error)
	// Files returns the on-disk paths written so far, for publishers.
	Files() ([]string, error)
	Dir() string
}

type FileStore struct {
	dir        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewFileStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) Store {
	return &FileStore{
		dir:        conf.Persistence.DataDir,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(name string) (string, error) {
	clean := path.Clean(name)
	if name == "" || clean != name || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid dataset name %q", name)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)+".json"+s.compressor.Extension()), nil
}

func (s *FileStore) GetRaw(name string) ([]byte, error) {
	fileName, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", name, err)
	}
	return out, nil
}

func (s *FileStore) Get(name string, out any) error {
	data, err := s.GetRaw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Put writes v as two-space indented JSON with a trailing newline.
func (s *FileStore) Put(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.PutRaw(name, append(data, '\n'))
}

func (s *FileStore) PutRaw(name string, data []byte) error {
	start := time.Now()
	defer func() {
		s.metrics.ObservePersistenceDuration(time.Since(start))
	}()

	fileName, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return err
	}
	payload, err := s.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("compress %s: %w", name, err)
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(payload); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	if err = os.Rename(tmpFile, fileName); err != nil {
		return err
	}
	s.logger.Debugf(providers.TypeIngest, "Wrote %s (%d bytes)", fileName, len(payload))
	return nil
}

// List returns the dataset names below prefix, sorted.
func (s *FileStore) List(prefix string) ([]string, error) {
	suffix := ".json" + s.compressor.Extension()
	root := filepath.Join(s.dir, filepath.FromSlash(prefix))
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, suffix) {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		names = append(names, strings.TrimSuffix(filepath.ToSlash(rel), suffix))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Files() ([]string, error) {
	names, err := s.List("")
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(names))
	for _, name := range names {
		fileName, err := s.path(name)
		if err != nil {
			return nil, err
		}
		files = append(files, fileName)
	}
	return files, nil
}
