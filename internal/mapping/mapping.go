package mapping

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"

	"github.com/cardbox/cardbox/internal/sensor"
)

// Store maps card identifiers to asset paths, backed by a single mapping
// file on disk. Each entry is one line: the identifier, whitespace, then a
// path. Blank lines and lines starting with '#' are skipped. When an
// identifier repeats, the last line wins. Relative paths are resolved
// against the configured base directory.
//
// The file is watched and reloaded with a debounce, so cards can be
// re-tagged without restarting the kiosk. A reload that fails to parse is
// logged and the previous table kept; only the initial load is fatal.
type Store struct {
	file         string
	baseDir      string
	logger       *log.Logger
	watcher      *fsnotify.Watcher
	refreshDelay time.Duration

	mu    sync.RWMutex
	table map[sensor.CardID]string

	refreshMu    sync.Mutex
	refreshTimer *time.Timer
	done         chan struct{}
	wg           sync.WaitGroup
	closeOnce    sync.Once
	closeErr     error
}

// Load reads the mapping file and starts watching it for changes.
func Load(filePath, baseDir string, debounce time.Duration, logger *log.Logger) (*Store, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.Default()
	}

	s := &Store{
		file:         filepath.Clean(filePath),
		baseDir:      baseDir,
		logger:       logger,
		watcher:      watcher,
		refreshDelay: debounce,
		done:         make(chan struct{}),
	}

	if err := s.refresh(); err != nil {
		watcher.Close()
		return nil, err
	}

	dir := filepath.Dir(s.file)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}

	if err := watcher.Add(s.file); err != nil {
		s.logger.Printf("mapping watcher could not watch file directly: %v", err)
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// Close stops the file watcher and releases resources.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.refreshMu.Lock()
		if s.refreshTimer != nil {
			s.refreshTimer.Stop()
			s.refreshTimer = nil
		}
		s.refreshMu.Unlock()

		s.closeErr = s.watcher.Close()
		s.wg.Wait()
	})
	return s.closeErr
}

// Resolve returns the asset path mapped to the given card identifier.
func (s *Store) Resolve(id sensor.CardID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.table[id]
	return path, ok
}

// Len returns the number of mapped identifiers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

func (s *Store) run() {
	defer s.wg.Done()

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(event)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Printf("mapping watcher error: %v", err)
		case <-s.done:
			return
		}
	}
}

func (s *Store) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.file {
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
		s.scheduleRefresh()
	}
}

func (s *Store) scheduleRefresh() {
	select {
	case <-s.done:
		return
	default:
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.refreshTimer != nil {
		s.refreshTimer.Stop()
	}

	s.refreshTimer = time.AfterFunc(s.refreshDelay, func() {
		if err := s.refresh(); err != nil {
			s.logger.Printf("mapping reload error, keeping previous table: %v", err)
		}

		s.refreshMu.Lock()
		if s.refreshTimer != nil {
			s.refreshTimer = nil
		}
		s.refreshMu.Unlock()
	})
}

func (s *Store) refresh() error {
	f, err := os.Open(s.file)
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := Parse(f, s.baseDir)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.table = table
	s.mu.Unlock()

	s.logger.Printf("loaded %d card mappings from %s", len(table), s.file)
	return nil
}

// Parse reads mapping entries from r. Any non-comment line lacking a
// whitespace separator between identifier and path is an error naming the
// offending line.
func Parse(r io.Reader, baseDir string) (map[sensor.CardID]string, error) {
	table := make(map[sensor.CardID]string)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sep := strings.IndexFunc(line, unicode.IsSpace)
		if sep < 0 {
			return nil, fmt.Errorf("mapping line %d: %q: missing separator between identifier and path", lineNo, line)
		}

		id := line[:sep]
		path := strings.TrimSpace(line[sep:])
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		table[sensor.CardID(id)] = path
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return table, nil
}
