// Package crops serves the crop reference catalog, a three-level
// hierarchy of chapters, crops and varieties. The catalog is a YAML
// file reloaded on change, so agronomy updates do not need a redeploy.
package crops

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/iscander13/back/pkg/observability"
)

// Chapter groups related crops under a reference heading.
type Chapter struct {
	Title string `yaml:"title" json:"title"`
	Crops []Crop `yaml:"crops" json:"crops"`
}

// Crop is one reference entry with its known varieties.
type Crop struct {
	Name      string   `yaml:"name" json:"name"`
	Varieties []string `yaml:"varieties,omitempty" json:"varieties,omitempty"`
}

// Catalog exposes the crop reference tree. Chapters are returned in
// file order.
type Catalog interface {
	Chapters() []Chapter
}

type catalogFile struct {
	Chapters []Chapter `yaml:"chapters"`
}

// FileCatalog is a YAML-file-backed catalog with hot reload.
type FileCatalog struct {
	path string
	log  *observability.Logger

	mu       sync.RWMutex
	chapters []Chapter

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileCatalog loads the catalog from path. The initial load must
// succeed; later reload failures keep the last good catalog.
func NewFileCatalog(path string, log *observability.Logger) (*FileCatalog, error) {
	c := &FileCatalog{
		path: path,
		log:  log,
		done: make(chan struct{}),
	}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Chapters returns the current catalog tree.
func (c *FileCatalog) Chapters() []Chapter {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Chapter, len(c.chapters))
	copy(out, c.chapters)
	return out
}

func (c *FileCatalog) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read crop catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse crop catalog: %w", err)
	}
	for _, chapter := range file.Chapters {
		if chapter.Title == "" {
			return fmt.Errorf("crop catalog chapter with empty title")
		}
		for _, crop := range chapter.Crops {
			if crop.Name == "" {
				return fmt.Errorf("crop catalog entry with empty name in chapter %q", chapter.Title)
			}
		}
	}

	c.mu.Lock()
	c.chapters = file.Chapters
	c.mu.Unlock()
	return nil
}

// Watch starts reloading the catalog when the file changes. Call Close
// to stop.
func (c *FileCatalog) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(c.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch crop catalog: %w", err)
	}
	c.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := c.reload(); err != nil {
					c.log.WithError(err).Warn("crop catalog reload failed, keeping previous catalog")
					continue
				}
				c.log.WithField("path", c.path).Info("crop catalog reloaded")
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.WithError(err).Warn("crop catalog watcher error")
			case <-c.done:
				return
			}
		}
	}()
	return nil
}

// Close stops the file watcher.
func (c *FileCatalog) Close() error {
	close(c.done)
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
