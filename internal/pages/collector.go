package pages

import (
	"errors"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/postbuilder/internal/logfields"
)

// ErrEmptyPath is returned for pages without a path.
var ErrEmptyPath = errors.New("page path is empty")

// Collector is a Creator that keeps pages in creation order. Creating a
// page at an existing path replaces the earlier page in place.
type Collector struct {
	mu     sync.Mutex
	pages  []Page
	byPath map[string]int
	logger *slog.Logger
}

// NewCollector returns an empty Collector.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{byPath: make(map[string]int), logger: logger}
}

// CreatePage records page.
func (c *Collector) CreatePage(page Page) error {
	if page.Path == "" {
		return ErrEmptyPath
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, exists := c.byPath[page.Path]; exists {
		c.logger.Warn("Page path created twice; keeping the latest", logfields.Path(page.Path))
		c.pages[i] = page
		return nil
	}
	c.byPath[page.Path] = len(c.pages)
	c.pages = append(c.pages, page)
	return nil
}

// Pages returns a copy of the recorded pages.
func (c *Collector) Pages() []Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Page, len(c.pages))
	copy(out, c.pages)
	return out
}
