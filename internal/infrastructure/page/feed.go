package page

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"SearchScorer/internal/domain"
	"SearchScorer/internal/ports"
)

// FileFeed replays additional result fragments into a document, one file per
// interval, the way a results page grows while the user scrolls. It emits one
// mutation for the initial page and one per appended fragment, then closes.
type FileFeed struct {
	doc      *Document
	paths    []string
	interval time.Duration
	logger   *slog.Logger
	events   chan domain.Mutation
}

var _ ports.MutationSource = (*FileFeed)(nil)

// NewFileFeed wires a document with the fragment files to append later.
func NewFileFeed(doc *Document, paths []string, interval time.Duration, log *slog.Logger) *FileFeed {
	return &FileFeed{
		doc:      doc,
		paths:    paths,
		interval: interval,
		logger:   log,
		events:   make(chan domain.Mutation),
	}
}

// Mutations implements ports.MutationSource. The stream can be consumed once.
func (f *FileFeed) Mutations() <-chan domain.Mutation {
	return f.events
}

// Start begins emitting in the background until the files run out or ctx ends.
func (f *FileFeed) Start(ctx context.Context) {
	go func() {
		defer close(f.events)

		if !f.emit(ctx, domain.Mutation{}) {
			return
		}

		for _, path := range f.paths {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.interval):
			}

			added, err := f.appendFile(path)
			if err != nil {
				f.warn("skip fragment", "path", path, "error", err)
				continue
			}
			f.debug("fragment appended", "path", path, "nodes", added)

			if !f.emit(ctx, domain.Mutation{AddedNodes: added}) {
				return
			}
		}
	}()
}

func (f *FileFeed) appendFile(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open fragment: %w", err)
	}
	defer file.Close()

	return f.doc.Append(file)
}

func (f *FileFeed) emit(ctx context.Context, m domain.Mutation) bool {
	select {
	case f.events <- m:
		return true
	case <-ctx.Done():
		return false
	}
}

func (f *FileFeed) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}

func (f *FileFeed) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
