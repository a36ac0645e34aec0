// Package watch reports file changes below a root and decides when watch
// mode should rerun the selected test.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/rs/zerolog"

	"github.com/flashingpumpkin/testpilot/internal/discovery"
	"github.com/flashingpumpkin/testpilot/internal/logging"
)

// DefaultQueueSize is the number of events an FSNotifier holds before dropping new ones.
const DefaultQueueSize = 1024

// Kind classifies a change.
type Kind int

// Change kinds. Only KindModify triggers a watch run.
const (
	KindOther Kind = iota
	KindModify
	KindCreate
	KindRemove
	KindRename
	KindChmod
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindModify:
		return "modify"
	case KindCreate:
		return "create"
	case KindRemove:
		return "remove"
	case KindRename:
		return "rename"
	case KindChmod:
		return "chmod"
	default:
		return "other"
	}
}

// ChangeEvent is one change below the watched root.
type ChangeEvent struct {
	Path string
	Kind Kind
}

// ChangeNotifier delivers change events.
type ChangeNotifier interface {
	// Poll returns the next pending event without blocking.
	// The boolean is false when no event is pending.
	Poll() (ChangeEvent, bool)
}

// Options configures an FSNotifier.
type Options struct {
	// IncludeHidden watches dot-directories.
	IncludeHidden bool

	// Exclude holds doublestar patterns, relative to the root, that are not watched.
	Exclude []string

	// QueueSize bounds the number of pending events (default: DefaultQueueSize).
	QueueSize int
}

// FSNotifier watches a directory tree with fsnotify. Directories are
// registered recursively, skipping hidden, excluded and git-ignored ones, and
// directories created later are added as they appear.
type FSNotifier struct {
	root    string
	watcher *fsnotify.Watcher
	filter  *discovery.Filter // only used by the loop goroutine after start
	events  chan ChangeEvent
	done    chan struct{}
	stopped chan struct{}
	logger  zerolog.Logger
}

var _ ChangeNotifier = (*FSNotifier)(nil)

// NewFSNotifier starts watching root.
func NewFSNotifier(root string, opts Options) (*FSNotifier, error) {
	filter, err := discovery.NewFilter(opts.IncludeHidden, opts.Exclude)
	if err != nil {
		return nil, err
	}
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("reading ignore files under %s: %w", root, err)
	}
	filter.AddPatterns(patterns)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	n := &FSNotifier{
		root:    root,
		watcher: fsw,
		filter:  filter,
		events:  make(chan ChangeEvent, size),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logging.Component("watch"),
	}

	if err := n.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go n.loop()

	return n, nil
}

// Poll returns the next pending event without blocking.
func (n *FSNotifier) Poll() (ChangeEvent, bool) {
	select {
	case ev := <-n.events:
		return ev, true
	default:
		return ChangeEvent{}, false
	}
}

// WatchList returns the directories currently registered.
func (n *FSNotifier) WatchList() []string {
	return n.watcher.WatchList()
}

// Close stops watching and releases resources.
func (n *FSNotifier) Close() error {
	select {
	case <-n.done:
		return nil
	default:
	}
	close(n.done)
	err := n.watcher.Close()
	<-n.stopped
	return err
}

// addTree registers dir and every directory below it that is not filtered out.
func (n *FSNotifier) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			n.logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable directory")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != n.root && n.filter.Skip(n.rel(path), true) {
			return filepath.SkipDir
		}
		if err := n.watcher.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("watching directory %s: %w", path, err)
			}
			n.logger.Warn().Err(err).Str("path", path).Msg("failed to watch directory")
		}
		return nil
	})
}

func (n *FSNotifier) rel(path string) string {
	rel, err := filepath.Rel(n.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// loop translates fsnotify events until Close.
func (n *FSNotifier) loop() {
	defer close(n.stopped)

	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			n.handle(event)

		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn().Err(err).Msg("watcher error")

		case <-n.done:
			return
		}
	}
}

func (n *FSNotifier) handle(event fsnotify.Event) {
	isDir, isFile := false, false
	if info, err := os.Lstat(event.Name); err == nil {
		isDir = info.IsDir()
		isFile = info.Mode().IsRegular()
	}

	if n.filter.Skip(n.rel(event.Name), isDir) {
		return
	}

	if isDir && event.Has(fsnotify.Create) {
		if err := n.addTree(event.Name); err != nil {
			n.logger.Warn().Err(err).Str("path", event.Name).Msg("failed to watch new directory")
		}
	}

	ev := ChangeEvent{Path: event.Name, Kind: kindOf(event.Op)}
	// Editors that save by renaming a temporary file over the original only
	// produce a create or rename for the destination.
	if isFile && (ev.Kind == KindCreate || ev.Kind == KindRename) {
		ev.Kind = KindModify
	}

	// Non-blocking send - drop if the queue is full
	select {
	case n.events <- ev:
	default:
		n.logger.Debug().Str("path", ev.Path).Stringer("kind", ev.Kind).Msg("event queue full, dropping event")
	}
}

// kindOf maps an fsnotify operation to a Kind. A write wins over the other
// operations it may be combined with.
func kindOf(op fsnotify.Op) Kind {
	switch {
	case op.Has(fsnotify.Write):
		return KindModify
	case op.Has(fsnotify.Create):
		return KindCreate
	case op.Has(fsnotify.Remove):
		return KindRemove
	case op.Has(fsnotify.Rename):
		return KindRename
	case op.Has(fsnotify.Chmod):
		return KindChmod
	default:
		return KindOther
	}
}
