package watch

import (
	"github.com/rs/zerolog"

	"github.com/flashingpumpkin/testpilot/internal/logging"
)

// Coordinator turns pending change events into at most one rerun per tick.
type Coordinator struct {
	notifier ChangeNotifier
	logger   zerolog.Logger
}

// NewCoordinator creates a Coordinator reading from n. A nil notifier never triggers.
func NewCoordinator(n ChangeNotifier) *Coordinator {
	return &Coordinator{
		notifier: n,
		logger:   logging.Component("watch"),
	}
}

// Tick drains every pending event and reports whether the selected test
// should be rerun: watch mode is on and at least one event was a content
// modification. Events drained while watch mode is off are discarded.
func (c *Coordinator) Tick(watchEnabled bool) bool {
	if c == nil || c.notifier == nil {
		return false
	}

	trigger := false
	drained := 0
	for {
		ev, ok := c.notifier.Poll()
		if !ok {
			break
		}
		drained++
		if watchEnabled && ev.Kind == KindModify {
			trigger = true
		}
	}

	if trigger {
		c.logger.Debug().Int("events", drained).Msg("change detected, rerunning")
	}
	return trigger
}
