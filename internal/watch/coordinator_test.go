package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeNotifier hands out queued events one Poll at a time.
type fakeNotifier struct {
	queue []ChangeEvent
	polls int
}

func (f *fakeNotifier) Poll() (ChangeEvent, bool) {
	f.polls++
	if len(f.queue) == 0 {
		return ChangeEvent{}, false
	}
	ev := f.queue[0]
	f.queue = f.queue[1:]
	return ev, true
}

func (f *fakeNotifier) push(kinds ...Kind) {
	for _, k := range kinds {
		f.queue = append(f.queue, ChangeEvent{Path: "x.go", Kind: k})
	}
}

func TestCoordinator_BurstTriggersOnce(t *testing.T) {
	n := &fakeNotifier{}
	c := NewCoordinator(n)

	n.push(KindModify, KindModify, KindCreate, KindModify, KindModify)

	assert.True(t, c.Tick(true))
	assert.Empty(t, n.queue, "every pending event is drained")
	assert.False(t, c.Tick(true), "nothing new, no second run")
}

func TestCoordinator_Tick(t *testing.T) {
	tests := []struct {
		name  string
		watch bool
		kinds []Kind
		want  bool
	}{
		{"no events", true, nil, false},
		{"modify while watching", true, []Kind{KindModify}, true},
		{"modify while not watching", false, []Kind{KindModify}, false},
		{"create only", true, []Kind{KindCreate}, false},
		{"remove rename chmod", true, []Kind{KindRemove, KindRename, KindChmod, KindOther}, false},
		{"modify after others", true, []Kind{KindChmod, KindCreate, KindModify}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &fakeNotifier{}
			n.push(tt.kinds...)

			assert.Equal(t, tt.want, NewCoordinator(n).Tick(tt.watch))
			assert.Empty(t, n.queue)
		})
	}
}

func TestCoordinator_EventsWhileOffAreDiscarded(t *testing.T) {
	n := &fakeNotifier{}
	c := NewCoordinator(n)

	n.push(KindModify)
	assert.False(t, c.Tick(false))

	assert.False(t, c.Tick(true), "a modification seen while off does not fire later")
}

func TestCoordinator_NilNotifier(t *testing.T) {
	assert.False(t, NewCoordinator(nil).Tick(true))

	var c *Coordinator
	assert.False(t, c.Tick(true))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "modify", KindModify.String())
	assert.Equal(t, "create", KindCreate.String())
	assert.Equal(t, "remove", KindRemove.String())
	assert.Equal(t, "rename", KindRename.String())
	assert.Equal(t, "chmod", KindChmod.String())
	assert.Equal(t, "other", KindOther.String())
}
