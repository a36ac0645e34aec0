// Package output holds the bounded scrollback buffer for test output and the
// formatter used for plain (non-TUI) command output.
package output

import "strings"

// DefaultCapacity is the default maximum number of lines retained in the buffer.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity line store backed by a circular slice.
// When capacity is reached, new lines overwrite the oldest lines.
//
// Buffer is not safe for concurrent use; it is owned by the UI goroutine.
type Buffer struct {
	data  []string
	head  int // Index of the oldest line
	count int // Number of lines in the buffer
	cap   int // Maximum capacity
}

// NewBuffer creates a new Buffer with the specified capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		data: make([]string, capacity),
		cap:  capacity,
	}
}

// Append splits text into lines and pushes each of them, evicting the oldest
// lines once the buffer is full. A trailing line terminator does not produce
// an empty line, and "\r\n" terminators are treated as "\n".
// Returns the number of lines pushed.
func (b *Buffer) Append(text string) int {
	if text == "" {
		return 0
	}
	text = strings.TrimSuffix(text, "\n")
	n := 0
	for _, line := range strings.Split(text, "\n") {
		b.Push(strings.TrimSuffix(line, "\r"))
		n++
	}
	return n
}

// Push adds a single line, evicting the oldest if at capacity.
func (b *Buffer) Push(line string) {
	if b.count < b.cap {
		idx := (b.head + b.count) % b.cap
		b.data[idx] = line
		b.count++
		return
	}
	b.data[b.head] = line
	b.head = (b.head + 1) % b.cap
}

// Len returns the number of lines in the buffer.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the maximum capacity of the buffer.
func (b *Buffer) Cap() int {
	return b.cap
}

// Get returns the line at the specified index (0 = oldest).
// Returns empty string if index is out of range.
func (b *Buffer) Get(index int) string {
	if index < 0 || index >= b.count {
		return ""
	}
	return b.data[(b.head+index)%b.cap]
}

// Slice returns up to count lines starting at start, clamped to the lines
// available. It never copies more than count lines, so rendering a viewport
// costs the same regardless of how full the buffer is.
func (b *Buffer) Slice(start, count int) []string {
	if start < 0 {
		start = 0
	}
	if count <= 0 || start >= b.count {
		return []string{}
	}
	if start+count > b.count {
		count = b.count - start
	}

	result := make([]string, count)
	for i := range count {
		result[i] = b.data[(b.head+start+i)%b.cap]
	}
	return result
}

// Lines returns all lines ordered from oldest to newest.
func (b *Buffer) Lines() []string {
	return b.Slice(0, b.count)
}

// Clear removes all lines from the buffer.
func (b *Buffer) Clear() {
	b.head = 0
	b.count = 0
	// Clear references to allow GC
	for i := range b.data {
		b.data[i] = ""
	}
}
