// package search binds catalog search to cursor-stack pagination
package search

import (
	"fmt"
	"sync"

	"github.com/Jakson-Almeida/shortsgrab/internal/shared"
)

// CursorTracker tracks pagination position for one active search.
//
// The provider hands back an opaque forward cursor with each page but no
// backward cursor, so the tracker keeps a stack of the cursors used to reach
// each page. The stack always starts with the empty sentinel for page one,
// and its length equals the current page number.
type CursorTracker struct {
	mu      sync.Mutex
	stack   []string
	next    string
	hasNext bool
}

// NewCursorTracker creates a tracker positioned on page one of nothing.
func NewCursorTracker() *CursorTracker {
	return &CursorTracker{stack: []string{""}}
}

// StartSearch resets the tracker for a fresh search.
func (c *CursorTracker) StartSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = []string{""}
	c.next = ""
	c.hasNext = false
}

// Current returns the cursor that fetches the current page.
func (c *CursorTracker) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stack[len(c.stack)-1]
}

// Page returns the 1-based page number.
func (c *CursorTracker) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// RecordPage stores the forward cursor returned with the current page. An
// empty cursor means the provider has no further pages.
func (c *CursorTracker) RecordPage(nextCursor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = nextCursor
	c.hasNext = nextCursor != ""
}

// NextCursor returns the stored forward cursor, or empty when the provider
// offered no further page.
func (c *CursorTracker) NextCursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// HasNext reports whether the provider offered a further page.
func (c *CursorTracker) HasNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasNext
}

// Advance moves to the next page and returns its cursor.
func (c *CursorTracker) Advance() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasNext {
		return "", fmt.Errorf("%w: no further pages", shared.ErrItemNotFound)
	}
	c.stack = append(c.stack, c.next)
	c.next = ""
	c.hasNext = false
	return c.stack[len(c.stack)-1], nil
}

// Retreat moves back one page and returns its cursor. Going back from page
// one is an error and leaves the tracker unchanged.
func (c *CursorTracker) Retreat() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) <= 1 {
		return "", fmt.Errorf("%w: already on the first page", shared.ErrItemNotFound)
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.next = ""
	c.hasNext = false
	return c.stack[len(c.stack)-1], nil
}
