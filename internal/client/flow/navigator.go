package flow

import (
	"fmt"
	"net/url"
	"sync"
)

// Navigator holds the current location. Go pushes a history entry, Replace
// swaps the current one in place so Back never returns to it.
type Navigator struct {
	mu      sync.Mutex
	baseURL string
	history []string
}

// NewNavigator starts at the landing route of baseURL.
func NewNavigator(baseURL string) *Navigator {
	n := &Navigator{baseURL: baseURL}
	n.history = []string{n.urlFor(Landing)}
	return n
}

func (n *Navigator) urlFor(s Step) string {
	r, _ := Route(s)
	return n.baseURL + r
}

// Go navigates to step s.
func (n *Navigator) Go(s Step) error {
	if !s.Valid() {
		return fmt.Errorf("unknown step %q", string(s))
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, n.urlFor(s))
	return nil
}

// Open navigates to an absolute URL, e.g. a payment provider's return link.
func (n *Navigator) Open(rawURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history = append(n.history, rawURL)
}

// Replace overwrites the current history entry.
func (n *Navigator) Replace(rawURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.history[len(n.history)-1] = rawURL
}

// Back pops the current entry. It reports false when already at the first one.
func (n *Navigator) Back() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.history) <= 1 {
		return false
	}
	n.history = n.history[:len(n.history)-1]
	return true
}

func (n *Navigator) URL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.history[len(n.history)-1]
}

// Current resolves the step of the current URL by its path. Unknown paths
// resolve to Landing.
func (n *Navigator) Current() Step {
	u, err := url.Parse(n.URL())
	if err != nil {
		return Landing
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if s, ok := StepForRoute(path); ok {
		return s
	}
	return Landing
}

func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
