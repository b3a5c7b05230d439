package commands

import (
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/healthmap/healthmap/internal/auth"
)

// Redirect is a navigation requested by the session or a guard
type Redirect struct {
	Path  string
	Query url.Values
}

// ReturnURL is the path the user wanted before being redirected, if any
func (r Redirect) ReturnURL() string {
	return r.Query.Get(auth.ReturnURLParam)
}

// Navigator is the terminal's view switcher: there is no screen to change,
// so it records the redirect and tells the user which command leads there.
type Navigator struct {
	out io.Writer

	mu   sync.Mutex
	last *Redirect
}

func NewNavigator(out io.Writer) *Navigator {
	return &Navigator{out: out}
}

// Navigate implements auth.Navigator
func (n *Navigator) Navigate(path string, query url.Values) {
	r := Redirect{Path: path, Query: query}

	n.mu.Lock()
	n.last = &r
	n.mu.Unlock()

	if n.out == nil {
		return
	}
	switch path {
	case auth.RouteLogin:
		if r.Query.Get(auth.SignedOutParam) != "" {
			fmt.Fprintln(n.out, "→ Session fermée. Pour vous reconnecter: healthmap login")
		} else if returnURL := r.ReturnURL(); returnURL != "" {
			fmt.Fprintf(n.out, "→ Connexion requise. Lancez: healthmap login --return-url %s\n", returnURL)
		} else {
			fmt.Fprintln(n.out, "→ Connexion requise. Lancez: healthmap login")
		}
	case auth.RouteMap:
		fmt.Fprintln(n.out, "→ Retour à la carte: healthmap structures ls")
	default:
		fmt.Fprintf(n.out, "→ %s\n", path)
	}
}

// Last returns the most recent redirect, or nil
func (n *Navigator) Last() *Redirect {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return nil
	}
	r := *n.last
	return &r
}
