package auth

import (
	"net/url"
	"os"
	"strconv"
	"strings"
)

// DefaultScope derives the session scope for an API origin: the origin's
// host plus the parent process id and, where the OS exposes it, that
// process's start time. A recycled pid therefore never inherits a session.
func DefaultScope(apiURL string) string {
	host := apiURL
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return scopeFor(host, os.Getppid())
}

func scopeFor(host string, pid int) string {
	scope := host + "#" + strconv.Itoa(pid)
	if start, alive := processIdentity(pid); alive && start != "" {
		scope += "@" + start
	}
	return scope
}

// scopeAlive reports whether the process owning scope still runs. Scopes
// not derived by DefaultScope (HEALTHMAP_SESSION) are always alive.
func scopeAlive(scope string) bool {
	i := strings.LastIndex(scope, "#")
	if i < 0 {
		return true
	}
	owner, wantStart, _ := strings.Cut(scope[i+1:], "@")
	pid, err := strconv.Atoi(owner)
	if err != nil || pid <= 0 {
		return true
	}

	start, alive := processIdentity(pid)
	if !alive {
		return false
	}
	return wantStart == "" || start == "" || start == wantStart
}
