package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Command annotations describing which view a command stands for and who may open it
const (
	RouteAnnotation = "route"
	GuardAnnotation = "guard"

	GuardAuth  = "auth"
	GuardAdmin = "admin"
)

// RedirectError is returned when a guard turned the user away
type RedirectError struct {
	Redirect Redirect
}

func (e *RedirectError) Error() string {
	switch e.Redirect.Path {
	case "/map":
		return "accès réservé aux administrateurs"
	default:
		return "vous devez être connecté pour accéder à cette page"
	}
}

// routed sets the view and guard of cmd
func routed(cmd *cobra.Command, route, guard string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[RouteAnnotation] = route
	if guard != "" {
		cmd.Annotations[GuardAnnotation] = guard
	}
	return cmd
}

// RouteFor returns the concrete path of cmd, with ":id" replaced by the first argument
func RouteFor(cmd *cobra.Command, args []string) string {
	route := cmd.Annotations[RouteAnnotation]
	if strings.Contains(route, ":id") && len(args) > 0 {
		route = strings.Replace(route, ":id", args[0], 1)
	}
	return route
}

// Enter runs the guard of cmd, if any
func (e *Env) Enter(cmd *cobra.Command, args []string) error {
	route := RouteFor(cmd, args)

	var ok bool
	switch cmd.Annotations[GuardAnnotation] {
	case GuardAuth:
		ok = e.Guards.AuthGuard(route)
	case GuardAdmin:
		ok = e.Guards.AdminGuard(route)
	default:
		return nil
	}
	if ok {
		return nil
	}

	e.Logger.Debug().Str("route", route).Str("guard", cmd.Annotations[GuardAnnotation]).Msg("Route guard refused entry")
	if last := e.Nav.Last(); last != nil {
		return &RedirectError{Redirect: *last}
	}
	return &RedirectError{}
}

// ResumeCommand finds the command standing for path and returns the command
// line that reopens it, e.g. "healthmap structures update 7".
func ResumeCommand(root *cobra.Command, path string) (string, bool) {
	var found string
	var walk func(cmd *cobra.Command) bool
	walk = func(cmd *cobra.Command) bool {
		if route := cmd.Annotations[RouteAnnotation]; route != "" {
			if id, ok := matchRoute(route, path); ok {
				found = cmd.CommandPath()
				if id != "" {
					found = fmt.Sprintf("%s %s", found, id)
				}
				return true
			}
		}
		for _, sub := range cmd.Commands() {
			if walk(sub) {
				return true
			}
		}
		return false
	}
	return found, walk(root)
}

// matchRoute matches path against a route pattern with at most one ":id" segment
func matchRoute(pattern, path string) (string, bool) {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return "", false
	}

	var id string
	for i, part := range patternParts {
		if part == ":id" {
			id = pathParts[i]
			continue
		}
		if part != pathParts[i] {
			return "", false
		}
	}
	return id, true
}
