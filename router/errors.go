package router

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRoute is returned when no route of a context matches an
	// instruction.
	ErrUnknownRoute = errors.New("router: unknown route")
	// ErrNoViewport is returned when no available viewport can host a
	// component.
	ErrNoViewport = errors.New("router: no viewport available")
	// ErrNavigationQueued is returned by Load when it is called while
	// another navigation runs. The queued navigation runs afterwards.
	ErrNavigationQueued = errors.New("router: navigation queued")
	// ErrNavigationPending is returned by Load when deferred hooks have
	// not reported yet. The outcome is published as an event.
	ErrNavigationPending = errors.New("router: navigation pending")
	// ErrRedirectLoop is returned when redirects do not settle.
	ErrRedirectLoop = errors.New("router: too many redirects")
	// ErrNotStarted is returned by navigations on a router that was not
	// started.
	ErrNotStarted = errors.New("router: not started")
	// ErrGuardsFailed marks a step that ran although the guards of its
	// transition did not pass.
	ErrGuardsFailed = errors.New("router: step ran after failed guards")
)

// UnexpectedStateError reports a step invoked on a ViewportAgent in a
// state the step is not defined for.
type UnexpectedStateError struct {
	Agent string
	Step  string
	Curr  CurrState
	Next  NextState
}

func (e *UnexpectedStateError) Error() string {
	return fmt.Sprintf("router: unexpected state %s|%s at %s of %s", e.Curr, e.Next, e.Step, e.Agent)
}

// RouteConfigError reports a malformed route configuration property.
type RouteConfigError struct {
	Property string
	Value    string
	Line     int
}

func (e *RouteConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("router: invalid route config property %q (value %q) at line %d", e.Property, e.Value, e.Line)
	}
	return fmt.Sprintf("router: invalid route config property %q (value %q)", e.Property, e.Value)
}

// NavigationError wraps whatever failed a navigation.
type NavigationError struct {
	ID           uint64
	Instructions string
	Err          error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("router: navigation %d to %q failed: %v", e.ID, e.Instructions, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// URLParseError reports a malformed instruction string.
type URLParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *URLParseError) Error() string {
	return fmt.Sprintf("router: %s at %d in %q", e.Msg, e.Pos, e.Input)
}
