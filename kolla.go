// Package kolla is a reactive retained-mode UI engine that renders
// component trees into pluggable renderer backends. The engine keeps a
// fragment tree between the components and the native objects and applies
// the smallest set of native mutations for every reactive change.
package kolla

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/fork-tongue/kolla/fragment"
	"github.com/fork-tongue/kolla/reactive"
	"github.com/fork-tongue/kolla/renderer"
)

// EventLoop selects how reactive flushes are driven.
type EventLoop int

const (
	// EventLoopSync flushes watcher queues synchronously on every state
	// change.
	EventLoopSync EventLoop = iota
	// EventLoopDeferred batches watcher runs until ProcessEvents is
	// called, typically from a host event loop's idle phase.
	EventLoopDeferred
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger used as the side channel for guarded
// renderer failures.
func WithLogger(log logr.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithEventLoop sets the flush strategy.
func WithEventLoop(loop EventLoop) Option {
	return func(a *App) { a.loop = loop }
}

// App owns one mounted root component tree per Render call.
type App struct {
	rend renderer.Renderer
	log  logr.Logger
	loop EventLoop

	root   *fragment.Fragment
	target any

	flushPending bool
}

// New creates an App for the given renderer backend.
func New(rend renderer.Renderer, opts ...Option) (*App, error) {
	if rend == nil {
		return nil, errors.New("a renderer backend is required")
	}
	a := &App{rend: rend, log: logr.Discard()}
	for _, opt := range opts {
		opt(a)
	}
	if a.loop == EventLoopDeferred {
		reactive.Scheduler().RegisterRequestFlush(a.requestFlush)
	} else {
		reactive.Scheduler().RegisterRequestFlush(nil)
	}
	return a, nil
}

func (a *App) requestFlush() {
	a.flushPending = true
}

// ProcessEvents runs the batched watcher queue. Only meaningful with
// EventLoopDeferred; a no-op otherwise.
func (a *App) ProcessEvents() {
	if !a.flushPending {
		return
	}
	a.flushPending = false
	reactive.Scheduler().Flush()
}

// Render mounts the root component into target with the given initial
// props. A panic anywhere during the mount (a duplicate list key, a user
// component blowing up) unwinds the partial tree so the target is left
// untouched, and surfaces as an error.
func (a *App) Render(ctor fragment.Constructor, target any, props map[string]any) (err error) {
	if a.root != nil {
		return errors.New("app already has a mounted root, call Unmount first")
	}
	root := fragment.NewComponent(a.rend, ctor, nil)
	root.SetLogger(a.log)
	for key, value := range props {
		root.SetAttribute(key, value)
	}

	defer func() {
		if rec := recover(); rec != nil {
			func() {
				defer func() { recover() }()
				root.Unmount(true)
			}()
			err = errors.Errorf("render failed: %v", rec)
		}
	}()

	root.Mount(target, nil)
	a.root = root
	a.target = target
	return nil
}

// Unmount tears down the mounted root tree.
func (a *App) Unmount() {
	if a.root == nil {
		return
	}
	a.root.Unmount(true)
	a.root = nil
	a.target = nil
}

// Root returns the mounted root fragment, or nil.
func (a *App) Root() *fragment.Fragment {
	return a.root
}
