/*
Package lazyload defers fetching an image until its slot is near the viewport,
then crossfades from the blur-up placeholder to the final rendition.

State machine (one per image instance):

	Idle ──intersection──► Priming ──loaded──► Loaded ──crossfade──► Settled
	  │                       │
	  └──priority (at mount)──┘ └──hard failure──► Failed

The controller owns its viewport subscription and disposes it on the first
qualifying intersection and on unmount. There is no timeout and no retry: a
stalled fetch stays in Priming showing the placeholder. Unmounting abandons
interest in an in-flight fetch; its late result is discarded.
*/
package lazyload

import (
	"context"
	"sync"
	"time"
)

// DefaultCrossfade is the placeholder-to-final transition duration.
const DefaultCrossfade = 500 * time.Millisecond

// State is the lifecycle position of one image instance.
type State int

const (
	StateIdle State = iota
	StatePriming
	StateLoaded
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePriming:
		return "priming"
	case StateLoaded:
		return "loaded"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Entry is one viewport-intersection observation.
type Entry struct {
	Intersecting bool
	// Ratio is the visible fraction of the element, 0..1.
	Ratio float64
}

// Subscription is a live viewport observation. Dispose must be idempotent.
type Subscription interface {
	Dispose()
}

// Observer delivers intersection entries for one element. The callback may be
// invoked from any goroutine, including synchronously from Observe.
type Observer interface {
	Observe(callback func(Entry)) Subscription
}

// Loader fetches and decodes the final asset. It must call done exactly once,
// possibly from another goroutine.
type Loader interface {
	Load(ctx context.Context, url string, done func(error))
}

// Timer is a pending crossfade.
type Timer interface {
	Stop() bool
}

// Clock schedules the crossfade.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Options tune one controller.
type Options struct {
	// Priority fetches at mount without waiting for the viewport.
	Priority bool
	// Threshold is the visible ratio that triggers the fetch. 0 means any intersection.
	Threshold float64
	// Crossfade is the Loaded to Settled delay. Zero means DefaultCrossfade.
	Crossfade time.Duration
	// Clock defaults to the system clock.
	Clock Clock
	// OnChange observes every transition. It runs outside the controller lock.
	OnChange func(State)
}

// Controller drives one image instance. It is safe for concurrent use.
type Controller struct {
	src      string
	observer Observer
	loader   Loader
	options  Options

	mu           sync.Mutex
	state        State
	mounted      bool
	used         bool
	triggered    bool
	subscription Subscription
	timer        Timer
	err          error
}

// New builds an idle controller for the final rendition at src.
func New(src string, observer Observer, loader Loader, options Options) *Controller {
	if options.Crossfade <= 0 {
		options.Crossfade = DefaultCrossfade
	}
	if options.Clock == nil {
		options.Clock = systemClock{}
	}
	if options.Threshold < 0 {
		options.Threshold = 0
	}

	return &Controller{
		src:      src,
		observer: observer,
		loader:   loader,
		options:  options,
		state:    StateIdle,
	}
}

// Mount starts the instance. A priority instance fetches immediately; any
// other subscribes to the viewport observer. A controller mounts once.
func (controller *Controller) Mount(ctx context.Context) {
	controller.mu.Lock()
	if controller.used {
		controller.mu.Unlock()
		return
	}
	controller.used = true
	controller.mounted = true
	priority := controller.options.Priority
	controller.mu.Unlock()

	if priority {
		controller.prime(ctx)
		return
	}

	if controller.observer == nil {
		return
	}

	subscription := controller.observer.Observe(func(entry Entry) {
		controller.onEntry(ctx, entry)
	})

	controller.mu.Lock()
	// The callback may have fired synchronously, or Unmount may have raced us.
	dispose := controller.triggered || !controller.mounted
	if !dispose {
		controller.subscription = subscription
	}
	controller.mu.Unlock()

	if dispose && subscription != nil {
		subscription.Dispose()
	}
}

// Unmount tears down the observer and any pending crossfade. A fetch already
// in flight is not cancelled; its result is ignored.
func (controller *Controller) Unmount() {
	controller.mu.Lock()
	controller.mounted = false
	subscription := controller.subscription
	controller.subscription = nil
	timer := controller.timer
	controller.timer = nil
	controller.mu.Unlock()

	if subscription != nil {
		subscription.Dispose()
	}
	if timer != nil {
		timer.Stop()
	}
}

// State returns the current state.
func (controller *Controller) State() State {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.state
}

// Err returns the fetch failure once the instance is Failed.
func (controller *Controller) Err() error {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.err
}

// ShowPlaceholder reports whether the placeholder is still part of the render
// tree. It is dropped once Settled, and a Failed instance shows the broken
// affordance instead.
func (controller *Controller) ShowPlaceholder() bool {
	state := controller.State()
	return state != StateSettled && state != StateFailed
}

// Broken reports whether the final asset failed to load.
func (controller *Controller) Broken() bool {
	return controller.State() == StateFailed
}

func (controller *Controller) onEntry(ctx context.Context, entry Entry) {
	if !entry.Intersecting || entry.Ratio < controller.options.Threshold {
		return
	}

	controller.mu.Lock()
	if controller.triggered || !controller.mounted {
		controller.mu.Unlock()
		return
	}
	controller.triggered = true
	subscription := controller.subscription
	controller.subscription = nil
	controller.mu.Unlock()

	// Fire once: the observation ends with the first qualifying entry.
	if subscription != nil {
		subscription.Dispose()
	}

	controller.prime(ctx)
}

func (controller *Controller) prime(ctx context.Context) {
	controller.mu.Lock()
	if controller.state != StateIdle || !controller.mounted {
		controller.mu.Unlock()
		return
	}
	controller.triggered = true
	controller.state = StatePriming
	controller.mu.Unlock()

	controller.notify(StatePriming)
	controller.loader.Load(ctx, controller.src, controller.onLoaded)
}

func (controller *Controller) onLoaded(err error) {
	controller.mu.Lock()
	if controller.state != StatePriming || !controller.mounted {
		controller.mu.Unlock()
		return
	}

	if err != nil {
		controller.state = StateFailed
		controller.err = err
		controller.mu.Unlock()
		controller.notify(StateFailed)
		return
	}

	controller.state = StateLoaded
	controller.mu.Unlock()
	controller.notify(StateLoaded)

	timer := controller.options.Clock.AfterFunc(controller.options.Crossfade, controller.settle)

	controller.mu.Lock()
	if controller.mounted && controller.state == StateLoaded {
		controller.timer = timer
		timer = nil
	}
	controller.mu.Unlock()

	// Unmounted (or already settled) while scheduling.
	if timer != nil {
		timer.Stop()
	}
}

func (controller *Controller) settle() {
	controller.mu.Lock()
	if controller.state != StateLoaded || !controller.mounted {
		controller.mu.Unlock()
		return
	}
	controller.state = StateSettled
	controller.timer = nil
	controller.mu.Unlock()

	controller.notify(StateSettled)
}

func (controller *Controller) notify(state State) {
	if controller.options.OnChange != nil {
		controller.options.OnChange(state)
	}
}
