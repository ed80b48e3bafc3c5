// Package shutdown turns interrupt signals into context cancellation so an
// interrupted scan can still score and report what it collected.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Callback is a function called during shutdown.
type Callback func(ctx context.Context) error

// Config holds shutdown configuration.
type Config struct {
	// Timeout bounds the callbacks run by Shutdown.
	Timeout time.Duration
	Signals []os.Signal
	// OnInterrupt runs when the first signal arrives.
	OnInterrupt func(sig os.Signal)
	// OnForce runs when a second signal arrives before Shutdown finished.
	// The default exits with status 130.
	OnForce func()
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// Handler cancels its context on the first signal and runs the registered
// callbacks in reverse order on Shutdown.
type Handler struct {
	mu            sync.Mutex
	callbacks     []Callback
	callbackNames []string

	interrupted    atomic.Bool
	isShuttingDown atomic.Bool
	timeout        time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	sigChan chan os.Signal
	stop    chan struct{}
	once    sync.Once

	onInterrupt func(os.Signal)
	onForce     func()
}

// New creates a handler whose context derives from parent and starts
// listening for cfg.Signals.
func New(parent context.Context, cfg Config) *Handler {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = def.Signals
	}
	if cfg.OnForce == nil {
		cfg.OnForce = func() { os.Exit(130) }
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		timeout:     cfg.Timeout,
		ctx:         ctx,
		cancel:      cancel,
		sigChan:     make(chan os.Signal, 2),
		stop:        make(chan struct{}),
		onInterrupt: cfg.OnInterrupt,
		onForce:     cfg.OnForce,
	}

	signal.Notify(h.sigChan, cfg.Signals...)
	go h.listen()
	return h
}

func (h *Handler) listen() {
	for {
		select {
		case <-h.stop:
			return
		case sig := <-h.sigChan:
			if h.interrupted.CompareAndSwap(false, true) {
				if h.onInterrupt != nil {
					h.onInterrupt(sig)
				}
				h.cancel()
				continue
			}
			h.onForce()
			return
		}
	}
}

// Context is cancelled on the first signal.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted reports whether a signal was received.
func (h *Handler) Interrupted() bool {
	return h.interrupted.Load()
}

// IsShuttingDown returns whether Shutdown has started.
func (h *Handler) IsShuttingDown() bool {
	return h.isShuttingDown.Load()
}

// Register registers a shutdown callback with a name.
func (h *Handler) Register(name string, callback Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.callbacks = append(h.callbacks, callback)
	h.callbackNames = append(h.callbackNames, name)
}

// RegisterFunc registers a simple cleanup function.
func (h *Handler) RegisterFunc(name string, fn func()) {
	h.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// Trigger delivers sig as if the process had received it.
func (h *Handler) Trigger(sig os.Signal) {
	select {
	case h.sigChan <- sig:
	default:
	}
}

// Shutdown stops listening, cancels the context and runs the callbacks in
// reverse registration order. Only the first call does any work.
func (h *Handler) Shutdown() []error {
	if !h.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	h.once.Do(func() {
		signal.Stop(h.sigChan)
		close(h.stop)
	})
	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	callbacks := append([]Callback(nil), h.callbacks...)
	names := append([]string(nil), h.callbackNames...)
	h.mu.Unlock()

	var errs []error
	for i := len(callbacks) - 1; i >= 0; i-- {
		if err := executeCallback(ctx, names[i], callbacks[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func executeCallback(ctx context.Context, name string, callback Callback) error {
	done := make(chan error, 1)

	go func() {
		done <- callback(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &TimeoutError{CallbackName: name}
	}
}

// TimeoutError is returned when a callback times out.
type TimeoutError struct {
	CallbackName string
}

func (e *TimeoutError) Error() string {
	return "shutdown callback timed out: " + e.CallbackName
}
