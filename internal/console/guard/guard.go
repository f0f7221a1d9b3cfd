// Package guard gates access to the admin console's views. It owns the
// session-validity state machine: on startup it decides whether a
// persisted session is still usable, and for every navigation it decides
// whether the requested view renders or the user is sent to login.
package guard

import (
	"context"
	"errors"
	"sync"

	"github.com/zafiri/cms-core/internal/console/session"
	"github.com/zafiri/cms-core/internal/console/transport"
	"github.com/zafiri/cms-core/internal/content"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// State is the guard's position in the session lifecycle.
type State int

const (
	// StateChecking holds from startup until session validity is known.
	StateChecking State = iota
	// StateAuthenticated means protected views may render.
	StateAuthenticated
	// StateUnauthenticated means only the login view is reachable.
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Action is what a view layer should do with a resolved path.
type Action int

const (
	// ActionLoading renders a neutral loading indicator and nothing else.
	ActionLoading Action = iota
	// ActionRender renders the requested view.
	ActionRender
	// ActionRedirect navigates to Resolution.Target instead.
	ActionRedirect
)

// Resolution is the guard's verdict for one requested path.
type Resolution struct {
	Action Action
	// Target is the redirect destination when Action is ActionRedirect.
	Target string
}

// LoginPath is the only route reachable without a valid session.
const LoginPath = "/login"

// DefaultPath is where authenticated users land by default.
const DefaultPath = "/dashboard"

// Guard tracks session validity and resolves navigations against it.
//
// Safe for concurrent use. State transitions are broadcast to
// subscribers so views can react to a mid-session teardown.
type Guard struct {
	client *transport.Client
	store  *session.Store
	logger *logging.Logger

	mu     sync.Mutex
	state  State
	routes map[string]struct{}
	subs   []chan State
}

// New creates a guard in the checking state and registers it as the
// transport's session-expiry listener, so an unrecoverable 401 anywhere
// in the console drops the guard to unauthenticated.
func New(client *transport.Client, store *session.Store, logger *logging.Logger) *Guard {
	g := &Guard{
		client: client,
		store:  store,
		logger: logger,
		state:  StateChecking,
		routes: protectedRoutes(),
	}
	client.OnSessionExpired = g.sessionExpired
	return g
}

// protectedRoutes builds the known view set: the dashboard, the profile
// view, and one panel route per content collection.
func protectedRoutes() map[string]struct{} {
	routes := map[string]struct{}{
		DefaultPath: {},
		"/profile":  {},
	}
	for _, col := range content.Collections {
		routes["/"+col.Name] = struct{}{}
	}
	return routes
}

// Start determines whether the persisted session is still usable and
// settles into authenticated or unauthenticated.
//
// A stored access token is validated against the profile endpoint; an
// expired token is recovered underneath by the transport's refresh-once
// policy, so a validation failure here means recovery already failed.
// A network-level failure keeps the stored session: logging the user out
// because the backend was briefly unreachable would discard a working
// refresh token for nothing.
func (g *Guard) Start(ctx context.Context) State {
	sess := g.store.Load()
	if sess.AccessToken == "" {
		g.setState(StateUnauthenticated)
		return StateUnauthenticated
	}

	profile, err := g.client.Profile(ctx)
	switch {
	case err == nil:
		sess.User = profile
		if err := g.store.Save(sess); err != nil {
			g.logger.Warn("persisting validated profile failed", "error", err)
		}
		g.setState(StateAuthenticated)
	case errors.Is(err, transport.ErrSessionExpired):
		// Transport has already cleared the store.
		g.setState(StateUnauthenticated)
	default:
		g.logger.Warn("session validation unreachable, trusting stored session", "error", err)
		g.setState(StateAuthenticated)
	}
	return g.State()
}

// Login authenticates and, on success, moves to authenticated.
func (g *Guard) Login(ctx context.Context, username, password string) error {
	if _, err := g.client.Login(ctx, username, password); err != nil {
		return err
	}
	g.setState(StateAuthenticated)
	return nil
}

// Logout clears the session and moves to unauthenticated.
func (g *Guard) Logout() {
	if err := g.store.Clear(); err != nil {
		g.logger.Warn("session clear failed", "error", err)
	}
	g.setState(StateUnauthenticated)
}

// State returns the guard's current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Subscribe returns a channel receiving every subsequent state
// transition. Slow subscribers drop transitions rather than block the
// guard; the channel is never closed.
func (g *Guard) Subscribe() <-chan State {
	ch := make(chan State, 8)
	g.mu.Lock()
	g.subs = append(g.subs, ch)
	g.mu.Unlock()
	return ch
}

// Resolve applies the render contract to a requested path.
//
// While checking, everything shows a loading indicator. While
// unauthenticated, only the login route renders and everything else
// redirects to it. While authenticated, the login route redirects to the
// default view, known protected routes render, and unknown paths
// redirect to the default view.
func (g *Guard) Resolve(path string) Resolution {
	switch g.State() {
	case StateChecking:
		return Resolution{Action: ActionLoading}
	case StateUnauthenticated:
		if path == LoginPath {
			return Resolution{Action: ActionRender}
		}
		return Resolution{Action: ActionRedirect, Target: LoginPath}
	default:
		if path == LoginPath {
			return Resolution{Action: ActionRedirect, Target: DefaultPath}
		}
		if _, ok := g.routes[path]; ok {
			return Resolution{Action: ActionRender}
		}
		return Resolution{Action: ActionRedirect, Target: DefaultPath}
	}
}

// sessionExpired fires from the transport after an unrecoverable 401.
func (g *Guard) sessionExpired() {
	g.logger.Info("session expired, returning to login")
	g.setState(StateUnauthenticated)
}

func (g *Guard) setState(next State) {
	g.mu.Lock()
	if g.state == next {
		g.mu.Unlock()
		return
	}
	g.state = next
	subs := make([]chan State, len(g.subs))
	copy(subs, g.subs)
	g.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- next:
		default:
		}
	}
}
