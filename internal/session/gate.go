package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/pkg/errors"
)

// Gate derives the authenticated state from the Store. It never caches the
// answer: another process may clear or replace the token at any time, so
// every check re-reads the credential.
type Gate struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger

	mu   sync.Mutex
	subs []chan struct{}
}

func NewGate(store Store) *Gate {
	return &Gate{
		store: store,
		now:   time.Now,
		log:   logger.Get(),
	}
}

// IsAuthenticated reports whether a structurally valid, unexpired credential
// is present. A storage failure or a malformed token means "not logged in";
// it never panics and never returns an error.
func (g *Gate) IsAuthenticated() bool {
	token, err := g.store.Get()
	if err != nil {
		g.log.Warn().Err(err).Msg("Token read failed, treating session as logged out")
		return false
	}
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		g.log.Debug().Err(err).Msg("Stored token is not a well-formed JWT")
		return false
	}

	// The backend is the authority on the token; only the exp claim is
	// inspected here, and a non-numeric exp is ignored like a missing one.
	if exp, ok := claims["exp"].(float64); ok {
		return exp > float64(g.now().Unix())
	}
	return true
}

// Require guards a protected operation, recording what the operator attempted
// so the failure message can send them back to it after login.
func (g *Gate) Require(action string) error {
	if g.IsAuthenticated() {
		return nil
	}
	return &errors.NotAuthenticatedError{Attempted: action}
}

// Login persists the credential and announces the session change. A storage
// failure degrades to "never logged in" with a warning rather than an error.
func (g *Gate) Login(token string) {
	if err := g.store.Set(token); err != nil {
		g.log.Warn().Err(err).Msg("Failed to persist token, session will not survive this process")
	}
	g.notify()
}

// Logout clears the credential and announces the session change.
func (g *Gate) Logout() {
	if err := g.store.Clear(); err != nil {
		g.log.Warn().Err(err).Msg("Failed to clear stored token")
	}
	g.notify()
}

// Subscribe returns a channel that receives a signal after every session
// change (login, logout, or an external token change seen by Watch).
func (g *Gate) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	g.mu.Lock()
	g.subs = append(g.subs, ch)
	g.mu.Unlock()
	return ch
}

func (g *Gate) notify() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range g.subs {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber is behind; it re-derives state on its next read
			// anyway, so a dropped signal is harmless.
		}
	}
}

// Watch publishes a session change whenever another process writes or removes
// the token file. Only file-backed stores can be watched. Blocks until ctx is
// done.
func (g *Gate) Watch(ctx context.Context) error {
	pather, ok := g.store.(interface{ Path() string })
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}
	tokenPath := pather.Path()

	// The token directory only appears on first login; create it so the
	// watch can be installed on a fresh install too.
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: removal and re-creation of the
	// token would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(tokenPath)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(tokenPath) {
				continue
			}
			g.log.Debug().Str("op", event.Op.String()).Msg("Token file changed externally")
			g.notify()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.log.Warn().Err(err).Msg("Token watcher error")
		}
	}
}
