// package server hosts the local OAuth2 callback endpoint used during the
// Spotify authorization flow. Token refresh itself is handled by the oauth2
// client; this server only captures the initial authorization code.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CallbackServer runs a short-lived HTTP server that waits for exactly one
// OAuth callback and then shuts down.
type CallbackServer struct {
	addr    string
	handler *OAuthHandler
}

// NewCallbackServer creates a callback server listening on addr.
func NewCallbackServer(addr string, handler *OAuthHandler) *CallbackServer {
	return &CallbackServer{addr: addr, handler: handler}
}

// Wait serves until the handler receives its callback, the timeout lapses,
// or the context is canceled, then returns the OAuth result.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (OAuthResult, error) {
	mux := http.NewServeMux()
	mux.Handle("/callback", s.handler)

	srv := &http.Server{Addr: s.addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case result := <-s.handler.Result():
		return result, nil
	case err := <-errCh:
		return OAuthResult{}, fmt.Errorf("callback server failed: %w", err)
	case <-time.After(timeout):
		return OAuthResult{}, fmt.Errorf("timed out waiting for authorization callback")
	case <-ctx.Done():
		return OAuthResult{}, ctx.Err()
	}
}
