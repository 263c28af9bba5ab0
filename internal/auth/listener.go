package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"shopifyauth/internal/tokenstore"
)

const DefaultCallbackPath = "/callback"

type ListenerConfig struct {
	// Addr is the local bind address, e.g. "localhost:3456".
	Addr string
	Path string

	Nonce  string
	Secret string

	// Shop, when set, is the store name the callback's shop parameter must name.
	Shop string

	// Exchange trades the validated authorization code for an access token.
	Exchange func(ctx context.Context, code string) (string, error)
}

type callbackResult struct {
	token string
	err   error
}

// CallbackListener accepts exactly one OAuth redirect. Requests to other paths
// get a 404 and do not end the attempt.
type CallbackListener struct {
	cfg ListenerConfig

	ln  net.Listener
	srv *http.Server

	ctx    context.Context
	cancel context.CancelFunc

	handled  atomic.Bool
	result   chan callbackResult
	stopOnce sync.Once
}

// Listen binds the callback address and starts serving in the background.
func Listen(cfg ListenerConfig) (*CallbackListener, error) {
	if cfg.Nonce == "" {
		return nil, fmt.Errorf("listener: missing nonce")
	}
	if cfg.Exchange == nil {
		return nil, fmt.Errorf("listener: missing exchange func")
	}
	if cfg.Path == "" {
		cfg.Path = DefaultCallbackPath
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l := &CallbackListener{
		cfg:    cfg,
		ln:     ln,
		ctx:    ctx,
		cancel: cancel,
		result: make(chan callbackResult, 1),
	}

	r := chi.NewRouter()
	r.Get(cfg.Path, l.handleCallback)
	notFound := func(w http.ResponseWriter, r *http.Request) {
		writePage(w, http.StatusNotFound, "Not found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	l.srv = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.deliver(callbackResult{err: fmt.Errorf("callback server: %w", err)})
		}
	}()

	return l, nil
}

// Addr is the bound host:port.
func (l *CallbackListener) Addr() string {
	return l.ln.Addr().String()
}

// Wait blocks until the callback reaches a terminal state or ctx ends, then stops
// the server. A ctx deadline yields ErrTimeout.
func (l *CallbackListener) Wait(ctx context.Context) (string, error) {
	defer l.stop()

	select {
	case res := <-l.result:
		return res.token, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", ctx.Err()
	}
}

func (l *CallbackListener) stop() {
	l.stopOnce.Do(func() {
		l.cancel()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.srv.Shutdown(ctx); err != nil {
			log.Printf("callback server shutdown err=%v", err)
			_ = l.srv.Close()
		}
	})
}

func (l *CallbackListener) deliver(res callbackResult) {
	select {
	case l.result <- res:
	default:
	}
}

func (l *CallbackListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !l.handled.CompareAndSwap(false, true) {
		writePage(w, http.StatusConflict, "Error", "This authentication attempt has already received its callback.")
		return
	}

	token, err := l.process(flattenQuery(r.URL.Query()))
	if err != nil {
		writePage(w, http.StatusBadRequest, "Error", err.Error())
		l.deliver(callbackResult{err: err})
		return
	}

	writePage(w, http.StatusOK, "Authenticated!",
		"Your store access token has been issued.",
		"Return to the terminal to confirm it was saved, then close this tab.")
	l.deliver(callbackResult{token: token})
}

func (l *CallbackListener) process(q map[string]string) (string, error) {
	if q["state"] != l.cfg.Nonce {
		return "", ErrCSRFMismatch
	}
	if !VerifyCallbackHMAC(q, l.cfg.Secret) {
		return "", ErrSignatureInvalid
	}
	if l.cfg.Shop != "" {
		shop, err := tokenstore.NormalizeStoreName(q["shop"])
		if err != nil || shop != l.cfg.Shop {
			return "", fmt.Errorf("%w: %q", ErrShopMismatch, q["shop"])
		}
	}
	code := strings.TrimSpace(q["code"])
	if code == "" {
		return "", ErrMissingCode
	}

	token, err := l.cfg.Exchange(l.ctx, code)
	if err != nil {
		return "", err
	}
	return token, nil
}
