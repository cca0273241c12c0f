// Package client holds a signed-in bandpoints session.
//
// A Session replaces any global "current user" state: it owns the token, the
// latest member snapshot, and a background listener on the WatchMember stream
// that keeps the snapshot current. Close it when the view that needed it goes
// away.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/bandpoints/internal/middleware"
	"github.com/mmynk/bandpoints/pkg/api"
)

var (
	// ErrMemberDeleted is returned once the signed-in member's record has been deleted.
	ErrMemberDeleted = errors.New("member record was deleted")
	// ErrNotPermitted is returned when the local role check rejects an admin call.
	ErrNotPermitted = errors.New("your role does not allow this action")
	// ErrClosed is returned by calls on a closed session.
	ErrClosed = errors.New("session closed")
)

// retryDelay is how long the listener waits before reopening a broken stream.
const retryDelay = 2 * time.Second

// Session is a signed-in identity plus its live member snapshot.
type Session struct {
	token string

	Auth        *api.AuthServiceClient
	Members     *api.MemberServiceClient
	Leaderboard *api.LeaderboardServiceClient
	Admin       *api.AdminServiceClient

	mu      sync.RWMutex
	member  *api.Member
	deleted bool
	closed  bool
	updates chan *api.Member

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Option configures SignIn.
type Option func(*options)

type options struct {
	httpClient connect.HTTPClient
	watch      bool
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

// WithoutWatch disables the live listener. Member() then only changes on Refresh.
func WithoutWatch() Option {
	return func(o *options) { o.watch = false }
}

// SignIn authenticates against the server at baseURL and starts the live listener.
func SignIn(ctx context.Context, baseURL, email, password string, opts ...Option) (*Session, error) {
	o := options{httpClient: http.DefaultClient, watch: true}
	for _, opt := range opts {
		opt(&o)
	}

	authClient := api.NewAuthServiceClient(o.httpClient, baseURL)
	resp, err := authClient.SignIn(ctx, connect.NewRequest(&api.SignInRequest{
		Email:    email,
		Password: password,
	}))
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s := newSession(o.httpClient, baseURL, resp.Msg.Token, resp.Msg.Member)
	if o.watch {
		s.startWatch()
	} else {
		close(s.done)
	}
	return s, nil
}

func newSession(httpClient connect.HTTPClient, baseURL, token string, member *api.Member) *Session {
	s := &Session{
		token:   token,
		member:  member,
		updates: make(chan *api.Member, 1),
		done:    make(chan struct{}),
		cancel:  func() {},
	}
	auth := connect.WithInterceptors(middleware.BearerToken(s.Token))
	s.Auth = api.NewAuthServiceClient(httpClient, baseURL, auth)
	s.Members = api.NewMemberServiceClient(httpClient, baseURL, auth)
	s.Leaderboard = api.NewLeaderboardServiceClient(httpClient, baseURL, auth)
	s.Admin = api.NewAdminServiceClient(httpClient, baseURL, auth)
	return s
}

// Token returns the session token.
func (s *Session) Token() string {
	return s.token
}

// Member returns the latest member snapshot, or nil after deletion.
func (s *Session) Member() *api.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.member == nil {
		return nil
	}
	cp := *s.member
	return &cp
}

// Deleted reports whether the server has reported the member as deleted.
func (s *Session) Deleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted
}

// Updates delivers each new snapshot. Only the latest undelivered snapshot is
// kept, and nil signals deletion. The channel closes when the session closes.
func (s *Session) Updates() <-chan *api.Member {
	return s.updates
}

// Refresh re-reads the member record from the server.
func (s *Session) Refresh(ctx context.Context) (*api.Member, error) {
	resp, err := s.Auth.GetCurrentMember(ctx, connect.NewRequest(&api.GetCurrentMemberRequest{}))
	if connect.CodeOf(err) == connect.CodeNotFound {
		s.set(nil, true)
		return nil, ErrMemberDeleted
	}
	if err != nil {
		return nil, err
	}
	s.set(resp.Msg.Member, false)
	return s.Member(), nil
}

// set replaces the snapshot and offers it on the updates channel,
// dropping any snapshot the reader has not taken yet.
func (s *Session) set(member *api.Member, deleted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.member = member
	s.deleted = deleted
	if s.closed {
		return
	}

	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- member:
	default:
	}
}

func (s *Session) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.done)
		s.watch(ctx)
	}()
}

// watch consumes WatchMember until ctx is cancelled or the member is deleted,
// reopening the stream after transient failures.
func (s *Session) watch(ctx context.Context) {
	for {
		deleted, err := s.watchOnce(ctx)
		if deleted || ctx.Err() != nil {
			return
		}
		code := connect.CodeOf(err)
		if code == connect.CodeUnauthenticated || code == connect.CodePermissionDenied {
			slog.Warn("Member watch stopped", "error", err)
			return
		}
		if err != nil {
			slog.Debug("Member watch interrupted, retrying", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

func (s *Session) watchOnce(ctx context.Context) (deleted bool, err error) {
	stream, err := s.Members.WatchMember(ctx, connect.NewRequest(&api.WatchMemberRequest{}))
	if err != nil {
		return false, err
	}
	defer stream.Close()

	for stream.Receive() {
		snap := stream.Msg()
		if snap.Deleted {
			s.set(nil, true)
			return true, nil
		}
		s.set(snap.Member, false)
	}
	return false, stream.Err()
}

// Close stops the listener and waits for it to exit. It is safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.mu.Lock()
		s.closed = true
		close(s.updates)
		s.mu.Unlock()
	})
	return nil
}

// SignOut tells the server and closes the session.
func (s *Session) SignOut(ctx context.Context) error {
	_, err := s.Auth.SignOut(ctx, connect.NewRequest(&api.SignOutRequest{}))
	s.Close()
	return err
}
