// Package backendtest is an in-memory stand-in for the portal backend,
// served over httptest for tests.
package backendtest

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"citizen-portal/internal/domain"
)

// FixedOTP is the code every send-otp call issues.
const FixedOTP = "123456"

type event struct {
	name string
	data string
}

type Server struct {
	*httptest.Server

	secret []byte
	now    func() time.Time

	mu    sync.Mutex
	state *store
	subs  map[chan event]struct{}
	seen  []string
}

// New starts a backend and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret: []byte("backendtest-secret"),
		now:    time.Now,
		state:  newStore(),
		subs:   map[chan event]struct{}{},
	}
	s.Server = httptest.NewServer(newRouter(s))
	t.Cleanup(s.Close)
	return s
}

// Close ends open event streams before stopping the listener.
func (s *Server) Close() {
	s.mu.Lock()
	for ch := range s.subs {
		close(ch)
		delete(s.subs, ch)
	}
	s.mu.Unlock()
	s.Server.Close()
}

// AddUser registers a user directly and returns its id.
func (s *Server) AddUser(name, mobile, password string, role domain.Role, caste string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &user{ID: newID(), Name: name, Mobile: mobile, Password: password, Role: role, Caste: caste, Gender: "other", DOB: "1990-01-01", Documents: map[string]string{}}
	s.state.users = append(s.state.users, u)
	return u.ID
}

func (s *Server) AddService(name string, fees map[string]float64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	svc := domain.Service{ID: newID(), Name: name, Fees: fees}
	s.state.services = append(s.state.services, svc)
	return svc.ID
}

// AddApplication files an application in the given status.
func (s *Server) AddApplication(userID, serviceID string, status domain.Status) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	a := &application{ID: newID(), UserID: userID, ServiceID: serviceID, Status: status, CreatedAt: now, UpdatedAt: now}
	s.state.apps = append(s.state.apps, a)
	return a.ID
}

func (s *Server) AddFile(name string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.files[name] = content
}

func (s *Server) ApplicationStatus(id string) (domain.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.state.appByID(id)
	if a == nil {
		return "", false
	}
	return a.Status, true
}

// Token mints a signed token for a registered user.
func (s *Server) Token(userID string) string {
	s.mu.Lock()
	u := s.state.userByID(userID)
	s.mu.Unlock()
	if u == nil {
		return ""
	}
	return s.mint(u)
}

func (s *Server) mint(u *user) string {
	claims := jwt.MapClaims{
		"id":   u.ID,
		"role": string(u.Role),
		"iat":  s.now().Unix(),
		"exp":  s.now().Add(24 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Publish pushes an event to every open stream.
func (s *Server) Publish(name, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(name, data)
}

func (s *Server) publishLocked(name, data string) {
	s.seen = append(s.seen, name)
	for ch := range s.subs {
		select {
		case ch <- event{name: name, data: data}:
		default:
		}
	}
}

// Published lists every event name pushed so far.
func (s *Server) Published() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

// Subscribers counts open event streams.
func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) subscribe() chan event {
	ch := make(chan event, 32)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *Server) unsubscribe(ch chan event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

func splitNames(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	out := map[string]bool{}
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out[n] = true
		}
	}
	return out
}
