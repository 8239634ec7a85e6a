package application

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"citizen-portal/internal/adapters/logger"
	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) Signup(ctx context.Context, req ports.SignupRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *gatewayMock) Login(ctx context.Context, mobile, password string) (ports.LoginResult, error) {
	args := m.Called(ctx, mobile, password)
	return args.Get(0).(ports.LoginResult), args.Error(1)
}

func (m *gatewayMock) SendOTP(ctx context.Context, mobile string) error {
	return m.Called(ctx, mobile).Error(0)
}

func (m *gatewayMock) ResetPassword(ctx context.Context, mobile, otp, newPassword string) error {
	return m.Called(ctx, mobile, otp, newPassword).Error(0)
}

func (m *gatewayMock) FetchProfile(ctx context.Context, token, userID string) (domain.Profile, error) {
	args := m.Called(ctx, token, userID)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) Me(ctx context.Context) (domain.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) ListUsers(ctx context.Context) ([]domain.UserSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UserSummary), args.Error(1)
}

func (m *gatewayMock) ChangeRole(ctx context.Context, userID string, role domain.Role) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *gatewayMock) UpdateProfile(ctx context.Context, update ports.ProfileUpdate) (domain.Profile, error) {
	args := m.Called(ctx, update)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) DeleteOwnDocument(ctx context.Context, field domain.DocumentField) (domain.Profile, error) {
	args := m.Called(ctx, field)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) DeleteUserDocument(ctx context.Context, userID string, field domain.DocumentField) (domain.Profile, error) {
	args := m.Called(ctx, userID, field)
	return args.Get(0).(domain.Profile), args.Error(1)
}

func (m *gatewayMock) ListServices(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Service), args.Error(1)
}

func (m *gatewayMock) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	args := m.Called(ctx, svc)
	return args.Get(0).(domain.Service), args.Error(1)
}

func (m *gatewayMock) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	args := m.Called(ctx, svc)
	return args.Get(0).(domain.Service), args.Error(1)
}

func (m *gatewayMock) DeleteService(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) ListApplications(ctx context.Context) ([]domain.Application, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *gatewayMock) ListMyApplications(ctx context.Context) ([]domain.Application, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *gatewayMock) SubmitApplication(ctx context.Context, serviceID, userID string) (domain.Application, error) {
	args := m.Called(ctx, serviceID, userID)
	return args.Get(0).(domain.Application), args.Error(1)
}

func (m *gatewayMock) Confirm(ctx context.Context, appID string) error {
	return m.Called(ctx, appID).Error(0)
}

func (m *gatewayMock) SubmitCorrection(ctx context.Context, appID, comment string) error {
	return m.Called(ctx, appID, comment).Error(0)
}

func (m *gatewayMock) Reject(ctx context.Context, appID, reason string) error {
	return m.Called(ctx, appID, reason).Error(0)
}

func (m *gatewayMock) SetStatus(ctx context.Context, appID string, status domain.Status) error {
	return m.Called(ctx, appID, status).Error(0)
}

func (m *gatewayMock) UploadFormPDF(ctx context.Context, appID string, file ports.Upload) error {
	return m.Called(ctx, appID, file).Error(0)
}

func (m *gatewayMock) UploadCertificate(ctx context.Context, appID string, file ports.Upload) error {
	return m.Called(ctx, appID, file).Error(0)
}

func (m *gatewayMock) DownloadAllDocuments(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *gatewayMock) ListNotices(ctx context.Context) ([]domain.Notice, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Notice), args.Error(1)
}

func (m *gatewayMock) CreateNotice(ctx context.Context, title string) (domain.Notice, error) {
	args := m.Called(ctx, title)
	return args.Get(0).(domain.Notice), args.Error(1)
}

func (m *gatewayMock) UpdateNotice(ctx context.Context, id, title string) (domain.Notice, error) {
	args := m.Called(ctx, id, title)
	return args.Get(0).(domain.Notice), args.Error(1)
}

func (m *gatewayMock) DeleteNotice(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) ListHeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.HeroSlide), args.Error(1)
}

func (m *gatewayMock) CreateHeroSlide(ctx context.Context, title, subtitle string, image ports.Upload) error {
	return m.Called(ctx, title, subtitle, image).Error(0)
}

func (m *gatewayMock) DeleteHeroSlide(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *gatewayMock) FileURL(filename string) string {
	return "http://backend/api/files/" + filename
}

func (m *gatewayMock) Download(ctx context.Context, filename string, w io.Writer) (int64, error) {
	args := m.Called(ctx, filename, w)
	return int64(args.Int(0)), args.Error(1)
}

type decoderMock struct{ mock.Mock }

func (m *decoderMock) Decode(token string) (domain.TokenClaims, error) {
	args := m.Called(token)
	return args.Get(0).(domain.TokenClaims), args.Error(1)
}

// memStore is an in-memory ports.StateStore.
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	failSet error
	failDel error
}

func newMemStore() *memStore { return &memStore{values: map[string]string{}} }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return s.failDel
}

func (s *memStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[key]
	return ok
}

// notifierSpy records what would have been shown.
type notifierSpy struct {
	mu      sync.Mutex
	notices []string
	alerts  []string
}

func (n *notifierSpy) Notify(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, msg)
}

func (n *notifierSpy) Alert(_ context.Context, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, msg)
}

func (n *notifierSpy) Alerts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.alerts...)
}

func (n *notifierSpy) Notices() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

// fakeSource hands out one subscription fed from the test.
type fakeSource struct {
	mu     sync.Mutex
	events chan domain.Event
	names  []string
	token  string
	err    error
	closed bool
}

func newFakeSource() *fakeSource { return &fakeSource{events: make(chan domain.Event, 16)} }

func (f *fakeSource) Subscribe(_ context.Context, token string, names []string) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.token, f.names = token, names
	return f, nil
}

func (f *fakeSource) Events() <-chan domain.Event { return f.events }

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

func (f *fakeSource) push(name string) {
	f.events <- domain.Event{Name: name}
}

var nopLogger = logger.Nop{}

// signedIn returns a session controller already holding a session.
func signedIn(t *testing.T, role domain.Role) (*SessionController, *gatewayMock) {
	t.Helper()
	gw := new(gatewayMock)
	dec := new(decoderMock)
	dec.On("Decode", "tok").Return(domain.TokenClaims{ID: "u1", Role: role}, nil)
	gw.On("FetchProfile", mock.Anything, "tok", "u1").Return(domain.Profile{ID: "u1", Name: "Asha", Caste: "OBC"}, nil).Once()
	s := NewSessionController(newMemStore(), dec, gw, nopLogger)
	_, err := s.Login(context.Background(), "tok")
	require.NoError(t, err)
	return s, gw
}

func testDeps(session *SessionController, gw *gatewayMock, source ports.EventSource) (ViewDeps, *notifierSpy) {
	spy := &notifierSpy{}
	return ViewDeps{
		Gateway:  gw,
		Session:  session,
		Events:   source,
		Reporter: NewReporter(nopLogger, spy),
		Logger:   nopLogger,
		Debounce: 5 * time.Millisecond,
	}, spy
}
