package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-portal/internal/adapters/alert"
	"citizen-portal/internal/adapters/logger"
	"citizen-portal/internal/application"
	"citizen-portal/internal/backendtest"
	"citizen-portal/internal/domain"
	"citizen-portal/internal/infrastructure/auth"
	"citizen-portal/internal/infrastructure/gateway"
	"citizen-portal/internal/infrastructure/live"
	"citizen-portal/internal/infrastructure/state"
	"citizen-portal/internal/ports"
)

// syncBuffer is written by redraws on another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	app    *App
	out    *syncBuffer
	alerts *syncBuffer
	store  ports.StateStore
}

func newHarness(t *testing.T, srv *backendtest.Server) *harness {
	t.Helper()
	log := logger.Nop{}
	store := state.NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))
	session := application.NewSessionController(store, auth.NewDecoder(), nil, log)
	gw, err := gateway.New(srv.URL, session)
	require.NoError(t, err)
	session.SetProfiles(gw)

	out, alerts := &syncBuffer{}, &syncBuffer{}
	app := New(Deps{
		Session:  session,
		Gateway:  gw,
		Flows:    application.NewFormFlows(gw, session, application.NewFormValidator(time.Now), log),
		Events:   live.NewSSE(srv.URL, nil, log),
		Store:    store,
		Reporter: application.NewReporter(log, alert.NewConsole(alerts)),
		Logger:   log,
		Out:      out,
		Debounce: 5 * time.Millisecond,
	})
	return &harness{app: app, out: out, alerts: alerts, store: store}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	return h.app.Root().Execute(context.Background(), args)
}

func (h *harness) login(t *testing.T, mobile, password string) {
	t.Helper()
	require.NoError(t, h.run(t, "login", "--mobile", mobile, "--password", password))
}

type fixture struct {
	srv      *backendtest.Server
	citizen  string
	service  string
	pending  string
	reviewed string
}

func seed(t *testing.T) fixture {
	srv := backendtest.New(t)
	citizen := srv.AddUser("Ravi Kumar", "9876543210", "Secret@12", domain.RoleUser, "OBC")
	srv.AddUser("Meera", "9123456780", "Secret@34", domain.RoleOperator, "")
	srv.AddUser("Root", "9000000009", "Secret@56", domain.RoleAdmin, "")
	svc := srv.AddService("Income Certificate", map[string]float64{"OBC": 25, "General": 50})
	return fixture{
		srv:      srv,
		citizen:  citizen,
		service:  svc,
		pending:  srv.AddApplication(citizen, svc, domain.StatusPendingConfirmation),
		reviewed: srv.AddApplication(citizen, svc, domain.StatusInReview),
	}
}

func TestHelpAndUsage(t *testing.T) {
	h := newHarness(t, backendtest.New(t))

	require.NoError(t, h.run(t, "--help"))
	for _, name := range []string{"login", "apps", "certificate", "signal"} {
		assert.Contains(t, h.out.String(), name)
	}

	err := h.run(t, "nope")
	require.ErrorIs(t, err, ErrUsage)
	assert.False(t, Reported(err))

	err = h.run(t, "confirm")
	require.ErrorIs(t, err, ErrUsage)

	err = h.run(t, "apps", "--bogus")
	require.ErrorIs(t, err, ErrUsage)
}

func TestLoginValidationIsReportedPerField(t *testing.T) {
	h := newHarness(t, backendtest.New(t))

	err := h.run(t, "login", "--mobile", "12345", "--password", "x")
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Contains(t, h.alerts.String(), "Enter valid 10-digit mobile starting with 6-9")

	err = h.run(t, "whoami")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoSession)
}

func TestCitizenCommands(t *testing.T) {
	f := seed(t)
	h := newHarness(t, f.srv)
	h.login(t, "9876543210", "Secret@12")
	assert.Contains(t, h.out.String(), "Signed in as Ravi Kumar (user)")

	require.NoError(t, h.run(t, "apps"))
	assert.Contains(t, h.out.String(), f.pending)
	assert.Contains(t, h.out.String(), "All: 2")

	require.NoError(t, h.run(t, "quote", f.service))
	assert.Contains(t, h.out.String(), "Income Certificate: ₹25 (OBC)")

	require.NoError(t, h.run(t, "confirm", f.pending))
	st, _ := f.srv.ApplicationStatus(f.pending)
	assert.Equal(t, domain.StatusConfirmed, st)

	err := h.run(t, "correct", f.reviewed, "-m", "wrong name")
	require.Error(t, err)
	assert.Contains(t, h.alerts.String(), "Cannot correct an application that is In Review")

	require.NoError(t, h.run(t, "apply", f.service))
	assert.Contains(t, h.alerts.String(), "Application submitted successfully!")

	require.NoError(t, h.run(t, "logout"))
	assert.Error(t, h.run(t, "whoami"))
}

func TestRoleGatedCommands(t *testing.T) {
	f := seed(t)

	citizen := newHarness(t, f.srv)
	citizen.login(t, "9876543210", "Secret@12")
	err := citizen.run(t, "reject", f.reviewed, "-m", "incomplete")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPermissionDeny)

	op := newHarness(t, f.srv)
	op.login(t, "9123456780", "Secret@34")
	require.NoError(t, op.run(t, "reject", f.reviewed, "-m", "incomplete"))
	st, _ := f.srv.ApplicationStatus(f.reviewed)
	assert.Equal(t, domain.StatusRejected, st)

	require.NoError(t, op.run(t, "apps", "--status", "rejected"))
	assert.Contains(t, op.out.String(), "incomplete")

	admin := newHarness(t, f.srv)
	admin.login(t, "9000000009", "Secret@56")
	require.NoError(t, admin.run(t, "set-status", f.pending, "completed"))
	st, _ = f.srv.ApplicationStatus(f.pending)
	assert.Equal(t, domain.StatusCompleted, st)

	err = admin.run(t, "set-status", f.pending, "archived")
	require.Error(t, err)
	assert.Contains(t, admin.alerts.String(), "Unknown status archived")
}

func TestAdminContentCommands(t *testing.T) {
	f := seed(t)
	h := newHarness(t, f.srv)
	h.login(t, "9000000009", "Secret@56")

	require.NoError(t, h.run(t, "services", "add", "--name", "Caste Certificate", "--fee", "sc=0,General=40"))
	require.NoError(t, h.run(t, "services", "list"))
	assert.Contains(t, h.out.String(), "Caste Certificate")
	assert.Contains(t, h.out.String(), "₹40")

	err := h.run(t, "services", "add", "--name", "X", "--fee", "SC=free")
	require.Error(t, err)
	assert.Contains(t, h.alerts.String(), `Invalid fee "free" for SC`)

	require.NoError(t, h.run(t, "notices", "add", "Offices closed on Friday"))
	require.NoError(t, h.run(t, "notices", "list"))
	assert.Contains(t, h.out.String(), "Offices closed on Friday")

	require.NoError(t, h.run(t, "users", "list"))
	assert.Contains(t, h.out.String(), "9123456780")
}

func TestFilesGet(t *testing.T) {
	f := seed(t)
	f.srv.AddFile("notice.pdf", []byte("%PDF-1.4\n"))
	h := newHarness(t, f.srv)

	dir := t.TempDir()
	require.NoError(t, h.run(t, "files", "get", "notice.pdf", "-o", dir))
	data, err := os.ReadFile(filepath.Join(dir, "notice.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n", string(data))

	err = h.run(t, "files", "get", "missing.pdf", "-o", dir)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "missing.pdf"))
}

func TestSignalRefresh(t *testing.T) {
	h := newHarness(t, backendtest.New(t))
	require.NoError(t, h.run(t, "signal", "refresh"))
	v, err := h.store.Get(context.Background(), ports.KeyRefreshApplications)
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestAppsWatchRedrawsOnPush(t *testing.T) {
	f := seed(t)
	h := newHarness(t, f.srv)
	h.login(t, "9876543210", "Secret@12")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.app.Root().Execute(ctx, []string{"apps", "--watch"}) }()

	require.Eventually(t, func() bool { return f.srv.Subscribers() == 1 }, 3*time.Second, 10*time.Millisecond)
	fresh := f.srv.AddApplication(f.citizen, f.service, domain.StatusSubmitted)
	f.srv.Publish(application.EventNewApplication, fresh)

	assert.Eventually(t, func() bool {
		return strings.Contains(h.out.String(), fresh)
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestParseFees(t *testing.T) {
	fees, err := parseFees(map[string]string{"obc": "25", " General ": "50.5", "Misc": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"OBC": 25, "General": 50.5, "Misc": 1}, fees)

	_, err = parseFees(map[string]string{"SC": "-1"})
	assert.Error(t, err)

	fees, err = parseFees(nil)
	require.NoError(t, err)
	assert.Nil(t, fees)
}
