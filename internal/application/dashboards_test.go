package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

func TestUserDashboard_MountListsNewestFirst(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	src := newFakeSource()
	deps, _ := testDeps(s, gw, src)
	gw.On("ListMyApplications", mock.Anything).Return([]domain.Application{{ID: "old"}, {ID: "new"}}, nil)

	d := NewUserDashboard(deps)
	require.NoError(t, d.Mount(context.Background()))
	defer d.Close()

	assert.Equal(t, []string{"new", "old"}, ids(d.Applications()))
	assert.True(t, d.Live())
	assert.ElementsMatch(t, UserEvents, src.names)
}

func TestUserDashboard_EventTriggersRefetch(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	src := newFakeSource()
	deps, _ := testDeps(s, gw, src)
	gw.On("ListMyApplications", mock.Anything).Return([]domain.Application{{ID: "a1", Status: domain.StatusSubmitted}}, nil).Once()
	gw.On("ListMyApplications", mock.Anything).Return([]domain.Application{{ID: "a1", Status: domain.StatusInReview}}, nil)

	d := NewUserDashboard(deps)
	var changes atomic.Int32
	d.OnChange(func([]domain.Application) { changes.Add(1) })
	require.NoError(t, d.Mount(context.Background()))
	defer d.Close()

	src.push(EventApplicationStatusUpdated)
	assert.Eventually(t, func() bool {
		apps := d.Applications()
		return len(apps) == 1 && apps[0].Status == domain.StatusInReview
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, changes.Load(), int32(2))
}

func TestUserDashboard_MountRequiresSession(t *testing.T) {
	gw := new(gatewayMock)
	anon := NewSessionController(newMemStore(), new(decoderMock), gw, nopLogger)
	deps, spy := testDeps(anon, gw, newFakeSource())

	err := NewUserDashboard(deps).Mount(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.Len(t, spy.Alerts(), 1)
	gw.AssertNotCalled(t, "ListMyApplications", mock.Anything)
}

func TestUserDashboard_LiveFailureStillMounts(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	src := newFakeSource()
	src.err = errors.New("refused")
	deps, _ := testDeps(s, gw, src)
	gw.On("ListMyApplications", mock.Anything).Return([]domain.Application{}, nil)

	d := NewUserDashboard(deps)
	require.NoError(t, d.Mount(context.Background()))
	assert.False(t, d.Live())
	require.NoError(t, d.Close())
}

func TestUserDashboard_LiveClearsWhenStreamEnds(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	src := newFakeSource()
	deps, _ := testDeps(s, gw, src)
	gw.On("ListMyApplications", mock.Anything).Return([]domain.Application{}, nil)

	d := NewUserDashboard(deps)
	require.NoError(t, d.Mount(context.Background()))
	require.True(t, d.Live())

	require.NoError(t, src.Close())
	assert.Eventually(t, func() bool { return !d.Live() }, time.Second, 5*time.Millisecond)
	require.NoError(t, d.Close())
}

func TestUserDashboard_RowActions(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	deps, spy := testDeps(s, gw, nil)
	apps := []domain.Application{
		{ID: "done", Status: domain.StatusCompleted, Certificate: &domain.FileRef{Filename: "cert.pdf"}},
		{ID: "pending", Status: domain.StatusPendingConfirmation},
		{ID: "review", Status: domain.StatusInReview},
	}
	gw.On("ListMyApplications", mock.Anything).Return(apps, nil)
	d := NewUserDashboard(deps)
	ctx := context.Background()
	require.NoError(t, d.Mount(ctx))

	err := d.Confirm(ctx, "review")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	gw.AssertNotCalled(t, "Confirm", mock.Anything, "review")

	gw.On("Confirm", mock.Anything, "pending").Return(nil)
	require.NoError(t, d.Confirm(ctx, "pending"))
	assert.Contains(t, spy.Notices(), "Application confirmed!")

	err = d.SubmitCorrection(ctx, "pending", "   ")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Contains(t, spy.Alerts(), "Please enter correction reason.")

	gw.On("SubmitCorrection", mock.Anything, "pending", "wrong dob").
		Return(&domain.CallError{Op: "submit correction", Kind: domain.KindServer, Status: 500})
	err = d.SubmitCorrection(ctx, "pending", " wrong dob ")
	require.Error(t, err)
	assert.Contains(t, spy.Alerts(), "Failed to send correction.")

	var buf bytes.Buffer
	gw.On("Download", mock.Anything, "cert.pdf", &buf).Return(42, nil)
	name, n, err := d.DownloadCertificate(ctx, "done", &buf)
	require.NoError(t, err)
	assert.Equal(t, "cert.pdf", name)
	assert.Equal(t, int64(42), n)

	_, _, err = d.DownloadCertificate(ctx, "review", &buf)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	_, _, err = d.DownloadCertificate(ctx, "missing", &buf)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOperatorPanel_RoleGate(t *testing.T) {
	s, gw := signedIn(t, domain.RoleUser)
	deps, _ := testDeps(s, gw, nil)

	err := NewOperatorPanel(deps).Mount(context.Background())
	assert.ErrorIs(t, err, domain.ErrPermissionDeny)
}

func TestOperatorPanel_FilterSearchAndActions(t *testing.T) {
	s, gw := signedIn(t, domain.RoleOperator)
	src := newFakeSource()
	deps, spy := testDeps(s, gw, src)
	gw.On("ListApplications", mock.Anything).Return(sampleApps(), nil)
	p := NewOperatorPanel(deps)
	ctx := context.Background()
	require.NoError(t, p.Mount(ctx))
	defer p.Close()

	assert.ElementsMatch(t, OperatorEvents, src.names)
	assert.Equal(t, []string{"a4", "a3", "a2", "a1"}, ids(p.Applications(domain.FilterAll, "")))
	assert.Equal(t, []string{"a3", "a1"}, ids(p.Applications(string(domain.StatusSubmitted), "")))
	assert.Equal(t, []string{"a1"}, ids(p.Applications(string(domain.StatusSubmitted), "ASHA")))
	assert.Equal(t, 2, p.Counts()[string(domain.StatusSubmitted)])

	err := p.Reject(ctx, "a1", "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Contains(t, spy.Alerts(), "Rejection reason is required")

	err = p.Reject(ctx, "a2", "late")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "completed is terminal")

	gw.On("Reject", mock.Anything, "a1", "missing documents").Return(nil)
	require.NoError(t, p.Reject(ctx, "a1", " missing documents "))
	assert.Contains(t, spy.Notices(), "Application rejected")

	gw.On("UploadFormPDF", mock.Anything, "a3", mock.MatchedBy(func(u ports.Upload) bool { return u.Filename == "form.pdf" })).
		Return(domain.ValidationErrors{"formPdf": "Please select a valid PDF file"})
	err = p.UploadFormPDF(ctx, "a3", "form.pdf", strings.NewReader("not a pdf"))
	require.Error(t, err)
	assert.Contains(t, spy.Alerts(), "Please select a valid PDF file")

	gw.On("DeleteUserDocument", mock.Anything, "u1", domain.DocDomicile).Return(domain.Profile{ID: "u1"}, nil)
	_, err = p.DeleteDocument(ctx, "u1", domain.DocDomicile)
	require.NoError(t, err)
	assert.Contains(t, spy.Notices(), "Domicile Certificate deleted successfully.")

	gw.On("DownloadAllDocuments", mock.Anything, "u1").Return("", nil)
	msg, err := p.DownloadAllDocuments(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Documents downloaded successfully", msg)

	gw.On("Profile", mock.Anything, "u9").Return(domain.Profile{}, &domain.CallError{Kind: domain.KindNotFound, Status: 404})
	_, err = p.OpenProfile(ctx, "u9")
	require.Error(t, err)
	assert.Contains(t, spy.Alerts(), "Failed to load profile.")
}

func TestOperatorPanel_SignalRefetches(t *testing.T) {
	s, gw := signedIn(t, domain.RoleOperator)
	src := newFakeSource()
	deps, _ := testDeps(s, gw, src)
	var fetches atomic.Int32
	gw.On("ListApplications", mock.Anything).Return([]domain.Application{}, nil).Run(func(mock.Arguments) { fetches.Add(1) })
	p := NewOperatorPanel(deps)
	require.NoError(t, p.Mount(context.Background()))

	src.push(EventRefreshApplications)
	assert.Eventually(t, func() bool {
		return fetches.Load() == 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Close())
}

func adminGateway(t *testing.T) (*SessionController, *gatewayMock) {
	s, gw := signedIn(t, domain.RoleAdmin)
	gw.On("ListApplications", mock.Anything).Return(sampleApps(), nil)
	gw.On("ListUsers", mock.Anything).Return([]domain.UserSummary{{ID: "u1", Role: domain.RoleUser}}, nil)
	gw.On("ListServices", mock.Anything).Return([]domain.Service{{ID: "s1", Name: "Income"}}, nil)
	gw.On("ListNotices", mock.Anything).Return([]domain.Notice{{ID: "n1", Title: "Office closed"}}, nil)
	gw.On("ListHeroSlides", mock.Anything).Return([]domain.HeroSlide{}, nil)
	return s, gw
}

func TestAdminDashboard_LoadsEverything(t *testing.T) {
	s, gw := adminGateway(t)
	deps, _ := testDeps(s, gw, nil)
	d := NewAdminDashboard(deps)
	require.NoError(t, d.Mount(context.Background()))

	data := d.Data()
	assert.Len(t, data.Applications, 4)
	assert.Equal(t, "a4", data.Applications[0].ID)
	assert.Len(t, data.Users, 1)
	assert.Len(t, data.Services, 1)
	assert.Len(t, data.Notices, 1)
	assert.Equal(t, 1, d.Counts()[string(domain.StatusCompleted)])
	assert.Equal(t, []string{"a2"}, ids(d.Applications(string(domain.StatusCompleted))))
}

func TestAdminDashboard_LoadFailureIsReported(t *testing.T) {
	s, gw := signedIn(t, domain.RoleAdmin)
	gw.On("ListApplications", mock.Anything).Return([]domain.Application{}, nil)
	gw.On("ListUsers", mock.Anything).Return([]domain.UserSummary(nil), &domain.CallError{Kind: domain.KindAuth, Status: 403})
	gw.On("ListServices", mock.Anything).Return([]domain.Service{}, nil)
	gw.On("ListNotices", mock.Anything).Return([]domain.Notice{}, nil)
	gw.On("ListHeroSlides", mock.Anything).Return([]domain.HeroSlide{}, nil)
	deps, spy := testDeps(s, gw, nil)

	err := NewAdminDashboard(deps).Mount(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, []string{"Failed to load dashboard."}, spy.Alerts())
}

func TestAdminDashboard_Mutations(t *testing.T) {
	s, gw := adminGateway(t)
	deps, spy := testDeps(s, gw, nil)
	d := NewAdminDashboard(deps)
	ctx := context.Background()
	require.NoError(t, d.Mount(ctx))

	assert.Error(t, d.SetStatus(ctx, "a1", "Lost"))
	gw.On("SetStatus", mock.Anything, "a1", domain.StatusInReview).Return(nil)
	require.NoError(t, d.SetStatus(ctx, "a1", "in review"))
	gw.AssertNumberOfCalls(t, "ListApplications", 2)

	assert.Error(t, d.ChangeRole(ctx, "u1", domain.Role("root")))
	gw.On("ChangeRole", mock.Anything, "u1", domain.RoleOperator).Return(nil)
	require.NoError(t, d.ChangeRole(ctx, "u1", domain.RoleOperator))
	assert.Contains(t, spy.Notices(), "Role updated successfully!")

	assert.Error(t, d.UploadCertificate(ctx, "a1", "", nil))
	assert.Contains(t, spy.Alerts(), "Please select a certificate file")
	gw.On("UploadCertificate", mock.Anything, "a1", mock.Anything).Return(nil)
	require.NoError(t, d.UploadCertificate(ctx, "a1", "c.pdf", strings.NewReader("%PDF-")))

	assert.Error(t, d.SaveService(ctx, domain.Service{Name: " "}))
	assert.Contains(t, spy.Alerts(), "Please enter service name")
	gw.On("CreateService", mock.Anything, domain.Service{Name: "Caste Certificate"}).Return(domain.Service{ID: "s2"}, nil)
	require.NoError(t, d.SaveService(ctx, domain.Service{Name: " Caste Certificate "}))
	gw.On("UpdateService", mock.Anything, domain.Service{ID: "s1", Name: "Income"}).Return(domain.Service{ID: "s1"}, nil)
	require.NoError(t, d.SaveService(ctx, domain.Service{ID: "s1", Name: "Income"}))
	gw.On("DeleteService", mock.Anything, "s1").Return(nil)
	require.NoError(t, d.DeleteService(ctx, "s1"))

	gw.On("CreateNotice", mock.Anything, "Holiday").Return(domain.Notice{ID: "n2"}, nil)
	require.NoError(t, d.AddNotice(ctx, " Holiday "))
	gw.On("UpdateNotice", mock.Anything, "n1", "Office open").Return(domain.Notice{ID: "n1"}, nil)
	require.NoError(t, d.EditNotice(ctx, "n1", "Office open"))
	gw.On("DeleteNotice", mock.Anything, "n1").Return(nil)
	require.NoError(t, d.DeleteNotice(ctx, "n1"))

	assert.Error(t, d.AddHeroSlide(ctx, "Title", "", "x.png", strings.NewReader("x")))
	assert.Contains(t, spy.Alerts(), "Please fill all fields")
	gw.On("CreateHeroSlide", mock.Anything, "Welcome", "Apply online", mock.Anything).Return(nil)
	require.NoError(t, d.AddHeroSlide(ctx, "Welcome", "Apply online", "hero.png", strings.NewReader("img")))
	gw.On("DeleteHeroSlide", mock.Anything, "h1").Return(nil)
	require.NoError(t, d.DeleteHeroSlide(ctx, "h1"))

	gw.AssertExpectations(t)
}
