package ports

import (
	"context"
	"io"

	"citizen-portal/internal/domain"
)

type SignupRequest struct {
	Name     string `json:"name"`
	DOB      string `json:"dob"`
	Mobile   string `json:"mobile"`
	Gender   string `json:"gender"`
	Caste    string `json:"caste"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

// Upload is one file in a multipart request.
type Upload struct {
	Field    string
	Filename string
	Content  io.Reader
}

type ProfileUpdate struct {
	Name   string
	Gender string
	DOB    string
	Files  []Upload
}

type AuthGateway interface {
	Signup(ctx context.Context, req SignupRequest) error
	Login(ctx context.Context, mobile, password string) (LoginResult, error)
	SendOTP(ctx context.Context, mobile string) error
	ResetPassword(ctx context.Context, mobile, otp, newPassword string) error
}

// ProfileFetcher takes the token explicitly: it runs before the session
// holds one.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token, userID string) (domain.Profile, error)
}

type UserGateway interface {
	ProfileFetcher
	Me(ctx context.Context) (domain.Profile, error)
	Profile(ctx context.Context, userID string) (domain.Profile, error)
	ListUsers(ctx context.Context) ([]domain.UserSummary, error)
	ChangeRole(ctx context.Context, userID string, role domain.Role) error
	UpdateProfile(ctx context.Context, update ProfileUpdate) (domain.Profile, error)
	DeleteOwnDocument(ctx context.Context, field domain.DocumentField) (domain.Profile, error)
	DeleteUserDocument(ctx context.Context, userID string, field domain.DocumentField) (domain.Profile, error)
}

type ServiceGateway interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	CreateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, id string) error
}

type ApplicationGateway interface {
	ListApplications(ctx context.Context) ([]domain.Application, error)
	ListMyApplications(ctx context.Context) ([]domain.Application, error)
	SubmitApplication(ctx context.Context, serviceID, userID string) (domain.Application, error)
	Confirm(ctx context.Context, appID string) error
	SubmitCorrection(ctx context.Context, appID, comment string) error
	Reject(ctx context.Context, appID, reason string) error
	SetStatus(ctx context.Context, appID string, status domain.Status) error
	UploadFormPDF(ctx context.Context, appID string, file Upload) error
	UploadCertificate(ctx context.Context, appID string, file Upload) error
	DownloadAllDocuments(ctx context.Context, userID string) (string, error)
}

type NoticeGateway interface {
	ListNotices(ctx context.Context) ([]domain.Notice, error)
	CreateNotice(ctx context.Context, title string) (domain.Notice, error)
	UpdateNotice(ctx context.Context, id, title string) (domain.Notice, error)
	DeleteNotice(ctx context.Context, id string) error
}

type HeroGateway interface {
	ListHeroSlides(ctx context.Context) ([]domain.HeroSlide, error)
	CreateHeroSlide(ctx context.Context, title, subtitle string, image Upload) error
	DeleteHeroSlide(ctx context.Context, id string) error
}

type FileGateway interface {
	FileURL(filename string) string
	Download(ctx context.Context, filename string, w io.Writer) (int64, error)
}

// Gateway is the full backend surface.
type Gateway interface {
	AuthGateway
	UserGateway
	ServiceGateway
	ApplicationGateway
	NoticeGateway
	HeroGateway
	FileGateway
}

type TokenDecoder interface {
	Decode(token string) (domain.TokenClaims, error)
}
