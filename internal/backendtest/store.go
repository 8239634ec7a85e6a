package backendtest

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"citizen-portal/internal/domain"
)

type user struct {
	ID        string
	Name      string
	Mobile    string
	Password  string
	Gender    string
	DOB       string
	Caste     string
	Role      domain.Role
	Documents map[string]string
}

func (u *user) profile() map[string]any {
	out := map[string]any{
		"_id":    u.ID,
		"name":   u.Name,
		"mobile": u.Mobile,
		"gender": u.Gender,
		"dob":    u.DOB,
		"caste":  u.Caste,
		"role":   u.Role,
	}
	for field, name := range u.Documents {
		out[field] = name
	}
	return out
}

func (u *user) summary() map[string]any {
	return map[string]any{"_id": u.ID, "name": u.Name, "mobile": u.Mobile, "role": u.Role, "caste": u.Caste}
}

type application struct {
	ID                string
	UserID            string
	ServiceID         string
	Status            domain.Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
	RejectReason      string
	CorrectionComment string
	FormPDF           string
	Certificate       string
}

// store is the backend's in-memory state. Callers hold Server.mu.
type store struct {
	users    []*user
	apps     []*application
	services []domain.Service
	notices  []domain.Notice
	slides   []domain.HeroSlide
	files    map[string][]byte
	otps     map[string]string
}

func newStore() *store {
	return &store{files: map[string][]byte{}, otps: map[string]string{}}
}

func newID() string { return uuid.NewString() }

func (s *store) userByID(id string) *user {
	i := slices.IndexFunc(s.users, func(u *user) bool { return u.ID == id })
	if i < 0 {
		return nil
	}
	return s.users[i]
}

func (s *store) userByMobile(mobile string) *user {
	i := slices.IndexFunc(s.users, func(u *user) bool { return u.Mobile == mobile })
	if i < 0 {
		return nil
	}
	return s.users[i]
}

func (s *store) appByID(id string) *application {
	i := slices.IndexFunc(s.apps, func(a *application) bool { return a.ID == id })
	if i < 0 {
		return nil
	}
	return s.apps[i]
}

func (s *store) serviceIndex(id string) int {
	return slices.IndexFunc(s.services, func(svc domain.Service) bool { return svc.ID == id })
}

// appJSON renders an application with its user and service populated.
func (s *store) appJSON(a *application) map[string]any {
	out := map[string]any{
		"_id":       a.ID,
		"status":    a.Status,
		"createdAt": a.CreatedAt,
		"updatedAt": a.UpdatedAt,
		"user":      a.UserID,
		"service":   a.ServiceID,
	}
	if u := s.userByID(a.UserID); u != nil {
		out["user"] = map[string]any{"_id": u.ID, "name": u.Name, "mobile": u.Mobile}
	}
	if i := s.serviceIndex(a.ServiceID); i >= 0 {
		out["service"] = map[string]any{"_id": a.ServiceID, "name": s.services[i].Name}
	}
	if a.RejectReason != "" {
		out["rejectReason"] = a.RejectReason
	}
	if a.CorrectionComment != "" {
		out["correctionComment"] = a.CorrectionComment
	}
	if a.FormPDF != "" {
		out["formPdf"] = a.FormPDF
	}
	if a.Certificate != "" {
		out["certificate"] = a.Certificate
	}
	return out
}
