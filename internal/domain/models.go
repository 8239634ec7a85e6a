package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOperator, RoleAdmin:
		return true
	}
	return false
}

// DocumentField names one of the profile document slots the backend stores.
type DocumentField string

const (
	DocTenthCertificate   DocumentField = "tenthCertificate"
	DocTenthMarksheet     DocumentField = "tenthMarksheet"
	DocTwelfthCertificate DocumentField = "twelfthCertificate"
	DocTwelfthMarksheet   DocumentField = "twelfthMarksheet"
	DocGraduationDegree   DocumentField = "graduationDegree"
	DocDomicile           DocumentField = "domicile"
	DocPGCertificate      DocumentField = "pgCertificate"
	DocCasteValidity      DocumentField = "casteValidity"
	DocOtherDocument      DocumentField = "otherDocument"
)

// DocumentFields lists every document slot in display order.
var DocumentFields = []DocumentField{
	DocTenthMarksheet,
	DocTenthCertificate,
	DocTwelfthMarksheet,
	DocTwelfthCertificate,
	DocGraduationDegree,
	DocPGCertificate,
	DocDomicile,
	DocCasteValidity,
	DocOtherDocument,
}

var documentLabels = map[DocumentField]string{
	DocTenthMarksheet:     "10th Marksheet",
	DocTenthCertificate:   "10th Certificate",
	DocTwelfthMarksheet:   "12th Marksheet",
	DocTwelfthCertificate: "12th Certificate",
	DocGraduationDegree:   "Graduation Degree",
	DocPGCertificate:      "PG Certificate",
	DocDomicile:           "Domicile Certificate",
	DocCasteValidity:      "Caste Validity",
	DocOtherDocument:      "Other Document",
}

func (f DocumentField) Label() string {
	if l, ok := documentLabels[f]; ok {
		return l
	}
	return string(f)
}

func (f DocumentField) Valid() bool {
	_, ok := documentLabels[f]
	return ok
}

// FileRef is a server-assigned file name. The backend sends either a bare
// string or an object carrying the name under "filename".
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname,omitempty"`
}

func (f *FileRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &f.Filename)
	}
	type plain FileRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = FileRef(p)
	return nil
}

// TokenClaims are the fields the portal reads out of a bearer token.
type TokenClaims struct {
	ID        string
	Role      Role
	ExpiresAt *time.Time
}

// Profile is what GET /api/users/{id}/profile returns.
type Profile struct {
	ID         string                     `json:"_id"`
	Name       string                     `json:"name"`
	Mobile     string                     `json:"mobile"`
	Gender     string                     `json:"gender"`
	DOB        string                     `json:"dob"`
	Caste      string                     `json:"caste"`
	Role       Role                       `json:"role,omitempty"`
	ProfilePic *FileRef                   `json:"profilePic,omitempty"`
	Documents  map[DocumentField]*FileRef `json:"-"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var base plain
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	base.Documents = map[DocumentField]*FileRef{}
	for _, field := range DocumentFields {
		msg, ok := raw[string(field)]
		if !ok || string(msg) == "null" {
			continue
		}
		var ref FileRef
		if err := json.Unmarshal(msg, &ref); err != nil {
			return err
		}
		if ref.Filename != "" {
			base.Documents[field] = &ref
		}
	}
	*p = Profile(base)
	return nil
}

// Session is the authenticated identity held for the lifetime of the client.
type Session struct {
	ID         string
	Name       string
	Mobile     string
	Role       Role
	Gender     string
	DOB        string
	Caste      string
	ProfilePic *FileRef
	Documents  map[DocumentField]*FileRef
	Token      string
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.ID != ""
}

// Ref is a reference to another entity that the backend may or may not have
// populated: either "id" or {"_id": "...", "name": ...}.
type Ref struct {
	ID     string `json:"_id"`
	Name   string `json:"name,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

type Application struct {
	ID                string    `json:"_id"`
	User              Ref       `json:"user"`
	Service           Ref       `json:"service"`
	Status            Status    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	RejectReason      string    `json:"rejectReason,omitempty"`
	CorrectionComment string    `json:"correctionComment,omitempty"`
	FormPDF           *FileRef  `json:"formPdf,omitempty"`
	Certificate       *FileRef  `json:"certificate,omitempty"`
}

type Service struct {
	ID          string             `json:"_id,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Fees        map[string]float64 `json:"fees,omitempty"`
}

type Notice struct {
	ID        string    `json:"_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type HeroSlide struct {
	ID       string   `json:"_id,omitempty"`
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Image    *FileRef `json:"image,omitempty"`
}

type UserSummary struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Role   Role   `json:"role"`
	Caste  string `json:"caste,omitempty"`
}

// Event is a named push notification. Data is never applied to local state.
type Event struct {
	Name       string
	Data       []byte
	ReceivedAt time.Time
}
