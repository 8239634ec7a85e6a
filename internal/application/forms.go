package application

import (
	"context"
	"strings"

	"citizen-portal/internal/domain"
	"citizen-portal/internal/ports"
)

const FieldProfilePic = "profilePic"

// FormFlows covers everything a person fills in: signup, login, password
// reset, profile edits and applying for a service.
type FormFlows struct {
	gateway   ports.Gateway
	session   *SessionController
	validator *FormValidator
	logger    ports.Logger
}

func NewFormFlows(gateway ports.Gateway, session *SessionController, validator *FormValidator, logger ports.Logger) *FormFlows {
	return &FormFlows{gateway: gateway, session: session, validator: validator, logger: logger}
}

func (f *FormFlows) Signup(ctx context.Context, form SignupForm) error {
	form.Name = strings.TrimSpace(form.Name)
	if err := f.validator.Struct(form); err != nil {
		return err
	}
	return f.gateway.Signup(ctx, ports.SignupRequest{
		Name:     form.Name,
		DOB:      form.DOB,
		Mobile:   form.Mobile,
		Gender:   form.Gender,
		Caste:    form.Caste,
		Password: form.Password,
	})
}

// LoginWithCredentials exchanges mobile and password for a token and hands
// it to the session.
func (f *FormFlows) LoginWithCredentials(ctx context.Context, form LoginForm) (domain.Session, error) {
	if err := f.validator.Struct(form); err != nil {
		return domain.Session{}, err
	}
	res, err := f.gateway.Login(ctx, form.Mobile, form.Password)
	if err != nil {
		return domain.Session{}, err
	}
	return f.session.Login(ctx, res.Token)
}

func (f *FormFlows) SendOTP(ctx context.Context, mobile string) error {
	if err := f.validator.Struct(OTPForm{Mobile: mobile}); err != nil {
		return err
	}
	return f.gateway.SendOTP(ctx, mobile)
}

func (f *FormFlows) ResetPassword(ctx context.Context, form ResetForm) error {
	form.OTP = strings.TrimSpace(form.OTP)
	if err := f.validator.Struct(form); err != nil {
		return err
	}
	return f.gateway.ResetPassword(ctx, form.Mobile, form.OTP, form.NewPassword)
}

// Profile loads the signed-in user's full profile.
func (f *FormFlows) Profile(ctx context.Context) (domain.Profile, error) {
	sess, err := f.session.Require()
	if err != nil {
		return domain.Profile{}, err
	}
	return f.gateway.Profile(ctx, sess.ID)
}

// UpdateProfile sends the changed fields and any new documents. Files must
// target a document slot or the profile picture.
func (f *FormFlows) UpdateProfile(ctx context.Context, form ProfileForm, files []ports.Upload) (domain.Profile, error) {
	if _, err := f.session.Require(); err != nil {
		return domain.Profile{}, err
	}
	form.Name = strings.TrimSpace(form.Name)
	if err := f.validator.Struct(form); err != nil {
		return domain.Profile{}, err
	}
	for _, u := range files {
		if u.Field != FieldProfilePic && !domain.DocumentField(u.Field).Valid() {
			return domain.Profile{}, domain.ValidationErrors{"file": "Unknown document " + u.Field}
		}
	}
	if form == (ProfileForm{}) && len(files) == 0 {
		return domain.Profile{}, domain.ValidationErrors{"name": "Nothing to update"}
	}
	p, err := f.gateway.UpdateProfile(ctx, ports.ProfileUpdate{Name: form.Name, Gender: form.Gender, DOB: form.DOB, Files: files})
	if err != nil {
		return domain.Profile{}, err
	}
	f.session.Refresh(p)
	return p, nil
}

func (f *FormFlows) DeleteDocument(ctx context.Context, field domain.DocumentField) (domain.Profile, error) {
	if _, err := f.session.Require(); err != nil {
		return domain.Profile{}, err
	}
	p, err := f.gateway.DeleteOwnDocument(ctx, field)
	if err != nil {
		return domain.Profile{}, err
	}
	f.session.Refresh(p)
	return p, nil
}

// Quote is the fee a user would pay for a service.
type Quote struct {
	Service domain.Service
	Caste   string
	Fee     float64
}

// QuoteFee resolves the caller's fee from their current caste on the
// server, not the one cached in the session.
func (f *FormFlows) QuoteFee(ctx context.Context, serviceID string) (Quote, error) {
	if _, err := f.session.Require(); err != nil {
		return Quote{}, err
	}
	services, err := f.gateway.ListServices(ctx)
	if err != nil {
		return Quote{}, err
	}
	var svc *domain.Service
	for i := range services {
		if services[i].ID == serviceID {
			svc = &services[i]
			break
		}
	}
	if svc == nil {
		return Quote{}, domain.ErrNotFound
	}
	me, err := f.gateway.Me(ctx)
	if err != nil {
		return Quote{}, err
	}
	caste := me.Caste
	if strings.TrimSpace(caste) == "" {
		caste = domain.CasteGeneral
	}
	return Quote{Service: *svc, Caste: caste, Fee: svc.ResolveFee(caste)}, nil
}

func (f *FormFlows) Submit(ctx context.Context, serviceID string) (domain.Application, error) {
	sess, err := f.session.Require()
	if err != nil {
		return domain.Application{}, err
	}
	if strings.TrimSpace(serviceID) == "" {
		return domain.Application{}, domain.ValidationErrors{"service": "Please select a service"}
	}
	app, err := f.gateway.SubmitApplication(ctx, serviceID, sess.ID)
	if err != nil {
		return domain.Application{}, err
	}
	f.logger.Info(ctx, "application submitted", "application_id", app.ID, "service_id", serviceID)
	return app, nil
}
