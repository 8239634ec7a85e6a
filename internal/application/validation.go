package application

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"citizen-portal/internal/domain"
)

const dobLayout = "2006-01-02"

var mobilePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

type SignupForm struct {
	Name     string `json:"name" validate:"required"`
	DOB      string `json:"dob" validate:"required,minage=10"`
	Gender   string `json:"gender" validate:"required,oneof=male female other"`
	Caste    string `json:"caste" validate:"required,oneof=SC ST OBC General"`
	Mobile   string `json:"mobile" validate:"mobile"`
	Password string `json:"password" validate:"strongpassword"`
}

type LoginForm struct {
	Mobile   string `json:"mobile" validate:"mobile"`
	Password string `json:"password" validate:"min=6"`
}

type OTPForm struct {
	Mobile string `json:"mobile" validate:"mobile"`
}

type ResetForm struct {
	Mobile      string `json:"mobile" validate:"mobile"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// ProfileForm fields are optional; set ones must be well formed.
type ProfileForm struct {
	Name   string `json:"name"`
	Gender string `json:"gender" validate:"omitempty,oneof=male female other"`
	DOB    string `json:"dob" validate:"omitempty,minage=10"`
}

// messages maps field and failed tag to what the form shows.
var messages = map[string]map[string]string{
	"name": {"required": "Full Name is required"},
	"dob": {
		"required": "Date of Birth is required",
		"minage":   "Minimum age must be 10 years",
	},
	"gender": {"*": "Please select your gender"},
	"caste":  {"*": "Please select your caste"},
	"mobile": {"*": "Enter valid 10-digit mobile starting with 6-9"},
	"password": {
		"strongpassword": "Password must have uppercase, lowercase, number & be at least 6 characters",
		"min":            "Password must be at least 6 characters",
	},
	"otp":         {"*": "OTP is required"},
	"newPassword": {"*": "New password is required"},
}

// FormValidator checks form input before anything is sent. It is advisory;
// the backend has the final word.
type FormValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewFormValidator(now func() time.Time) *FormValidator {
	if now == nil {
		now = time.Now
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	fv := &FormValidator{validate: v, now: now}
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("minage", func(fl validator.FieldLevel) bool {
		years, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		dob, err := time.Parse(dobLayout, fl.Field().String())
		if err != nil {
			return false
		}
		return AgeOn(dob, fv.now()) >= years
	})
	return fv
}

// Struct validates any of the forms above into ValidationErrors.
func (f *FormValidator) Struct(form any) error {
	err := f.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := domain.ValidationErrors{}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if byTag, ok := messages[field]; ok {
		if m, ok := byTag[tag]; ok {
			return m
		}
		if m, ok := byTag["*"]; ok {
			return m
		}
	}
	return field + " is invalid"
}

// StrongPassword requires six characters with an upper, a lower and a digit.
func StrongPassword(p string) bool {
	if utf8.RuneCountInString(p) < 6 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}

// AgeOn counts full years between dob and on.
func AgeOn(dob, on time.Time) int {
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}

func ValidMobile(m string) bool {
	return mobilePattern.MatchString(m)
}
