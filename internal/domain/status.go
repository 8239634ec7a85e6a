package domain

import "strings"

// Status is the server-authoritative lifecycle stage of an Application.
type Status string

const (
	StatusSubmitted           Status = "Submitted"
	StatusInReview            Status = "In Review"
	StatusPendingConfirmation Status = "Pending Confirmation"
	StatusConfirmed           Status = "Confirmed"
	StatusCompleted           Status = "Completed"
	StatusRejected            Status = "Rejected"
)

// FilterAll is the status filter value that selects every application.
const FilterAll = "All"

// Statuses lists the lifecycle in order, Rejected last.
var Statuses = []Status{
	StatusSubmitted,
	StatusInReview,
	StatusPendingConfirmation,
	StatusConfirmed,
	StatusCompleted,
	StatusRejected,
}

// FilterOptions are the values offered by the status filter, "All" first.
func FilterOptions() []string {
	out := make([]string, 0, len(Statuses)+1)
	out = append(out, FilterAll)
	for _, s := range Statuses {
		out = append(out, string(s))
	}
	return out
}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// AwaitsUser reports whether the end user may confirm or request a
// correction. Pending Confirmation is the only such state.
func (s Status) AwaitsUser() bool {
	return s == StatusPendingConfirmation
}

// CanConfirm is true only while the server waits on the applicant.
func (a Application) CanConfirm() bool {
	return a.Status.AwaitsUser()
}

func (a Application) CanRequestCorrection() bool {
	return a.Status.AwaitsUser()
}

func (a Application) CertificateAvailable() bool {
	return a.Status == StatusCompleted && a.Certificate != nil && a.Certificate.Filename != ""
}

// CanReject mirrors the server rule: any non-terminal application.
func (a Application) CanReject() bool {
	return !a.Status.Terminal()
}
