package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"citizen-portal/internal/domain"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusColors = map[domain.Status]lipgloss.Color{
		domain.StatusSubmitted:           lipgloss.Color("12"),
		domain.StatusInReview:            lipgloss.Color("11"),
		domain.StatusPendingConfirmation: lipgloss.Color("13"),
		domain.StatusConfirmed:           lipgloss.Color("14"),
		domain.StatusCompleted:           lipgloss.Color("10"),
		domain.StatusRejected:            lipgloss.Color("9"),
	}
)

func statusBadge(s domain.Status) string {
	c, ok := statusColors[s]
	if !ok {
		return string(s)
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(string(s))
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func since(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func fileName(f *domain.FileRef) string {
	if f == nil {
		return ""
	}
	return f.Filename
}

func renderApplications(w io.Writer, apps []domain.Application, now time.Time) {
	if len(apps) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No applications."))
		return
	}
	t := newTable("ID", "Applicant", "Mobile", "Service", "Status", "Submitted", "Note")
	for _, a := range apps {
		note := a.RejectReason
		if note == "" {
			note = a.CorrectionComment
		}
		t.Row(a.ID, orDash(a.User.Name), orDash(a.User.Mobile), orDash(a.Service.Name), statusBadge(a.Status), since(a.CreatedAt, now), orDash(note))
	}
	fmt.Fprintln(w, t.Render())
}

// renderCounts prints the status filter options with their totals.
func renderCounts(w io.Writer, counts map[string]int) {
	parts := make([]string, 0, len(domain.Statuses)+1)
	for _, opt := range domain.FilterOptions() {
		parts = append(parts, fmt.Sprintf("%s: %d", opt, counts[opt]))
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Join(parts, "  |  ")))
}

func renderUsers(w io.Writer, users []domain.UserSummary) {
	t := newTable("ID", "Name", "Mobile", "Role", "Caste")
	for _, u := range users {
		t.Row(u.ID, u.Name, u.Mobile, string(u.Role), orDash(u.Caste))
	}
	fmt.Fprintln(w, t.Render())
}

func renderServices(w io.Writer, services []domain.Service) {
	headers := append([]string{"ID", "Name"}, domain.FeeCategories...)
	t := newTable(headers...)
	for _, s := range services {
		row := []string{s.ID, s.Name}
		for _, cat := range domain.FeeCategories {
			if amount, ok := s.Fees[cat]; ok {
				row = append(row, formatFee(amount))
			} else {
				row = append(row, "-")
			}
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
}

func formatFee(amount float64) string {
	return "₹" + humanize.CommafWithDigits(amount, 2)
}

func renderNotices(w io.Writer, notices []domain.Notice, now time.Time) {
	t := newTable("ID", "Title", "Posted")
	for _, n := range notices {
		t.Row(n.ID, n.Title, since(n.CreatedAt, now))
	}
	fmt.Fprintln(w, t.Render())
}

func renderSlides(w io.Writer, slides []domain.HeroSlide, fileURL func(string) string) {
	t := newTable("ID", "Title", "Subtitle", "Image")
	for _, s := range slides {
		img := "-"
		if name := fileName(s.Image); name != "" {
			img = fileURL(name)
		}
		t.Row(s.ID, s.Title, s.Subtitle, img)
	}
	fmt.Fprintln(w, t.Render())
}

func renderProfile(w io.Writer, p domain.Profile, fileURL func(string) string) {
	fmt.Fprintln(w, titleStyle.Render(orDash(p.Name)))
	rows := [][2]string{
		{"ID", p.ID},
		{"Mobile", p.Mobile},
		{"Gender", p.Gender},
		{"Date of birth", p.DOB},
		{"Caste", p.Caste},
		{"Role", string(p.Role)},
	}
	if name := fileName(p.ProfilePic); name != "" {
		rows = append(rows, [2]string{"Picture", fileURL(name)})
	}
	for _, r := range rows {
		fmt.Fprintf(w, "  %-14s %s\n", r[0], orDash(r[1]))
	}
	t := newTable("Document", "Field", "File")
	for _, f := range domain.DocumentFields {
		ref, ok := p.Documents[f]
		if !ok {
			t.Row(f.Label(), string(f), mutedStyle.Render("not uploaded"))
			continue
		}
		t.Row(f.Label(), string(f), fileURL(ref.Filename))
	}
	fmt.Fprintln(w, t.Render())
}
