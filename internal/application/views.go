package application

import (
	"slices"
	"strings"

	"citizen-portal/internal/domain"
)

// FilterByStatus keeps the applications whose status is f, in input order.
// domain.FilterAll returns the input unchanged.
func FilterByStatus(apps []domain.Application, f string) []domain.Application {
	if f == domain.FilterAll {
		return apps
	}
	out := make([]domain.Application, 0, len(apps))
	for _, a := range apps {
		if string(a.Status) == f {
			out = append(out, a)
		}
	}
	return out
}

// CountByStatus counts per status, plus the total under domain.FilterAll.
func CountByStatus(apps []domain.Application) map[string]int {
	counts := make(map[string]int, len(domain.Statuses)+1)
	for _, s := range domain.Statuses {
		counts[string(s)] = 0
	}
	counts[domain.FilterAll] = len(apps)
	for _, a := range apps {
		counts[string(a.Status)]++
	}
	return counts
}

// Search matches the applicant's name case-insensitively or mobile as a
// substring. An empty query matches everything.
func Search(apps []domain.Application, query string) []domain.Application {
	q := strings.TrimSpace(query)
	if q == "" {
		return apps
	}
	lower := strings.ToLower(q)
	out := make([]domain.Application, 0, len(apps))
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.User.Name), lower) || strings.Contains(a.User.Mobile, q) {
			out = append(out, a)
		}
	}
	return out
}

// newestFirst reverses the server's oldest-first order into a fresh slice.
func newestFirst(apps []domain.Application) []domain.Application {
	out := slices.Clone(apps)
	slices.Reverse(out)
	return out
}

func findApplication(apps []domain.Application, id string) (domain.Application, bool) {
	i := slices.IndexFunc(apps, func(a domain.Application) bool { return a.ID == id })
	if i < 0 {
		return domain.Application{}, false
	}
	return apps[i], true
}
