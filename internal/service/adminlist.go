package service

import (
	"sort"
	"strings"

	"github.com/avelane/institut-booking/internal/model"
)

// TemplateOrgSlug identifies the reference tenant whose data seeds new
// institutes.  It is always pinned first in administrative listings,
// whatever sort is active.
const TemplateOrgSlug = "template"

// UsersPageSize is the fixed page size of the back-office user listing.
const UsersPageSize = 50

// SortOrder selects the comparator applied to an administrative listing.
// Key names the field; Desc inverts the comparison.  String comparisons are
// locale-naive, matching the back office's raw ordering.
type SortOrder struct {
	Key  string
	Desc bool
}

// ShapeOrganizations filters by a case-insensitive search over name, slug
// and city, then sorts with the template organization pinned first.
func ShapeOrganizations(orgs []model.Organization, search string, order SortOrder) []model.Organization {
	out := make([]model.Organization, 0, len(orgs))
	q := strings.ToLower(strings.TrimSpace(search))
	for _, o := range orgs {
		if q != "" &&
			!strings.Contains(strings.ToLower(o.Name), q) &&
			!strings.Contains(strings.ToLower(o.Slug), q) &&
			!strings.Contains(strings.ToLower(o.City), q) {
			continue
		}
		out = append(out, o)
	}
	less := func(a, b model.Organization) bool {
		switch order.Key {
		case "slug":
			return a.Slug < b.Slug
		case "city":
			return a.City < b.City
		case "created_at":
			return a.CreatedAt.UnixMilli() < b.CreatedAt.UnixMilli()
		default:
			return a.Name < b.Name
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		// Template tenant wins against everything, regardless of key/direction.
		at, bt := a.Slug == TemplateOrgSlug, b.Slug == TemplateOrgSlug
		if at != bt {
			return at
		}
		if order.Desc {
			return less(b, a)
		}
		return less(a, b)
	})
	return out
}

// ShapeUsers filters by search over name and email and sorts by the chosen
// key.  Pagination is applied separately by PageUsers.
func ShapeUsers(users []model.User, search string, order SortOrder) []model.User {
	out := make([]model.User, 0, len(users))
	q := strings.ToLower(strings.TrimSpace(search))
	for _, u := range users {
		if q != "" &&
			!strings.Contains(strings.ToLower(u.Name), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		out = append(out, u)
	}
	less := func(a, b model.User) bool {
		switch order.Key {
		case "email":
			return a.Email < b.Email
		case "created_at":
			return a.CreatedAt.UnixMilli() < b.CreatedAt.UnixMilli()
		default:
			return a.Name < b.Name
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// PageUsers slices a shaped user list into fixed 50-row pages.  Pages are
// 1-based; out-of-range pages yield an empty slice.  The second return value
// is the total page count (at least 1).
func PageUsers(users []model.User, page int) ([]model.User, int) {
	totalPages := (len(users) + UsersPageSize - 1) / UsersPageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * UsersPageSize
	if start >= len(users) {
		return []model.User{}, totalPages
	}
	end := start + UsersPageSize
	if end > len(users) {
		end = len(users)
	}
	return users[start:end], totalPages
}

// ShapeFormations filters by search over title and slug and sorts by the
// chosen key.
func ShapeFormations(fs []model.Formation, search string, order SortOrder) []model.Formation {
	out := make([]model.Formation, 0, len(fs))
	q := strings.ToLower(strings.TrimSpace(search))
	for _, f := range fs {
		if q != "" &&
			!strings.Contains(strings.ToLower(f.Title), q) &&
			!strings.Contains(strings.ToLower(f.Slug), q) {
			continue
		}
		out = append(out, f)
	}
	less := func(a, b model.Formation) bool {
		switch order.Key {
		case "price":
			return a.Price < b.Price
		case "created_at":
			return a.CreatedAt.UnixMilli() < b.CreatedAt.UnixMilli()
		default:
			return a.Title < b.Title
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if order.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
