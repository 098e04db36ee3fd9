package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/avelane/institut-booking/internal/model"
)

func orgFixture() []model.Organization {
	return []model.Organization{
		{ID: 1, Slug: "lyon-presquile", Name: "Institut Lyon", City: "Lyon"},
		{ID: 2, Slug: TemplateOrgSlug, Name: "Modele", City: ""},
		{ID: 3, Slug: "paris-marais", Name: "Institut Paris", City: "Paris"},
		{ID: 4, Slug: "annecy-centre", Name: "Institut Annecy", City: "Annecy"},
	}
}

func TestShapeOrganizationsTemplateFirst(t *testing.T) {
	out := ShapeOrganizations(orgFixture(), "", SortOrder{Key: "name"})

	assert.Equal(t, TemplateOrgSlug, out[0].Slug)
	assert.Equal(t, "Institut Annecy", out[1].Name)
	assert.Equal(t, "Institut Lyon", out[2].Name)
	assert.Equal(t, "Institut Paris", out[3].Name)
}

func TestShapeOrganizationsTemplateFirstDescending(t *testing.T) {
	out := ShapeOrganizations(orgFixture(), "", SortOrder{Key: "name", Desc: true})

	// Descending sort must still pin the template on top.
	assert.Equal(t, TemplateOrgSlug, out[0].Slug)
	assert.Equal(t, "Institut Paris", out[1].Name)
	assert.Equal(t, "Institut Annecy", out[3].Name)
}

func TestShapeOrganizationsSearch(t *testing.T) {
	out := ShapeOrganizations(orgFixture(), "paris", SortOrder{})

	assert.Len(t, out, 1)
	assert.Equal(t, "paris-marais", out[0].Slug)

	// city matches too
	out = ShapeOrganizations(orgFixture(), "LYON", SortOrder{})
	assert.Len(t, out, 1)
	assert.Equal(t, "lyon-presquile", out[0].Slug)
}

func TestShapeUsersSearchAndSort(t *testing.T) {
	users := []model.User{
		{ID: 1, Name: "Zoe Martin", Email: "zoe@example.com"},
		{ID: 2, Name: "Alice Durand", Email: "alice@example.com"},
		{ID: 3, Name: "Bob Petit", Email: "bob@example.com"},
	}

	out := ShapeUsers(users, "", SortOrder{Key: "name"})
	assert.Equal(t, "Alice Durand", out[0].Name)
	assert.Equal(t, "Zoe Martin", out[2].Name)

	out = ShapeUsers(users, "alice", SortOrder{})
	assert.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].ID)
}

func TestPageUsers(t *testing.T) {
	users := make([]model.User, 120)
	for i := range users {
		users[i] = model.User{ID: uint64(i + 1), Name: fmt.Sprintf("user %03d", i)}
	}

	rows, totalPages := PageUsers(users, 1)
	assert.Len(t, rows, UsersPageSize)
	assert.Equal(t, 3, totalPages)
	assert.Equal(t, uint64(1), rows[0].ID)

	rows, _ = PageUsers(users, 3)
	assert.Len(t, rows, 20)
	assert.Equal(t, uint64(101), rows[0].ID)

	rows, totalPages = PageUsers(users, 99)
	assert.Empty(t, rows)
	assert.Equal(t, 3, totalPages)

	// page 0 behaves as page 1
	rows, _ = PageUsers(users, 0)
	assert.Equal(t, uint64(1), rows[0].ID)
}

func TestPageUsersEmpty(t *testing.T) {
	rows, totalPages := PageUsers(nil, 1)

	assert.Empty(t, rows)
	assert.Equal(t, 1, totalPages)
}

func TestShapeFormations(t *testing.T) {
	now := time.Now()
	fs := []model.Formation{
		{ID: 1, Slug: "onglerie", Title: "Onglerie avancee", Price: 900, CreatedAt: now},
		{ID: 2, Slug: "maquillage", Title: "Maquillage pro", Price: 600, CreatedAt: now.Add(time.Hour)},
	}

	out := ShapeFormations(fs, "", SortOrder{Key: "price"})
	assert.Equal(t, uint64(2), out[0].ID)

	out = ShapeFormations(fs, "onglerie", SortOrder{})
	assert.Len(t, out, 1)
	assert.Equal(t, uint64(1), out[0].ID)
}
