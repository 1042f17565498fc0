package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAdminSet(t *testing.T) {
	tests := []struct {
		name     string
		adminIDs []string
		legacy   string
		want     []string
	}{
		{"current list only", []string{"u1", "u2"}, "", []string{"u1", "u2"}},
		{"current list wins over legacy", []string{"u1"}, "u9", []string{"u1"}},
		{"legacy fallback", nil, "u9", []string{"u9"}},
		{"empty list falls back to legacy", []string{}, "u9", []string{"u9"}},
		{"list of blanks falls back to legacy", []string{"", ""}, "u9", []string{"u9"}},
		{"duplicates collapsed", []string{"u1", "u1", "u2"}, "", []string{"u1", "u2"}},
		{"email entries preserved", []string{"coach@example.com"}, "", []string{"coach@example.com"}},
		{"nothing", nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveAdminSet(tt.adminIDs, tt.legacy))
		})
	}
}

func TestIsTeamAdmin(t *testing.T) {
	tests := []struct {
		name     string
		adminIDs []string
		legacy   string
		userID   string
		email    string
		want     bool
	}{
		{"id in current list", []string{"u1", "u2"}, "", "u1", "a@b.com", true},
		{"email in current list", []string{"coach@example.com"}, "", "u1", "coach@example.com", true},
		{"neither in current list", []string{"u2", "u3"}, "", "u1", "a@b.com", false},
		{"legacy id match", nil, "u1", "u1", "", true},
		{"legacy email match", nil, "coach@example.com", "u1", "coach@example.com", true},
		{"legacy mismatch", nil, "u2", "u1", "a@b.com", false},
		{"legacy ignored when list present", []string{"u2"}, "u1", "u1", "", false},
		{"no admin data at all", nil, "", "u1", "a@b.com", false},
		{"blank identifiers never match", []string{""}, "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := ResolveAdminSet(tt.adminIDs, tt.legacy)
			assert.Equal(t, tt.want, IsTeamAdmin(set, tt.userID, tt.email))
		})
	}
}

func TestIsSoleAdmin(t *testing.T) {
	assert.True(t, IsSoleAdmin([]string{"u1"}, "u1", ""))
	assert.True(t, IsSoleAdmin([]string{"coach@example.com"}, "u1", "coach@example.com"))
	assert.False(t, IsSoleAdmin([]string{"u1", "u2"}, "u1", ""))
	assert.False(t, IsSoleAdmin([]string{"u2"}, "u1", ""))
	assert.False(t, IsSoleAdmin(nil, "u1", ""))
}

func TestIsSoleAdminOfAnyTeam(t *testing.T) {
	teams := []TeamAdminShape{
		{AdminIDs: []string{"u1", "u2"}},
		{AdminIDs: nil, LegacyAdminID: "u3"},
		{AdminIDs: []string{"u1"}},
	}

	assert.True(t, IsSoleAdminOfAnyTeam(teams, "u1", ""), "sole admin of third team")
	assert.True(t, IsSoleAdminOfAnyTeam(teams, "u3", ""), "sole legacy admin of second team")
	assert.False(t, IsSoleAdminOfAnyTeam(teams, "u2", ""), "co-admin everywhere")
	assert.False(t, IsSoleAdminOfAnyTeam(nil, "u1", ""))
}
