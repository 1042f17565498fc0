//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterhub/platform/test/integration/testutil"
)

func TestCreateTeam(t *testing.T) {
	env := testutil.NewTestEnv(t)

	token, userID := env.RegisterMember("coach@example.com", "password123")

	resp := env.POST("/teams", map[string]string{"name": "Lions U12"}, token)
	testutil.AssertStatus(t, resp, http.StatusCreated)

	var team struct {
		ID            uuid.UUID `json:"id"`
		Name          string    `json:"name"`
		JoinCode      string    `json:"join_code"`
		AdminIDs      []string  `json:"admin_ids"`
		LicenseStatus string    `json:"license_status"`
	}
	testutil.DecodeBody(t, resp, &team)
	assert.Equal(t, "Lions U12", team.Name)
	assert.NotEmpty(t, team.JoinCode)
	assert.Equal(t, []string{userID.String()}, team.AdminIDs)
	assert.Equal(t, "inactive", team.LicenseStatus)

	// The creator is also a member.
	resp = env.AuthGET("/teams", token)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var list struct {
		Teams []struct {
			ID uuid.UUID `json:"id"`
		} `json:"teams"`
	}
	testutil.DecodeBody(t, resp, &list)
	require.Len(t, list.Teams, 1)
	assert.Equal(t, team.ID, list.Teams[0].ID)

	assert.Equal(t, 1, env.CountOutboxEvents(t, "club.team.created"))
}

func TestCreateTeamRejectsBlankName(t *testing.T) {
	env := testutil.NewTestEnv(t)

	token, _ := env.RegisterMember("coach@example.com", "password123")

	resp := env.POST("/teams", map[string]string{"name": "   "}, token)
	testutil.AssertErrorCode(t, resp, http.StatusBadRequest, "VALIDATION_ERROR")
}

func TestJoinTeamByCode(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	var team struct {
		JoinCode string `json:"join_code"`
	}
	resp := env.AuthGET("/teams/"+teamID.String(), adminToken)
	testutil.DecodeBody(t, resp, &team)

	memberToken, _ := env.RegisterMember("player@example.com", "password123")

	resp = env.POST("/teams/join", map[string]string{"join_code": team.JoinCode}, memberToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Joining the same team twice is a conflict.
	resp = env.POST("/teams/join", map[string]string{"join_code": team.JoinCode}, memberToken)
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "CONFLICT")

	// Members can read the team but not modify it.
	resp = env.AuthGET("/teams/"+teamID.String(), memberToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.AuthPATCH("/teams/"+teamID.String(),
		map[string]string{"name": "Hijacked"}, memberToken)
	testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")
}

func TestJoinWithUnknownCode(t *testing.T) {
	env := testutil.NewTestEnv(t)

	token, _ := env.RegisterMember("player@example.com", "password123")

	resp := env.POST("/teams/join", map[string]string{"join_code": "NOSUCH"}, token)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestNonMemberCannotReadTeam(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	strangerToken, _ := env.RegisterMember("stranger@example.com", "password123")

	resp := env.AuthGET("/teams/"+teamID.String(), strangerToken)
	testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")
}

func TestRotateJoinCode(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	var before struct {
		JoinCode string `json:"join_code"`
	}
	resp := env.AuthGET("/teams/"+teamID.String(), adminToken)
	testutil.DecodeBody(t, resp, &before)

	resp = env.POST("/teams/"+teamID.String()+"/join-code", nil, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var after struct {
		JoinCode string `json:"join_code"`
	}
	testutil.DecodeBody(t, resp, &after)
	assert.NotEqual(t, before.JoinCode, after.JoinCode)

	// The old code is dead.
	memberToken, _ := env.RegisterMember("player@example.com", "password123")
	resp = env.POST("/teams/join", map[string]string{"join_code": before.JoinCode}, memberToken)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestAddAndRemoveAdmin(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, adminID := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	otherToken, otherID := env.RegisterMember("assistant@example.com", "password123")

	var team struct {
		JoinCode string `json:"join_code"`
	}
	resp := env.AuthGET("/teams/"+teamID.String(), adminToken)
	testutil.DecodeBody(t, resp, &team)
	resp = env.POST("/teams/join", map[string]string{"join_code": team.JoinCode}, otherToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST("/teams/"+teamID.String()+"/admins",
		map[string]string{"user_id": otherID.String()}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var updated struct {
		AdminIDs []string `json:"admin_ids"`
	}
	testutil.DecodeBody(t, resp, &updated)
	assert.ElementsMatch(t, []string{adminID.String(), otherID.String()}, updated.AdminIDs)

	// The new admin may now modify the team.
	resp = env.AuthPATCH("/teams/"+teamID.String(),
		map[string]string{"name": "Lions Senior"}, otherToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.AuthDELETE("/teams/"+teamID.String()+"/admins/"+adminID.String(), otherToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeBody(t, resp, &updated)
	assert.Equal(t, []string{otherID.String()}, updated.AdminIDs)
}

func TestRemoveLastAdminRefused(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, adminID := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	resp := env.AuthDELETE("/teams/"+teamID.String()+"/admins/"+adminID.String(), adminToken)
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "CONFLICT")
}

func TestDeleteTeamCascades(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)
	resp := env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST("/teams/"+teamID.String()+"/events", map[string]interface{}{
		"title":     "Training",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = env.AuthDELETE("/teams/"+teamID.String(), adminToken)
	testutil.AssertStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM teams WHERE id = $1`, teamID).Scan(&count))
	assert.Zero(t, count)

	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM events WHERE team_id = $1`, teamID).Scan(&count))
	assert.Zero(t, count)

	// The bound license goes with the team.
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM licenses WHERE code = $1`, codes[0]).Scan(&count))
	assert.Zero(t, count)

	// Membership references are stripped.
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE $1 = ANY(team_ids)`, teamID).Scan(&count))
	assert.Zero(t, count)

	resp = env.AuthGET("/teams", adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var list struct {
		Teams []struct{} `json:"teams"`
	}
	testutil.DecodeBody(t, resp, &list)
	assert.Empty(t, list.Teams)
}

func TestListEventsRequiresMembership(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	strangerToken, _ := env.RegisterMember("stranger@example.com", "password123")

	resp := env.AuthGET("/teams/"+teamID.String()+"/events", strangerToken)
	testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")
}
