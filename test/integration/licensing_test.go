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

func TestActivateLicenseByCode(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions U12")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)

	resp := env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var team struct {
		LicenseStatus string     `json:"license_status"`
		LicenseType   string     `json:"license_type"`
		LicenseCode   string     `json:"license_code"`
		ExpiresAt     *time.Time `json:"license_expires_at"`
	}
	testutil.DecodeBody(t, resp, &team)
	assert.Equal(t, "active", team.LicenseStatus)
	assert.Equal(t, "monthly", team.LicenseType)
	assert.Equal(t, codes[0], team.LicenseCode)
	require.NotNil(t, team.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *team.ExpiresAt, time.Minute)

	env.AssertLicenseConsumed(t, codes[0], teamID)
	env.AssertTeamLicenseStatus(t, teamID, "active")
	assert.Equal(t, 1, env.CountOutboxEvents(t, "club.license.activated"))
}

func TestActivateLicenseCodeCaseInsensitive(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions U12")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "yearly", 1)

	// Codes are entered by hand; lowercase input must still match.
	lower := ""
	for _, r := range codes[0] {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		lower += string(r)
	}

	resp := env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": lower}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	env.AssertLicenseConsumed(t, codes[0], teamID)
}

func TestActivateConsumedCodeFails(t *testing.T) {
	env := testutil.NewTestEnv(t)

	firstToken, _ := env.RegisterMember("coach1@example.com", "password123")
	firstTeam := env.CreateTeam(firstToken, "Lions")

	secondToken, _ := env.RegisterMember("coach2@example.com", "password123")
	secondTeam := env.CreateTeam(secondToken, "Tigers")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)

	resp := env.POST("/teams/"+firstTeam.String()+"/license/activate",
		map[string]string{"code": codes[0]}, firstToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Same code again, different team: the code is spent.
	resp = env.POST("/teams/"+secondTeam.String()+"/license/activate",
		map[string]string{"code": codes[0]}, secondToken)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")

	env.AssertTeamLicenseStatus(t, secondTeam, "inactive")
}

func TestActivateRequiresTeamAdmin(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	// A plain member of the team cannot activate.
	memberToken, _ := env.RegisterMember("player@example.com", "password123")
	var team struct {
		JoinCode string `json:"join_code"`
	}
	resp := env.AuthGET("/teams/"+teamID.String(), adminToken)
	testutil.DecodeBody(t, resp, &team)

	resp = env.POST("/teams/join", map[string]string{"join_code": team.JoinCode}, memberToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)

	resp = env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, memberToken)
	testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")
}

func TestAssignLicenseFromPool(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	staffToken, _ := env.CreateStaff("staff@example.com")
	env.StockLicenses(staffToken, "season", 2)

	resp := env.POST("/admin/teams/"+teamID.String()+"/license", nil, staffToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var team struct {
		LicenseStatus string `json:"license_status"`
		LicenseType   string `json:"license_type"`
	}
	testutil.DecodeBody(t, resp, &team)
	assert.Equal(t, "active", team.LicenseStatus)
	assert.Equal(t, "season", team.LicenseType)
}

func TestAssignFromEmptyPool(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	staffToken, _ := env.CreateStaff("staff@example.com")

	resp := env.POST("/admin/teams/"+teamID.String()+"/license", nil, staffToken)
	testutil.AssertErrorCode(t, resp, http.StatusNotFound, "NOT_FOUND")
}

func TestDeleteBoundLicenseResetsTeam(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)

	resp := env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	var licenseID uuid.UUID
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT id FROM licenses WHERE code = $1`, codes[0]).Scan(&licenseID))

	resp = env.AuthDELETE("/admin/licenses/"+licenseID.String(), staffToken)
	testutil.AssertStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	// The team is reset before the license row disappears.
	env.AssertTeamLicenseStatus(t, teamID, "inactive")

	var count int
	require.NoError(t, env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM licenses WHERE id = $1`, licenseID).Scan(&count))
	assert.Zero(t, count)
}

func TestLicenseStatusCountdown(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	resp := env.AuthGET("/teams/"+teamID.String()+"/license", adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var status struct {
		Status        string `json:"status"`
		RemainingDays int    `json:"remaining_days"`
		Expired       bool   `json:"expired"`
	}
	testutil.DecodeBody(t, resp, &status)
	assert.Equal(t, "inactive", status.Status)
	assert.Zero(t, status.RemainingDays)

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "trial", 1)

	resp = env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.AuthGET("/teams/"+teamID.String()+"/license", adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeBody(t, resp, &status)
	assert.Equal(t, "active", status.Status)
	// Floor of the countdown: moments after activating a 7-day trial,
	// six whole days remain.
	assert.Equal(t, 6, status.RemainingDays)
	assert.False(t, status.Expired)
}

func TestExpiredLicenseDowngradedOnRead(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)

	resp := env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Backdate the expiry past due.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := env.Pool.Exec(ctx, `
		UPDATE teams
		SET license_activated_at = now() - interval '31 days',
		    license_expires_at   = now() - interval '1 day'
		WHERE id = $1`, teamID)
	require.NoError(t, err)

	resp = env.AuthGET("/teams/"+teamID.String()+"/license", adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var status struct {
		Status        string `json:"status"`
		RemainingDays int    `json:"remaining_days"`
		Expired       bool   `json:"expired"`
	}
	testutil.DecodeBody(t, resp, &status)
	assert.Equal(t, "expired", status.Status)
	assert.Zero(t, status.RemainingDays)
	assert.True(t, status.Expired)

	env.AssertTeamLicenseStatus(t, teamID, "expired")
}

func TestEventCreationBlockedWithoutLicense(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	resp := env.POST("/teams/"+teamID.String()+"/events", map[string]interface{}{
		"title":     "Training",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, adminToken)
	testutil.AssertErrorCode(t, resp, http.StatusForbidden, "FORBIDDEN")

	staffToken, _ := env.CreateStaff("staff@example.com")
	codes := env.StockLicenses(staffToken, "monthly", 1)
	resp = env.POST("/teams/"+teamID.String()+"/license/activate",
		map[string]string{"code": codes[0]}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = env.POST("/teams/"+teamID.String()+"/events", map[string]interface{}{
		"title":     "Training",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
}

func TestLicenseRequestLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	resp := env.POST("/teams/"+teamID.String()+"/license/requests", map[string]interface{}{
		"requested_license_type": "yearly",
		"admin_name":             "Coach Carter",
		"admin_phone":            "+4915112345678",
		"estimated_player_count": 18,
	}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusCreated)

	var request struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	testutil.DecodeBody(t, resp, &request)
	assert.Equal(t, "pending", request.Status)

	staffToken, _ := env.CreateStaff("staff@example.com")

	resp = env.AuthGET("/admin/license-requests", staffToken)
	testutil.AssertStatus(t, resp, http.StatusOK)
	var list struct {
		Requests []struct {
			ID       uuid.UUID `json:"id"`
			TeamName string    `json:"team_name"`
		} `json:"requests"`
	}
	testutil.DecodeBody(t, resp, &list)
	require.Len(t, list.Requests, 1)
	assert.Equal(t, "Lions", list.Requests[0].TeamName)

	resp = env.POST("/admin/license-requests/"+request.ID.String()+"/review",
		map[string]string{"decision": "approve"}, staffToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var reviewed struct {
		Status       string `json:"status"`
		AssignedCode string `json:"assigned_code"`
	}
	testutil.DecodeBody(t, resp, &reviewed)
	assert.Equal(t, "approved", reviewed.Status)
	assert.NotEmpty(t, reviewed.AssignedCode)

	env.AssertTeamLicenseStatus(t, teamID, "active")

	// Reviewing a settled request is a conflict.
	resp = env.POST("/admin/license-requests/"+request.ID.String()+"/review",
		map[string]string{"decision": "reject"}, staffToken)
	testutil.AssertErrorCode(t, resp, http.StatusConflict, "CONFLICT")
}

func TestLicenseRequestRejection(t *testing.T) {
	env := testutil.NewTestEnv(t)

	adminToken, _ := env.RegisterMember("coach@example.com", "password123")
	teamID := env.CreateTeam(adminToken, "Lions")

	resp := env.POST("/teams/"+teamID.String()+"/license/requests",
		map[string]interface{}{"requested_license_type": "yearly"}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	var request struct {
		ID uuid.UUID `json:"id"`
	}
	testutil.DecodeBody(t, resp, &request)

	staffToken, _ := env.CreateStaff("staff@example.com")
	resp = env.POST("/admin/license-requests/"+request.ID.String()+"/review",
		map[string]string{"decision": "reject"}, staffToken)
	testutil.AssertStatus(t, resp, http.StatusOK)

	var reviewed struct {
		Status string `json:"status"`
	}
	testutil.DecodeBody(t, resp, &reviewed)
	assert.Equal(t, "rejected", reviewed.Status)

	// Rejection only stamps the outcome; the team is untouched.
	env.AssertTeamLicenseStatus(t, teamID, "inactive")

	// After rejection the team may file again.
	resp = env.POST("/teams/"+teamID.String()+"/license/requests",
		map[string]interface{}{"requested_license_type": "monthly"}, adminToken)
	testutil.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
}

func TestStaffEndpointsRejectMemberToken(t *testing.T) {
	env := testutil.NewTestEnv(t)

	memberToken, _ := env.RegisterMember("coach@example.com", "password123")

	resp := env.POST("/admin/licenses",
		map[string]interface{}{"type": "monthly", "count": 1}, memberToken)
	testutil.AssertStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}
