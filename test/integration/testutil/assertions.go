//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DecodeBody decodes a JSON response body into out.
func DecodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// AssertStatus fails the test unless the response carries the expected status.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected HTTP status")
}

// AssertErrorCode checks both the HTTP status and the error code in the body.
func AssertErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode, "unexpected HTTP status")
	var body struct {
		Code string `json:"code"`
	}
	DecodeBody(t, resp, &body)
	assert.Equal(t, code, body.Code)
}

// AssertTeamLicenseStatus reads the team row directly and checks its stamped
// license status.
func (env *TestEnv) AssertTeamLicenseStatus(t *testing.T, teamID uuid.UUID, expected string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var status string
	err := env.Pool.QueryRow(ctx,
		`SELECT license_status FROM teams WHERE id = $1`, teamID).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, expected, status)
}

// AssertLicenseConsumed checks that the license with the given code is marked
// used and bound to the given team.
func (env *TestEnv) AssertLicenseConsumed(t *testing.T, code string, teamID uuid.UUID) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var isUsed bool
	var usedBy *uuid.UUID
	err := env.Pool.QueryRow(ctx,
		`SELECT is_used, used_by_team_id FROM licenses WHERE code = $1`, code).
		Scan(&isUsed, &usedBy)
	require.NoError(t, err)
	assert.True(t, isUsed)
	require.NotNil(t, usedBy)
	assert.Equal(t, teamID, *usedBy)
}

// CountOutboxEvents returns the number of outbox rows of the given event type.
func (env *TestEnv) CountOutboxEvents(t *testing.T, eventType string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		`SELECT count(*) FROM event_outbox WHERE event_type = $1`, eventType).Scan(&count)
	require.NoError(t, err)
	return count
}
