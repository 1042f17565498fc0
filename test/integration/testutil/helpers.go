//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rosterhub/platform/internal/auth"
)

// RegisterMember creates a new member account and returns the auth token and user ID.
func (env *TestEnv) RegisterMember(email, password string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     "Test User",
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterMember: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterMember: decode: %v", err)
	}
	return result.Token, result.User.ID
}

// Login authenticates an existing account and returns the auth token.
func (env *TestEnv) Login(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("Login: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("Login: decode: %v", err)
	}
	return result.Token
}

// CreateStaff inserts a staff account directly and returns a staff-realm token.
func (env *TestEnv) CreateStaff(email string) (token string, staffID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	staffID = uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("staff-password"), bcrypt.MinCost)
	if err != nil {
		env.t.Fatalf("CreateStaff: hash: %v", err)
	}
	_, err = env.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role)
		VALUES ($1, $2, $3, 'Staff', 'staff')`,
		staffID, email, string(hash))
	if err != nil {
		env.t.Fatalf("CreateStaff: insert: %v", err)
	}

	token, err = env.JWTMgr.GenerateToken(auth.RealmStaff, staffID, email)
	if err != nil {
		env.t.Fatalf("CreateStaff: token: %v", err)
	}
	return token, staffID
}

// CreateTeam creates a team through the API and returns its ID.
func (env *TestEnv) CreateTeam(token, name string) uuid.UUID {
	env.t.Helper()
	resp := env.POST("/teams", map[string]string{"name": name}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("CreateTeam: expected 201, got %d", resp.StatusCode)
	}

	var team struct {
		ID uuid.UUID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&team); err != nil {
		env.t.Fatalf("CreateTeam: decode: %v", err)
	}
	return team.ID
}

// StockLicenses mints count licenses of the given type via the staff API and
// returns their codes.
func (env *TestEnv) StockLicenses(staffToken, licenseType string, count int) []string {
	env.t.Helper()
	resp := env.POST("/admin/licenses", map[string]interface{}{
		"type":  licenseType,
		"count": count,
	}, staffToken)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("StockLicenses: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Licenses []struct {
			Code string `json:"code"`
		} `json:"licenses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("StockLicenses: decode: %v", err)
	}
	codes := make([]string, len(result.Licenses))
	for i, lic := range result.Licenses {
		codes[i] = lic.Code
	}
	return codes
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token)
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.request("GET", path, nil, token)
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("PATCH", path, body, token)
}

// AuthDELETE performs an authenticated DELETE request.
func (env *TestEnv) AuthDELETE(path, token string) *http.Response {
	env.t.Helper()
	return env.request("DELETE", path, nil, token)
}

// OPTIONS performs an OPTIONS request.
func (env *TestEnv) OPTIONS(path string) *http.Response {
	env.t.Helper()
	return env.request("OPTIONS", path, nil, "")
}

func (env *TestEnv) request(method, path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}
