package licensing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/repository"
)

// In-memory fakes. The pgx.Tx parameter is ignored; row locking is a
// property of the real store, not of the lifecycle rules under test.

type fakeTeams struct {
	teams map[uuid.UUID]*domain.Team
}

func (f *fakeTeams) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Team, error) {
	if t, ok := f.teams[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeTeams) FindByJoinCode(_ context.Context, _ repository.DBTX, code string) (*domain.Team, error) {
	for _, t := range f.teams {
		if t.JoinCode == code {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTeams) LockForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.Team, error) {
	return f.FindByID(context.Background(), nil, id)
}

func (f *fakeTeams) Create(_ context.Context, _ repository.DBTX, team *domain.Team) error {
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeams) UpdateInfo(_ context.Context, _ repository.DBTX, team *domain.Team) error {
	cp := *team
	f.teams[team.ID] = &cp
	return nil
}

func (f *fakeTeams) UpdateAdminIDs(_ context.Context, _ repository.DBTX, id uuid.UUID, adminIDs []string) error {
	f.teams[id].AdminIDs = adminIDs
	f.teams[id].LegacyAdminID = ""
	return nil
}

func (f *fakeTeams) StampLicense(_ context.Context, _ pgx.Tx, id uuid.UUID, stamp repository.LicenseStamp) error {
	t := f.teams[id]
	t.LicenseID = &stamp.LicenseID
	t.LicenseCode = stamp.Code
	t.LicenseType = stamp.Type
	t.LicenseStatus = stamp.Status
	activated, expires := stamp.ActivatedAt, stamp.ExpiresAt
	t.LicenseActivatedAt = &activated
	t.LicenseExpiresAt = &expires
	duration := stamp.DurationDays
	t.LicenseDurationDays = &duration
	return nil
}

func (f *fakeTeams) ResetLicense(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	t := f.teams[id]
	t.LicenseID = nil
	t.LicenseCode = ""
	t.LicenseType = ""
	t.LicenseStatus = domain.LicenseStatusInactive
	t.LicenseActivatedAt = nil
	t.LicenseExpiresAt = nil
	t.LicenseDurationDays = nil
	return nil
}

func (f *fakeTeams) MarkExpired(_ context.Context, _ repository.DBTX, id uuid.UUID) error {
	f.teams[id].LicenseStatus = domain.LicenseStatusExpired
	return nil
}

func (f *fakeTeams) ExpireOverdue(_ context.Context, _ pgx.Tx, now time.Time) ([]domain.Team, error) {
	var expired []domain.Team
	for _, t := range f.teams {
		if t.LicenseStatus == domain.LicenseStatusActive &&
			t.LicenseExpiresAt != nil && !t.LicenseExpiresAt.After(now) {
			t.LicenseStatus = domain.LicenseStatusExpired
			expired = append(expired, *t)
		}
	}
	return expired, nil
}

func (f *fakeTeams) ListByIDs(_ context.Context, _ repository.DBTX, ids []uuid.UUID) ([]domain.Team, error) {
	var out []domain.Team
	for _, id := range ids {
		if t, ok := f.teams[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTeams) ListByAdminIdentifier(_ context.Context, _ repository.DBTX, identifiers []string) ([]domain.Team, error) {
	var out []domain.Team
	for _, t := range f.teams {
		for _, ident := range identifiers {
			for _, admin := range t.AdminIDs {
				if admin == ident {
					out = append(out, *t)
				}
			}
		}
	}
	return out, nil
}

func (f *fakeTeams) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	delete(f.teams, id)
	return nil
}

type fakeLicenses struct {
	order    []uuid.UUID
	licenses map[uuid.UUID]*domain.License
}

func (f *fakeLicenses) Create(_ context.Context, _ repository.DBTX, lic *domain.License) error {
	cp := *lic
	f.licenses[lic.ID] = &cp
	f.order = append(f.order, lic.ID)
	return nil
}

func (f *fakeLicenses) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.License, error) {
	if l, ok := f.licenses[id]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeLicenses) FindUnusedByCode(_ context.Context, _ pgx.Tx, code string) (*domain.License, error) {
	for _, l := range f.licenses {
		if l.Code == code && !l.IsUsed {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLicenses) FirstUnused(_ context.Context, _ pgx.Tx) (*domain.License, error) {
	for _, id := range f.order {
		if l := f.licenses[id]; l != nil && !l.IsUsed {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLicenses) LockForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.License, error) {
	return f.FindByID(context.Background(), nil, id)
}

func (f *fakeLicenses) MarkUsed(_ context.Context, _ pgx.Tx, id, teamID uuid.UUID, usedAt time.Time) error {
	l := f.licenses[id]
	l.IsUsed = true
	l.UsedByTeamID = &teamID
	l.UsedAt = &usedAt
	return nil
}

func (f *fakeLicenses) List(_ context.Context, _ repository.DBTX, onlyUnused bool) ([]domain.License, error) {
	var out []domain.License
	for _, id := range f.order {
		if l := f.licenses[id]; l != nil && (!onlyUnused || !l.IsUsed) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLicenses) Delete(_ context.Context, _ pgx.Tx, id uuid.UUID) error {
	delete(f.licenses, id)
	return nil
}

type fakeRequests struct {
	requests map[uuid.UUID]*domain.LicenseRequest
}

func (f *fakeRequests) Create(_ context.Context, _ repository.DBTX, req *domain.LicenseRequest) error {
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequests) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.LicenseRequest, error) {
	if r, ok := f.requests[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRequests) LockForReview(_ context.Context, _ pgx.Tx, id uuid.UUID) (*domain.LicenseRequest, error) {
	return f.FindByID(context.Background(), nil, id)
}

func (f *fakeRequests) MarkReviewed(_ context.Context, _ pgx.Tx, req *domain.LicenseRequest) error {
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRequests) ListByStatus(_ context.Context, _ repository.DBTX, status domain.RequestStatus) ([]domain.LicenseRequest, error) {
	var out []domain.LicenseRequest
	for _, r := range f.requests {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRequests) ListByTeam(_ context.Context, _ repository.DBTX, teamID uuid.UUID) ([]domain.LicenseRequest, error) {
	var out []domain.LicenseRequest
	for _, r := range f.requests {
		if r.TeamID == teamID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeOutbox struct {
	drafts []domain.OutboxDraft
}

func (f *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, draft domain.OutboxDraft) error {
	f.drafts = append(f.drafts, draft)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(_ context.Context, _ repository.DBTX, _ int) ([]repository.OutboxRow, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ repository.DBTX, _ []int64) error {
	return nil
}

type fixture struct {
	engine   *Engine
	teams    *fakeTeams
	licenses *fakeLicenses
	requests *fakeRequests
	outbox   *fakeOutbox
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		teams:    &fakeTeams{teams: make(map[uuid.UUID]*domain.Team)},
		licenses: &fakeLicenses{licenses: make(map[uuid.UUID]*domain.License)},
		requests: &fakeRequests{requests: make(map[uuid.UUID]*domain.LicenseRequest)},
		outbox:   &fakeOutbox{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.engine = NewEngine(f.teams, f.licenses, f.requests, f.outbox)
	f.engine.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addTeam(adminID string) *domain.Team {
	team := &domain.Team{
		ID:            uuid.New(),
		Name:          "Lions",
		JoinCode:      "AB12CD",
		AdminIDs:      []string{adminID},
		LicenseStatus: domain.LicenseStatusInactive,
	}
	f.teams.teams[team.ID] = team
	return team
}

func (f *fixture) addLicense(typ domain.LicenseType, code string) *domain.License {
	days, _ := domain.DurationDays(typ)
	lic := &domain.License{ID: uuid.New(), Code: code, Type: typ, DurationDays: days}
	f.licenses.licenses[lic.ID] = lic
	f.licenses.order = append(f.licenses.order, lic.ID)
	return lic
}

func TestActivateByCode(t *testing.T) {
	f := newFixture(t)
	team := f.addTeam("admin-1")
	f.addLicense(domain.LicenseMonthly, "RH-M123456")

	bound, err := f.engine.ActivateByCode(context.Background(), nil, team.ID, "rh-m123456")
	require.NoError(t, err)

	assert.Equal(t, domain.LicenseStatusActive, bound.LicenseStatus)
	assert.Equal(t, "RH-M123456", bound.LicenseCode)
	assert.Equal(t, domain.LicenseMonthly, bound.LicenseType)
	require.NotNil(t, bound.LicenseExpiresAt)
	assert.Equal(t, f.now.Add(30*24*time.Hour), *bound.LicenseExpiresAt)

	stored := f.teams.teams[team.ID]
	assert.Equal(t, domain.LicenseStatusActive, stored.LicenseStatus)

	var lic *domain.License
	for _, l := range f.licenses.licenses {
		lic = l
	}
	assert.True(t, lic.IsUsed)
	require.NotNil(t, lic.UsedByTeamID)
	assert.Equal(t, team.ID, *lic.UsedByTeamID)

	require.Len(t, f.outbox.drafts, 1)
	assert.Equal(t, domain.EventLicenseActivated, f.outbox.drafts[0].EventType)
}

func TestActivateByCodeConsumed(t *testing.T) {
	f := newFixture(t)
	first := f.addTeam("admin-1")
	second := f.addTeam("admin-2")
	f.addLicense(domain.LicenseYearly, "RH-Y111111")

	_, err := f.engine.ActivateByCode(context.Background(), nil, first.ID, "RH-Y111111")
	require.NoError(t, err)

	_, err = f.engine.ActivateByCode(context.Background(), nil, second.ID, "RH-Y111111")
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	// The second team is untouched.
	assert.Equal(t, domain.LicenseStatusInactive, f.teams.teams[second.ID].LicenseStatus)
}

func TestActivateByCodeUnknownTeam(t *testing.T) {
	f := newFixture(t)
	f.addLicense(domain.LicenseMonthly, "RH-M123456")

	_, err := f.engine.ActivateByCode(context.Background(), nil, uuid.New(), "RH-M123456")
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestCreateLicenses(t *testing.T) {
	f := newFixture(t)

	created, err := f.engine.CreateLicenses(context.Background(), nil, domain.LicenseTrial, 3)
	require.NoError(t, err)
	require.Len(t, created, 3)

	seen := make(map[string]bool)
	for _, lic := range created {
		assert.Equal(t, 7, lic.DurationDays)
		assert.False(t, lic.IsUsed)
		assert.False(t, seen[lic.Code], "codes must be unique")
		seen[lic.Code] = true
	}
}

func TestCreateLicensesBounds(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateLicenses(context.Background(), nil, domain.LicenseMonthly, 0)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = f.engine.CreateLicenses(context.Background(), nil, domain.LicenseMonthly, 101)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = f.engine.CreateLicenses(context.Background(), nil, domain.LicenseType("lifetime"), 1)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestAllocateUnusedLicenseOrder(t *testing.T) {
	f := newFixture(t)
	oldest := f.addLicense(domain.LicenseMonthly, "RH-M000001")
	f.addLicense(domain.LicenseYearly, "RH-Y000002")

	lic, err := f.engine.AllocateUnusedLicense(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, lic.ID)
}

func TestAllocateFromEmptyPool(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.AllocateUnusedLicense(context.Background(), nil)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.Contains(t, appErr.Message, "no unused license")
}

func TestDeleteLicenseResetsBoundTeam(t *testing.T) {
	f := newFixture(t)
	team := f.addTeam("admin-1")
	lic := f.addLicense(domain.LicenseMonthly, "RH-M123456")

	_, err := f.engine.ActivateByCode(context.Background(), nil, team.ID, lic.Code)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteLicense(context.Background(), nil, lic.ID))

	stored := f.teams.teams[team.ID]
	assert.Equal(t, domain.LicenseStatusInactive, stored.LicenseStatus)
	assert.Nil(t, stored.LicenseID)
	assert.Empty(t, stored.LicenseCode)
	assert.Nil(t, stored.LicenseExpiresAt)

	_, ok := f.licenses.licenses[lic.ID]
	assert.False(t, ok)
}

func TestSubmitRequestRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()
	team := f.addTeam(adminID.String())

	stranger := &domain.User{ID: uuid.New(), Email: "stranger@club.test"}
	_, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, stranger, SubmitRequestInput{})
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "FORBIDDEN", appErr.Code)

	admin := &domain.User{ID: adminID, Email: "coach@club.test"}
	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{
		RequestedLicenseType: domain.LicenseYearly,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, req.Status)
	assert.Equal(t, team.Name, req.TeamName)
	assert.Equal(t, admin.Email, req.AdminEmail)
}

func TestSubmitRequestLegacyAdminField(t *testing.T) {
	f := newFixture(t)
	team := f.addTeam("ignored")
	team.AdminIDs = nil
	team.LegacyAdminID = "coach@club.test"

	admin := &domain.User{ID: uuid.New(), Email: "coach@club.test"}
	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, req.Status)
}

func TestReviewRequestApprove(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()
	team := f.addTeam(adminID.String())
	admin := &domain.User{ID: adminID, Email: "coach@club.test"}

	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{
		RequestedLicenseType: domain.LicenseYearly,
	})
	require.NoError(t, err)

	reviewerID := uuid.New()
	reviewed, err := f.engine.ReviewRequest(context.Background(), nil, req.ID, DecisionApprove, reviewerID)
	require.NoError(t, err)

	assert.Equal(t, domain.RequestApproved, reviewed.Status)
	assert.NotEmpty(t, reviewed.AssignedCode)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, reviewerID, *reviewed.ReviewedBy)

	stored := f.teams.teams[team.ID]
	assert.Equal(t, domain.LicenseStatusActive, stored.LicenseStatus)
	assert.Equal(t, domain.LicenseYearly, stored.LicenseType)
	require.NotNil(t, stored.LicenseExpiresAt)
	assert.Equal(t, f.now.Add(365*24*time.Hour), *stored.LicenseExpiresAt)

	// A second transition of any kind is refused.
	_, err = f.engine.ReviewRequest(context.Background(), nil, req.ID, DecisionReject, reviewerID)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestReviewRequestApproveDefaultsToMonthly(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()
	team := f.addTeam(adminID.String())
	admin := &domain.User{ID: adminID, Email: "coach@club.test"}

	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{})
	require.NoError(t, err)

	_, err = f.engine.ReviewRequest(context.Background(), nil, req.ID, DecisionApprove, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, domain.LicenseMonthly, f.teams.teams[team.ID].LicenseType)
}

func TestReviewRequestReject(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()
	team := f.addTeam(adminID.String())
	admin := &domain.User{ID: adminID, Email: "coach@club.test"}

	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{})
	require.NoError(t, err)

	reviewed, err := f.engine.ReviewRequest(context.Background(), nil, req.ID, DecisionReject, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestRejected, reviewed.Status)
	assert.Empty(t, reviewed.AssignedCode)

	// No license minted, team untouched.
	assert.Empty(t, f.licenses.licenses)
	assert.Equal(t, domain.LicenseStatusInactive, f.teams.teams[team.ID].LicenseStatus)
}

func TestReviewRequestUnknownDecision(t *testing.T) {
	f := newFixture(t)
	adminID := uuid.New()
	team := f.addTeam(adminID.String())
	admin := &domain.User{ID: adminID, Email: "coach@club.test"}

	req, err := f.engine.SubmitRequest(context.Background(), nil, team.ID, admin, SubmitRequestInput{})
	require.NoError(t, err)

	_, err = f.engine.ReviewRequest(context.Background(), nil, req.ID, Decision("defer"), uuid.New())
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestSweepExpiresOverdueTeams(t *testing.T) {
	f := newFixture(t)
	team := f.addTeam("admin-1")
	lic := f.addLicense(domain.LicenseTrial, "RH-T000001")

	_, err := f.engine.ActivateByCode(context.Background(), nil, team.ID, lic.Code)
	require.NoError(t, err)

	// Before expiry nothing happens.
	expired, err := f.teams.ExpireOverdue(context.Background(), nil, f.now.Add(6*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, expired)

	// At the boundary the team is downgraded.
	expired, err = f.teams.ExpireOverdue(context.Background(), nil, f.now.Add(7*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, domain.LicenseStatusExpired, f.teams.teams[team.ID].LicenseStatus)
}
