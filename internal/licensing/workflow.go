package licensing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/policy"
	"github.com/rosterhub/platform/internal/repository"
)

// SubmitRequestInput carries the optional contact fields of a license request.
type SubmitRequestInput struct {
	RequestedLicenseType domain.LicenseType `json:"requested_license_type,omitempty"`
	RequestType          domain.RequestType `json:"request_type,omitempty"`
	AdminName            string             `json:"admin_name,omitempty"`
	AdminPhone           string             `json:"admin_phone,omitempty"`
	EstimatedPlayerCount int                `json:"estimated_player_count,omitempty"`
}

// SubmitRequest creates a pending license request for the team. The caller
// must be an admin of the team; the check lives here rather than in the
// transport layer so no path around it exists.
func (e *Engine) SubmitRequest(ctx context.Context, db repository.DBTX, teamID uuid.UUID, requester *domain.User, input SubmitRequestInput) (*domain.LicenseRequest, error) {
	team, err := e.teams.FindByID(ctx, db, teamID)
	if err != nil {
		return nil, domain.ErrInternal("find team", err)
	}
	if team == nil {
		return nil, domain.ErrNotFound("team", teamID.String())
	}

	adminSet := policy.ResolveAdminSet(team.AdminIDs, team.LegacyAdminID)
	if !policy.IsTeamAdmin(adminSet, requester.ID.String(), requester.Email) {
		return nil, domain.ErrForbidden("only a team admin can request a license")
	}

	if input.RequestedLicenseType != "" && !domain.ValidLicenseType(input.RequestedLicenseType) {
		return nil, domain.ErrValidation(fmt.Sprintf("unknown license type: %s", input.RequestedLicenseType))
	}
	requestType := input.RequestType
	if requestType == "" {
		requestType = domain.RequestNew
	}

	req := &domain.LicenseRequest{
		ID:                   uuid.New(),
		TeamID:               team.ID,
		TeamName:             team.Name,
		Status:               domain.RequestPending,
		RequestType:          requestType,
		RequestedLicenseType: input.RequestedLicenseType,
		RequestedAt:          e.now().UTC(),
		RequestedBy:          requester.ID,
		AdminName:            input.AdminName,
		AdminEmail:           requester.Email,
		AdminPhone:           input.AdminPhone,
		EstimatedPlayerCount: input.EstimatedPlayerCount,
	}
	if err := e.requests.Create(ctx, db, req); err != nil {
		return nil, domain.ErrInternal("create license request", err)
	}

	draft := domain.OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: domain.AggregateRequest,
		AggregateID:   req.ID.String(),
		EventType:     domain.EventRequestSubmitted,
		PartitionKey:  req.TeamID.String(),
		Payload:       mustJSON(req),
		OccurredAt:    e.now(),
	}
	if err := e.outbox.Insert(ctx, db, draft); err != nil {
		return nil, domain.ErrInternal("insert outbox event", err)
	}
	return req, nil
}

func mustJSON(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}

// Decision is a reviewer's verdict on a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ReviewRequest transitions a pending request. Rejection only stamps the
// outcome. Approval mints a license of the requested type (monthly when none
// was requested), binds it to the team, and records the assigned code on the
// request — all inside tx, so a failed bind leaves the request pending.
func (e *Engine) ReviewRequest(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, decision Decision, reviewerID uuid.UUID) (*domain.LicenseRequest, error) {
	req, err := e.requests.LockForReview(ctx, tx, requestID)
	if err != nil {
		return nil, fmt.Errorf("lock request: %w", err)
	}
	if req == nil {
		return nil, domain.ErrNotFound("license request", requestID.String())
	}

	var target domain.RequestStatus
	switch decision {
	case DecisionApprove:
		target = domain.RequestApproved
	case DecisionReject:
		target = domain.RequestRejected
	default:
		return nil, domain.ErrValidation(fmt.Sprintf("unknown decision: %s", decision))
	}
	if !req.CanTransition(target) {
		return nil, domain.ErrConflict(fmt.Sprintf("license request is already %s", req.Status))
	}

	if decision == DecisionApprove {
		typ := req.RequestedLicenseType
		if typ == "" {
			typ = domain.LicenseMonthly
		}
		duration, ok := domain.DurationDays(typ)
		if !ok {
			return nil, domain.ErrValidation(fmt.Sprintf("unknown license type: %s", typ))
		}
		code, err := domain.GenerateLicenseCode(typ)
		if err != nil {
			return nil, domain.ErrInternal("generate license code", err)
		}

		lic := domain.License{
			ID:           uuid.New(),
			Code:         code,
			Type:         typ,
			DurationDays: duration,
		}
		if err := e.licenses.Create(ctx, tx, &lic); err != nil {
			return nil, domain.ErrInternal("create license", err)
		}
		if _, err := e.ActivateAllocated(ctx, tx, req.TeamID, &lic); err != nil {
			return nil, err
		}
		req.AssignedCode = lic.Code
	}

	now := e.now().UTC()
	req.Status = target
	req.ReviewedAt = &now
	req.ReviewedBy = &reviewerID
	if err := e.requests.MarkReviewed(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := e.outbox.Insert(ctx, tx, domain.NewRequestReviewedEvent(req)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}
	return req, nil
}
