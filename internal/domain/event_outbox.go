package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventUserCreated        EventType = "club.user.created"
	EventUserDeleted        EventType = "club.user.deleted"
	EventTeamCreated        EventType = "club.team.created"
	EventTeamDeleted        EventType = "club.team.deleted"
	EventMemberJoined       EventType = "club.team.member.joined"
	EventLicenseActivated   EventType = "club.license.activated"
	EventLicenseDeactivated EventType = "club.license.deactivated"
	EventLicenseExpired     EventType = "club.license.expired"
	EventRequestSubmitted   EventType = "club.license.request.submitted"
	EventRequestApproved    EventType = "club.license.request.approved"
	EventRequestRejected    EventType = "club.license.request.rejected"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateUser    AggregateType = "user"
	AggregateTeam    AggregateType = "team"
	AggregateLicense AggregateType = "license"
	AggregateRequest AggregateType = "license_request"
)

// OutboxDraft is the payload written to the event_outbox table. Rows are
// inserted in the same transaction as the state change they describe and
// drained to Kafka by the outbox poller.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewLicenseActivatedEvent records a license being bound to a team.
func NewLicenseActivatedEvent(lic *License, teamID uuid.UUID) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"license_id":    lic.ID.String(),
		"code":          lic.Code,
		"type":          lic.Type,
		"duration_days": lic.DurationDays,
		"team_id":       teamID.String(),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLicense,
		AggregateID:   lic.ID.String(),
		EventType:     EventLicenseActivated,
		PartitionKey:  teamID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewLicenseDeactivatedEvent records a license being deleted and its team reset.
func NewLicenseDeactivatedEvent(licenseID uuid.UUID, teamID *uuid.UUID) OutboxDraft {
	partition := licenseID.String()
	fields := map[string]interface{}{"license_id": licenseID.String()}
	if teamID != nil {
		fields["team_id"] = teamID.String()
		partition = teamID.String()
	}
	payload, _ := json.Marshal(fields)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLicense,
		AggregateID:   licenseID.String(),
		EventType:     EventLicenseDeactivated,
		PartitionKey:  partition,
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewRequestReviewedEvent records a license request outcome.
func NewRequestReviewedEvent(req *LicenseRequest) OutboxDraft {
	evtType := EventRequestRejected
	if req.Status == RequestApproved {
		evtType = EventRequestApproved
	}
	payload, _ := json.Marshal(req)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateRequest,
		AggregateID:   req.ID.String(),
		EventType:     evtType,
		PartitionKey:  req.TeamID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewLicenseExpiredEvent records the sweeper downgrading a team past its expiry.
func NewLicenseExpiredEvent(team *Team) OutboxDraft {
	fields := map[string]interface{}{"team_id": team.ID.String()}
	if team.LicenseID != nil {
		fields["license_id"] = team.LicenseID.String()
	}
	if team.LicenseExpiresAt != nil {
		fields["expired_at"] = team.LicenseExpiresAt
	}
	payload, _ := json.Marshal(fields)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLicense,
		AggregateID:   team.ID.String(),
		EventType:     EventLicenseExpired,
		PartitionKey:  team.ID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewUserEvent records an account lifecycle change.
func NewUserEvent(evtType EventType, userID uuid.UUID, email string) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id": userID.String(),
		"email":   email,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateUser,
		AggregateID:   userID.String(),
		EventType:     evtType,
		PartitionKey:  userID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewTeamEvent records a team lifecycle change.
func NewTeamEvent(evtType EventType, teamID uuid.UUID, fields map[string]interface{}) OutboxDraft {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["team_id"] = teamID.String()
	payload, _ := json.Marshal(fields)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTeam,
		AggregateID:   teamID.String(),
		EventType:     evtType,
		PartitionKey:  teamID.String(),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
