package models

import (
	"encoding/json"
	"time"
)

// Cycle is the part of the business day a shift covers.
type Cycle string

const (
	CycleMorning Cycle = "MORNING"
	CycleNight   Cycle = "NIGHT"
)

// Valid reports whether c is one of the known cycles.
func (c Cycle) Valid() bool {
	return c == CycleMorning || c == CycleNight
}

// ShiftStatus is the lifecycle state of a shift.
type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

// EventType discriminates the operational event variants.
type EventType string

const (
	EventAttendanceIn  EventType = "ATTENDANCE_IN"
	EventAttendanceOut EventType = "ATTENDANCE_OUT"
	EventShiftNote     EventType = "SHIFT_NOTE"
	EventShiftAbsence  EventType = "SHIFT_ABSENCE"
	EventCashAdvance   EventType = "CASH_ADVANCE"
	EventShiftClose    EventType = "SHIFT_CLOSE"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventAttendanceIn, EventAttendanceOut, EventShiftNote,
		EventShiftAbsence, EventCashAdvance, EventShiftClose:
		return true
	}
	return false
}

// IsAttendance reports whether t is an IN or OUT transition.
func (t EventType) IsAttendance() bool {
	return t == EventAttendanceIn || t == EventAttendanceOut
}

// SyncStatus tracks delivery of an event (and its outbox row) to the server.
type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncSending SyncStatus = "SENDING"
	SyncSent    SyncStatus = "SENT"
	SyncFailed  SyncStatus = "FAILED"
)

// PayrollEffect describes how a cash advance impacts the employee's pay.
type PayrollEffect string

const (
	PayrollDeduct PayrollEffect = "DEDUCT"
	PayrollInfo   PayrollEffect = "INFO"
	PayrollNone   PayrollEffect = "NONE"
)

// NoticeSeverity grades an HR notice.
type NoticeSeverity string

const (
	SeverityInfo   NoticeSeverity = "INFO"
	SeverityWarn   NoticeSeverity = "WARN"
	SeverityUrgent NoticeSeverity = "URGENT"
)

// SystemEmployeeID is the employee recorded on events the console emits itself.
const SystemEmployeeID = "SYSTEM"

// ShiftMeta is one shift instance at a venue.
type ShiftMeta struct {
	ID         string      `json:"id"`
	LocalID    string      `json:"local_id"`
	LocalLabel string      `json:"local_label"`
	Cycle      Cycle       `json:"cycle"`
	WorkDate   string      `json:"work_date"` // YYYY-MM-DD in the business zone
	Status     ShiftStatus `json:"status"`
	OpenedAt   time.Time   `json:"opened_at"`
	ClosedAt   *time.Time  `json:"closed_at,omitempty"`
	// Captured from the session at open time and never changed.
	OpenedBy       string `json:"opened_by"`
	OpenedByUserID string `json:"opened_by_user_id"`
}

// ShiftSummary is the tally carried by a SHIFT_CLOSE event.
type ShiftSummary struct {
	InCount    int            `json:"in_count"`
	OutCount   int            `json:"out_count"`
	ValesCount int            `json:"vales_count"`
	ValesTotal float64        `json:"vales_total"`
	Absences   map[string]int `json:"absences,omitempty"`
	Notes      []string       `json:"notes,omitempty"`
}

// EventPayload is the wire and storage format of an operational event
// (OpsEventPayload v1). Optional fields depend on Type.
type EventPayload struct {
	ClientEventID string    `json:"client_event_id"`
	ShiftID       string    `json:"shift_id"`
	EmployeeID    string    `json:"employee_id"`
	EmployeeName  string    `json:"employee_name,omitempty"`
	LocalID       string    `json:"local_id,omitempty"`
	Type          EventType `json:"type"`
	EventAt       time.Time `json:"event_at"`
	CreatedAt     time.Time `json:"created_at"`
	DeviceID      string    `json:"device_id"`
	AppVersion    string    `json:"app_version"`

	Notes         string        `json:"notes,omitempty"`
	Amount        float64       `json:"amount,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	ReasonLabel   string        `json:"reason_label,omitempty"`
	PayrollEffect PayrollEffect `json:"payroll_effect,omitempty"`
	Summary       *ShiftSummary `json:"summary,omitempty"`
}

// ShiftEvent is an append-only fact recorded during a shift.
type ShiftEvent struct {
	EventPayload
	SyncStatus SyncStatus `json:"sync_status"`
}

// OutboxItem is a pending delivery obligation for one event.
type OutboxItem struct {
	ID            int64           `json:"id"`
	ClientEventID string          `json:"client_event_id"`
	ShiftID       string          `json:"shift_id"`
	Type          EventType       `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	Status        SyncStatus      `json:"status"`
	Retries       int             `json:"retries"`
	LastError     string          `json:"last_error,omitempty"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// StaffMember is a cached roster entry. The server owns the roster; the
// cache only keeps the console usable offline.
type StaffMember struct {
	ID          string    `json:"id"`
	LocalID     string    `json:"local_id"`
	FullName    string    `json:"full_name"`
	Doc         string    `json:"doc,omitempty"`
	Cuil        string    `json:"cuil,omitempty"`
	Blacklisted bool      `json:"blacklisted"`
	IsActive    bool      `json:"is_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HrNotice is an informational HR record for a venue and date.
type HrNotice struct {
	ID        string         `json:"id"`
	LocalID   string         `json:"local_id"`
	WorkDate  string         `json:"work_date"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Severity  NoticeSeverity `json:"severity"`
	Source    string         `json:"source"`
	CreatedAt time.Time      `json:"created_at"`
}

// Actor is the operator behind the current session.
type Actor struct {
	ID       string `json:"id"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// DisplayName is the label recorded as opened_by.
func (a Actor) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	if a.Email != "" {
		return a.Email
	}
	return a.ID
}

// ---- Request / Response DTOs ----

// SessionRequest is the body of PUT /api/session.
type SessionRequest struct {
	Token string `json:"token"`
	User  *Actor `json:"user,omitempty"`
}

// OpenShiftRequest is the body of POST /api/shifts/open.
type OpenShiftRequest struct {
	LocalID    string `json:"local_id"`
	LocalLabel string `json:"local_label"`
	Cycle      Cycle  `json:"cycle"`
}

// RecordEventRequest is what the operator submits; the console fills in
// identity, shift context and timestamps.
type RecordEventRequest struct {
	Type         EventType `json:"type"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Amount       float64   `json:"amount,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// CashAdvanceReport lists one employee's vales in [From, To) with their total.
type CashAdvanceReport struct {
	EmployeeID string       `json:"employee_id"`
	From       time.Time    `json:"from"`
	To         time.Time    `json:"to"`
	Events     []ShiftEvent `json:"events"`
	Count      int          `json:"count"`
	Total      float64      `json:"total"`
}

// SyncRequest is the body POSTed to the remote sync endpoint.
type SyncRequest struct {
	ClientEventID string          `json:"client_event_id"`
	Type          EventType       `json:"type"`
	Payload       json.RawMessage `json:"payload"`
}

// StaffRow is one roster record as served by the remote API.
type StaffRow struct {
	ID          string  `json:"id"`
	FullName    string  `json:"full_name"`
	Doc         *string `json:"doc"`
	Cuil        *string `json:"cuil"`
	Blacklisted *bool   `json:"blacklisted"`
}

// HrNoticeRow is one notice as served by the remote API.
type HrNoticeRow struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Severity  NoticeSeverity `json:"severity"`
	CreatedAt time.Time      `json:"created_at"`
}
