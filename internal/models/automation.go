package models

// Automation is the persisted unit: a named, reusable definition of a trigger
// plus an ordered list of actions. Records are created by the engine, replaced
// as a whole, and never mutated in place.
type Automation struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Trigger     string                 `json:"trigger"`
	Actions     []Action               `json:"actions"`
	Parameters  map[string]interface{} `json:"parameters"`
	Status      string                 `json:"status"`
	CreatedAt   string                 `json:"created_at"`
	UpdatedAt   string                 `json:"updated_at"`
}

// Automation status values. Only "active" is assigned by the engine today.
const (
	StatusActive = "active"
)

// TriggerManual is the only trigger mode the engine interprets; other values
// are stored untouched.
const TriggerManual = "manual"

// Action is one typed step inside an automation. The struct is flat and
// discriminated by Type; fields not used by a given type stay empty.
type Action struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
	Method  string `json:"method,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// Recognized action types. Unrecognized types are skipped during execution so
// that automations written by newer tooling still run.
const (
	ActionLog         = "log"
	ActionHTTPRequest = "http_request"
	ActionEmail       = "email"
)

// ActionResult records the outcome of one dispatched action. It mirrors the
// fields of the action it came from.
type ActionResult struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
	Method  string `json:"method,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// ExecutionResult is the aggregate outcome of one execution run.
//
// The not-found branch intentionally carries no AutomationID; every other
// branch echoes it. Callers distinguish "automation missing" from
// "automation ran and failed" by Error and AutomationID together.
type ExecutionResult struct {
	Success      bool           `json:"success"`
	AutomationID string         `json:"automation_id,omitempty"`
	Results      []ActionResult `json:"results,omitempty"`
	ExecutedAt   string         `json:"executed_at,omitempty"`
	Error        string         `json:"error,omitempty"`
}
