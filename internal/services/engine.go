package services

import (
	"context"
	"time"

	"autoflow/internal/metrics"
	"autoflow/internal/models"
	"autoflow/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ActionFunc dispatches one action and returns its result entry. params is the
// merged parameter map for the run; no built-in action consults it yet, it is
// reserved for parameter substitution into action fields.
type ActionFunc func(action models.Action, params map[string]interface{}) (models.ActionResult, error)

// Engine orchestrates automation creation, lookup, deletion and execution. It
// owns identity assignment and timestamps; automations are never constructed
// anywhere else.
type Engine struct {
	store       *store.Store
	translator  Translator
	logger      *logrus.Logger
	dispatchers map[string]ActionFunc
}

func NewEngine(st *store.Store, translator Translator, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	e := &Engine{
		store:      st,
		translator: translator,
		logger:     logger,
	}
	e.dispatchers = map[string]ActionFunc{
		models.ActionLog:         e.dispatchLog,
		models.ActionHTTPRequest: dispatchHTTPRequest,
		models.ActionEmail:       dispatchEmail,
	}
	return e
}

// RegisterActionType installs a dispatcher for a new action type. Call during
// setup, before the engine serves requests; the dispatcher map is read without
// locking during execution.
func (e *Engine) RegisterActionType(name string, fn ActionFunc) {
	e.dispatchers[name] = fn
}

// CreateFromDescription translates description into a structured automation,
// stamps identity, timestamps and status, and persists it. The translator's
// fallback guarantees this never fails for translator reasons; only a persist
// failure is returned. Callers reject empty descriptions before invoking.
func (e *Engine) CreateFromDescription(ctx context.Context, description string) (models.Automation, error) {
	id := uuid.NewString()
	translated := e.translator.Translate(ctx, description)

	now := time.Now().UTC().Format(time.RFC3339)
	automation := models.Automation{
		ID:          id,
		Name:        translated.Name,
		Description: translated.Description,
		Trigger:     translated.Trigger,
		Actions:     translated.Actions,
		Parameters:  translated.Parameters,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if automation.Parameters == nil {
		automation.Parameters = map[string]interface{}{}
	}

	if err := e.store.Put(automation); err != nil {
		return models.Automation{}, err
	}
	e.logger.Infof("automation %s created: %s (%d actions)", id, automation.Name, len(automation.Actions))
	return automation, nil
}

// List returns a snapshot of all stored automations.
func (e *Engine) List() []models.Automation {
	return e.store.List()
}

// Get returns the automation for id and whether it exists.
func (e *Engine) Get(id string) (models.Automation, bool) {
	return e.store.Get(id)
}

// Delete removes the automation if present. Repeated deletes return false,
// not an error.
func (e *Engine) Delete(id string) (bool, error) {
	removed, err := e.store.Delete(id)
	if err != nil {
		return false, err
	}
	if removed {
		e.logger.Infof("automation %s deleted", id)
	}
	return removed, nil
}

// Execute runs the automation's actions front-to-back and aggregates their
// results. Unrecognized action types are skipped without a result entry; that
// is a deliberate extensibility point, not an error. A dispatch fault aborts
// the run and discards the partial results.
//
// Execution never mutates the stored automation.
func (e *Engine) Execute(ctx context.Context, id string, parameters map[string]interface{}) models.ExecutionResult {
	automation, ok := e.store.Get(id)
	if !ok {
		metrics.IncExecution(metrics.OutcomeNotFound)
		return models.ExecutionResult{
			Success: false,
			Error:   "Automation not found",
		}
	}

	params := mergeParameters(automation.Parameters, parameters)

	results := make([]models.ActionResult, 0, len(automation.Actions))
	for _, action := range automation.Actions {
		fn, ok := e.dispatchers[action.Type]
		if !ok {
			e.logger.Debugf("automation %s: skipping unknown action type %q", id, action.Type)
			continue
		}
		res, err := fn(action, params)
		if err != nil {
			e.logger.Warnf("automation %s: action %s failed: %v", id, action.Type, err)
			metrics.IncExecution(metrics.OutcomeFailed)
			return models.ExecutionResult{
				Success:      false,
				Error:        err.Error(),
				AutomationID: id,
			}
		}
		results = append(results, res)
	}

	metrics.IncExecution(metrics.OutcomeOK)
	return models.ExecutionResult{
		Success:      true,
		AutomationID: id,
		Results:      results,
		ExecutedAt:   time.Now().UTC().Format(time.RFC3339),
	}
}

// dispatchLog records the message and emits it to the operational log sink.
func (e *Engine) dispatchLog(action models.Action, _ map[string]interface{}) (models.ActionResult, error) {
	e.logger.Infof("LOG: %s", action.Message)
	return models.ActionResult{Type: models.ActionLog, Message: action.Message}, nil
}

// dispatchHTTPRequest records the intent only; no network call is performed.
func dispatchHTTPRequest(action models.Action, _ map[string]interface{}) (models.ActionResult, error) {
	method := action.Method
	if method == "" {
		method = "GET"
	}
	return models.ActionResult{Type: models.ActionHTTPRequest, URL: action.URL, Method: method}, nil
}

// dispatchEmail records the intent only; nothing is sent.
func dispatchEmail(action models.Action, _ map[string]interface{}) (models.ActionResult, error) {
	return models.ActionResult{Type: models.ActionEmail, To: action.To, Subject: action.Subject}, nil
}

// mergeParameters overlays caller-supplied parameters on the automation's
// declared defaults.
func mergeParameters(declared, supplied map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(declared)+len(supplied))
	for k, v := range declared {
		merged[k] = v
	}
	for k, v := range supplied {
		merged[k] = v
	}
	return merged
}
