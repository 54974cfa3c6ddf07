package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"autoflow/internal/models"
	"autoflow/internal/services"
	"autoflow/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// stubTranslator always returns the deterministic fallback, keeping handler
// tests independent of any external service.
type stubTranslator struct{}

func (stubTranslator) Translate(_ context.Context, description string) services.TranslationResult {
	return services.TranslationResult{
		Name:        "Stub",
		Description: description,
		Trigger:     models.TriggerManual,
		Actions:     []models.Action{{Type: models.ActionLog, Message: description}},
		Parameters:  map[string]interface{}{},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "automations.json"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	engine := services.NewEngine(st, stubTranslator{}, logger)

	r := gin.New()
	api := r.Group("/api")
	RegisterAutomationRoutes(api, NewAutomationHandler(engine, logger))
	return r, engine
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAutomation_Validation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "missing body", body: "", wantStatus: http.StatusBadRequest},
		{name: "invalid json", body: "{invalid}", wantStatus: http.StatusBadRequest},
		{name: "missing description", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "blank description", body: `{"description":"   "}`, wantStatus: http.StatusBadRequest},
		{name: "valid", body: `{"description":"turn on lights"}`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, "POST", "/api/automation/create", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Create() status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestCreateAutomation_ReturnsFullRecord(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/api/automation/create", `{"description":"turn on lights"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success    bool              `json:"success"`
		Automation models.Automation `json:"automation"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
	if resp.Automation.ID == "" {
		t.Error("expected generated id")
	}
	if resp.Automation.Status != models.StatusActive {
		t.Errorf("status = %q, want active", resp.Automation.Status)
	}
	if len(resp.Automation.Actions) != 1 {
		t.Errorf("expected one action, got %d", len(resp.Automation.Actions))
	}
}

func TestGetAutomation(t *testing.T) {
	r, engine := newTestRouter(t)
	created, err := engine.CreateFromDescription(context.Background(), "turn on lights")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doJSON(t, r, "GET", "/api/automation/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got models.Automation
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != created.ID || got.Name != created.Name {
		t.Errorf("got %+v, want %+v", got, created)
	}

	w = doJSON(t, r, "GET", "/api/automation/nonexistent-id", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing automation status = %d, want 404", w.Code)
	}
}

func TestDeleteAutomation(t *testing.T) {
	r, engine := newTestRouter(t)
	created, err := engine.CreateFromDescription(context.Background(), "turn on lights")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	w := doJSON(t, r, "DELETE", "/api/automation/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	// Second delete reports not found.
	w = doJSON(t, r, "DELETE", "/api/automation/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestListAutomations(t *testing.T) {
	r, engine := newTestRouter(t)

	w := doJSON(t, r, "GET", "/api/automations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list []models.Automation
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}

	if _, err := engine.CreateFromDescription(context.Background(), "one"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := engine.CreateFromDescription(context.Background(), "two"); err != nil {
		t.Fatalf("create: %v", err)
	}

	w = doJSON(t, r, "GET", "/api/automations", "")
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 automations, got %d", len(list))
	}
}

func TestExecuteAutomation(t *testing.T) {
	r, engine := newTestRouter(t)
	created, err := engine.CreateFromDescription(context.Background(), "turn on lights")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
	}{
		{
			name:       "missing automation_id",
			body:       `{"parameters":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown automation runs as structured failure",
			body:        `{"automation_id":"nonexistent-id","parameters":{}}`,
			wantStatus:  http.StatusOK,
			wantSuccess: false,
		},
		{
			name:        "successful run",
			body:        `{"automation_id":"` + created.ID + `","parameters":{"room":"kitchen"}}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, "POST", "/api/automation/execute", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var result models.ExecutionResult
			if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if result.Success != tt.wantSuccess {
				t.Errorf("success = %v, want %v", result.Success, tt.wantSuccess)
			}
			if tt.wantSuccess && len(result.Results) != 1 {
				t.Errorf("expected 1 result, got %d", len(result.Results))
			}
			if !tt.wantSuccess && result.Error != "Automation not found" {
				t.Errorf("error = %q", result.Error)
			}
		})
	}
}
