package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"calore-bot/internal/chat"
	"calore-bot/internal/foodterms"
	"calore-bot/internal/llm"
	"calore-bot/internal/nutrition"
	pkgapi "calore-bot/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const padThaiFoods = `{
  "foods": [
    {
      "description": "Pad Thai, with chicken",
      "foodNutrients": [
        {"nutrientNumber": "208", "value": 156},
        {"nutrientNumber": "203", "value": 6.2},
        {"nutrientNumber": "204", "value": 5.5},
        {"nutrientNumber": "205", "value": 20.1}
      ]
    }
  ]
}`

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, req llm.Request) (string, error) {
	return "answer: " + req.Messages[len(req.Messages)-1].Content, nil
}

func newTestRouter(t *testing.T) chi.Router {
	fdc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("query") == "pad thai" {
			_, _ = w.Write([]byte(padThaiFoods))
			return
		}
		_, _ = w.Write([]byte(`{"foods": []}`))
	}))
	t.Cleanup(fdc.Close)

	table := foodterms.Default()
	retriever := nutrition.NewRetriever(nutrition.NewFDCClient(nutrition.FDCConfig{BaseURL: fdc.URL, APIKey: "test-key"}))
	orchestrator := chat.NewOrchestrator(table, retriever, echoGenerator{}, "Thai")

	service := NewChatService(chat.NewStore(orchestrator, 10), table, retriever)
	router := chi.NewRouter()
	service.AddRoutes(router)
	return router
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func startSession(t *testing.T, router chi.Router) uuid.UUID {
	rec := do(t, router, http.MethodPost, "/chat/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	return decode[pkgapi.StartSessionResponse](t, rec).SessionID
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[pkgapi.HealthResponse](t, rec).Status)
}

func TestChatConversation(t *testing.T) {
	router := newTestRouter(t)
	sessionID := startSession(t, router)
	base := "/chat/sessions/" + sessionID.String()

	rec := do(t, router, http.MethodPost, base+"/messages", pkgapi.SendMessageRequest{Message: "ผัดไทยกี่แคล"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decode[pkgapi.SendMessageResponse](t, rec)
	assert.Equal(t, "grounded", first.Source)
	assert.Equal(t, "pad thai", first.Food)
	assert.Contains(t, first.Reply, "Calories: 156 kcal per 100g")

	rec = do(t, router, http.MethodPost, base+"/messages", pkgapi.SendMessageRequest{Message: "แล้วโปรตีนล่ะ"})
	require.Equal(t, http.StatusOK, rec.Code)
	followup := decode[pkgapi.SendMessageResponse](t, rec)
	assert.Equal(t, "grounded", followup.Source)
	assert.Equal(t, "pad thai", followup.Food)

	rec = do(t, router, http.MethodPost, base+"/messages", pkgapi.SendMessageRequest{Message: "สวัสดี"})
	require.Equal(t, http.StatusOK, rec.Code)
	clarify := decode[pkgapi.SendMessageResponse](t, rec)
	assert.Equal(t, "clarify", clarify.Source)
	assert.Empty(t, clarify.Food)

	rec = do(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[pkgapi.SessionInfo](t, rec)
	assert.Equal(t, sessionID, info.ID)
	assert.Equal(t, "pad thai", info.LastFood)
	assert.Equal(t, 6, info.TurnCount)

	rec = do(t, router, http.MethodGet, base+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]pkgapi.ChatHistoryItem](t, rec)
	require.Len(t, history, 6)
	assert.Equal(t, pkgapi.ChatHistoryItem{Role: "user", Content: "ผัดไทยกี่แคล"}, history[0])
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, clarify.Reply, history[5].Content)

	rec = do(t, router, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, base+"/history", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEstimateWhenNotInDatabase(t *testing.T) {
	router := newTestRouter(t)
	sessionID := startSession(t, router)

	rec := do(t, router, http.MethodPost, "/chat/sessions/"+sessionID.String()+"/messages", pkgapi.SendMessageRequest{Message: "ต้มยำกี่แคล"})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[pkgapi.SendMessageResponse](t, rec)
	assert.Equal(t, "estimate", res.Source)
	assert.Equal(t, "tom yum", res.Food)
	assert.Equal(t, "answer: ต้มยำกี่แคล", res.Reply)
}

func TestChatErrors(t *testing.T) {
	router := newTestRouter(t)
	sessionID := startSession(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid session id", http.MethodGet, "/chat/sessions/not-a-uuid", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/chat/sessions/" + uuid.NewString(), "", http.StatusNotFound},
		{"unknown session history", http.MethodGet, "/chat/sessions/" + uuid.NewString() + "/history", "", http.StatusNotFound},
		{"delete unknown session", http.MethodDelete, "/chat/sessions/" + uuid.NewString(), "", http.StatusNotFound},
		{"message to unknown session", http.MethodPost, "/chat/sessions/" + uuid.NewString() + "/messages", `{"message": "ผัดไทย"}`, http.StatusNotFound},
		{"malformed body", http.MethodPost, "/chat/sessions/" + sessionID.String() + "/messages", `{"message":`, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestDetectFood(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		text     string
		expected pkgapi.DetectFoodResponse
	}{
		{"ผัดไทยกี่แคล", pkgapi.DetectFoodResponse{Food: "pad thai", Found: true}},
		{"แล้วโปรตีนล่ะ", pkgapi.DetectFoodResponse{Followup: true}},
		{"สวัสดี", pkgapi.DetectFoodResponse{}},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/foods/detect", nil)
			q := req.URL.Query()
			q.Set("text", tc.text)
			req.URL.RawQuery = q.Encode()

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.expected, decode[pkgapi.DetectFoodResponse](t, rec))
		})
	}
}

func TestLookupNutrition(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/foods/nutrition?query=pad+thai", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	record := decode[pkgapi.NutritionRecord](t, rec)
	assert.Equal(t, "Pad Thai, with chicken", record.Name)
	require.NotNil(t, record.EnergyKcal)
	assert.Equal(t, 156.0, *record.EnergyKcal)
	require.NotNil(t, record.CarbohydrateG)
	assert.Equal(t, 20.1, *record.CarbohydrateG)

	rec = do(t, router, http.MethodGet, "/foods/nutrition?query=spaghetti", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/foods/nutrition", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
