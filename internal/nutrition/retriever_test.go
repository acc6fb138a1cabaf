package nutrition_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"calore-bot/internal/nutrition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFDC struct {
	mu      sync.Mutex
	queries []string
	// keyed by query, raw JSON body to return
	responses map[string]string
	status    int
	delay     time.Duration
}

func (f *fakeFDC) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		query := r.URL.Query().Get("query")
		f.mu.Lock()
		f.queries = append(f.queries, query)
		f.mu.Unlock()

		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}

		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}

		body, ok := f.responses[query]
		if !ok {
			body = `{"foods": []}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func (f *fakeFDC) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func newRetriever(t *testing.T, fake *fakeFDC, timeout time.Duration) *nutrition.Retriever {
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client := nutrition.NewFDCClient(nutrition.FDCConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: timeout,
	})
	return nutrition.NewRetriever(client)
}

const padThaiResponse = `{
  "foods": [
    {
      "description": "Pad Thai, with chicken",
      "foodNutrients": [
        {"nutrientNumber": "208", "value": 156},
        {"nutrientNumber": "203", "value": 7.5},
        {"nutrientNumber": "204", "value": 5.2},
        {"nutrientNumber": "291", "value": 1.1}
      ]
    },
    {"description": "Thai tea", "foodNutrients": []}
  ]
}`

func TestRetrieveMatch(t *testing.T) {
	fake := &fakeFDC{responses: map[string]string{"pad thai": padThaiResponse}}
	retriever := newRetriever(t, fake, time.Second)

	record, ok := retriever.Retrieve(context.Background(), "pad thai")
	require.True(t, ok)

	assert.Equal(t, "Pad Thai, with chicken", record.Name)
	require.NotNil(t, record.EnergyKcal)
	assert.Equal(t, 156.0, *record.EnergyKcal)
	require.NotNil(t, record.ProteinG)
	assert.Equal(t, 7.5, *record.ProteinG)
	require.NotNil(t, record.FatG)
	assert.Equal(t, 5.2, *record.FatG)
	assert.Nil(t, record.CarbohydrateG, "missing nutrient must stay unknown, not zero")

	assert.True(t, nutrition.Matches("pad thai", record.Name))
}

func TestRetrieveNumericNutrientNumbers(t *testing.T) {
	body := `{"foods": [{"description": "Rice, white, cooked", "foodNutrients": [
		{"nutrientNumber": 208, "value": 130},
		{"nutrientNumber": 205, "value": 28.2},
		{"nutrientNumber": null, "value": 1}
	]}]}`
	fake := &fakeFDC{responses: map[string]string{"rice": body}}
	retriever := newRetriever(t, fake, time.Second)

	record, ok := retriever.Retrieve(context.Background(), "rice")
	require.True(t, ok)
	require.NotNil(t, record.EnergyKcal)
	assert.Equal(t, 130.0, *record.EnergyKcal)
	require.NotNil(t, record.CarbohydrateG)
	assert.Equal(t, 28.2, *record.CarbohydrateG)
	assert.Nil(t, record.ProteinG)
}

func TestRetrieveRejectsUnrelatedMatch(t *testing.T) {
	fake := &fakeFDC{responses: map[string]string{
		"tom yum": `{"foods": [{"description": "Lemongrass, raw", "foodNutrients": []}]}`,
	}}
	retriever := newRetriever(t, fake, time.Second)

	record, ok := retriever.Retrieve(context.Background(), "tom yum")
	assert.False(t, ok)
	assert.Nil(t, record)
}

func TestRetrieveTriesCandidatesInOrder(t *testing.T) {
	fake := &fakeFDC{responses: map[string]string{
		"hainanese chicken rice": `{"foods": [{"description": "Beef jerky", "foodNutrients": []}]}`,
		"chicken rice":           `{"foods": [{"description": "Chicken and rice, home recipe", "foodNutrients": [{"nutrientNumber": "208", "value": 181}]}]}`,
		"rice":                   `{"foods": [{"description": "Rice, white", "foodNutrients": []}]}`,
	}}
	retriever := newRetriever(t, fake, time.Second)

	record, ok := retriever.Retrieve(context.Background(), "hainanese chicken rice", "chicken rice", "rice")
	require.True(t, ok)
	assert.Equal(t, "Chicken and rice, home recipe", record.Name)
	assert.Equal(t, []string{"hainanese chicken rice", "chicken rice"}, fake.seen(), "candidates after a hit must be skipped")
}

func TestRetrieveFailures(t *testing.T) {
	t.Run("ServerError", func(t *testing.T) {
		fake := &fakeFDC{status: http.StatusInternalServerError}
		retriever := newRetriever(t, fake, time.Second)

		_, ok := retriever.Retrieve(context.Background(), "pad thai", "rice noodles")
		assert.False(t, ok)
		assert.Len(t, fake.seen(), 2, "a failed candidate must not stop the remaining ones")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		fake := &fakeFDC{responses: map[string]string{"pad thai": `{"foods": "nope"`}}
		retriever := newRetriever(t, fake, time.Second)

		_, ok := retriever.Retrieve(context.Background(), "pad thai")
		assert.False(t, ok)
	})

	t.Run("EmptyFoods", func(t *testing.T) {
		fake := &fakeFDC{}
		retriever := newRetriever(t, fake, time.Second)

		_, ok := retriever.Retrieve(context.Background(), "pad thai")
		assert.False(t, ok)
	})

	t.Run("NoCandidates", func(t *testing.T) {
		fake := &fakeFDC{}
		retriever := newRetriever(t, fake, time.Second)

		_, ok := retriever.Retrieve(context.Background())
		assert.False(t, ok)
		assert.Empty(t, fake.seen())
	})

	t.Run("Timeout", func(t *testing.T) {
		fake := &fakeFDC{responses: map[string]string{"pad thai": padThaiResponse}, delay: 2 * time.Second}
		retriever := newRetriever(t, fake, 100*time.Millisecond)

		start := time.Now()
		_, ok := retriever.Retrieve(context.Background(), "pad thai")
		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestRetrieveWithoutAPIKey(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"foods": []any{}})
	}))
	defer server.Close()

	retriever := nutrition.NewRetriever(nutrition.NewFDCClient(nutrition.FDCConfig{BaseURL: server.URL}))

	for _, term := range []string{"pad thai", "rice", ""} {
		record, ok := retriever.Retrieve(context.Background(), term)
		assert.False(t, ok)
		assert.Nil(t, record)
	}
	assert.Equal(t, int32(0), requests.Load())
}

func TestSearchWithoutAPIKey(t *testing.T) {
	client := nutrition.NewFDCClient(nutrition.FDCConfig{})
	_, err := client.Search(context.Background(), "rice")
	assert.ErrorIs(t, err, nutrition.ErrMissingAPIKey)
}

func TestMatches(t *testing.T) {
	tests := []struct {
		query, description string
		want               bool
	}{
		{"pad thai", "PAD THAI, restaurant", true},
		{"green curry", "Curry powder", true},
		{"fried rice", "Beef, ground", false},
		{"7up", "7UP soda", false},
		{"", "anything", false},
		{"rice", "Ricer attachment", true},
	}

	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.query+"|"+tt.description, " ", "_"), func(t *testing.T) {
			assert.Equal(t, tt.want, nutrition.Matches(tt.query, tt.description))
		})
	}
}
