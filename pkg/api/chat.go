package api

import (
	"time"

	"github.com/google/uuid"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type StartSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
}

type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	LastFood  string    `json:"last_food"`
	TurnCount int       `json:"turn_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse carries the assistant reply. Source is one of grounded,
// estimate or clarify, and Food is empty when the reply asks for clarification.
type SendMessageResponse struct {
	Reply  string `json:"reply"`
	Food   string `json:"food"`
	Source string `json:"source"`
}

type ChatHistoryItem struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type DetectFoodParams struct {
	Text string `schema:"text"`
}

type DetectFoodResponse struct {
	Food     string `json:"food"`
	Found    bool   `json:"found"`
	Followup bool   `json:"followup"`
}

type NutritionParams struct {
	Query string `schema:"query,required"`
}

// NutritionRecord values are per 100 g. A nutrient the database did not
// report is null.
type NutritionRecord struct {
	Name          string   `json:"name"`
	EnergyKcal    *float64 `json:"energy_kcal"`
	ProteinG      *float64 `json:"protein_g"`
	FatG          *float64 `json:"fat_g"`
	CarbohydrateG *float64 `json:"carbohydrate_g"`
}
