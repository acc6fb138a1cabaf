package api

import (
	"errors"
	"net/http"
	"strings"

	"calore-bot/internal/chat"
	"calore-bot/pkg/api"

	"github.com/go-chi/chi/v5"
)

type ChatService struct {
	store     *chat.Store
	detector  chat.Detector
	retriever chat.Retriever
}

func NewChatService(store *chat.Store, detector chat.Detector, retriever chat.Retriever) *ChatService {
	return &ChatService{
		store:     store,
		detector:  detector,
		retriever: retriever,
	}
}

func (s *ChatService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(s.Health))

	r.Route("/chat", func(r chi.Router) {
		r.Post("/sessions", RestHandler(s.StartSession))
		r.Get("/sessions/{session_id}", RestHandler(s.GetSession))
		r.Delete("/sessions/{session_id}", RestHandler(s.DeleteSession))
		r.Post("/sessions/{session_id}/messages", RestHandler(s.SendMessage))
		r.Get("/sessions/{session_id}/history", RestHandler(s.GetHistory))
	})

	r.Route("/foods", func(r chi.Router) {
		r.Get("/detect", RestHandler(s.DetectFood))
		r.Get("/nutrition", RestHandler(s.LookupNutrition))
	})
}

func (s *ChatService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "ok"}, nil
}

func (s *ChatService) StartSession(r *http.Request) (any, error) {
	session := s.store.Create()
	return api.StartSessionResponse{SessionID: session.ID}, nil
}

func (s *ChatService) session(r *http.Request) (*chat.Session, error) {
	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil, sessionError(err)
	}
	return session, nil
}

func sessionError(err error) error {
	if errors.Is(err, chat.ErrSessionNotFound) {
		return CodedError(http.StatusNotFound, err)
	}
	return CodedError(http.StatusInternalServerError, err)
}

func (s *ChatService) GetSession(r *http.Request) (any, error) {
	session, err := s.session(r)
	if err != nil {
		return nil, err
	}

	return api.SessionInfo{
		ID:        session.ID,
		LastFood:  session.LastFood,
		TurnCount: len(session.Turns),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}, nil
}

func (s *ChatService) DeleteSession(r *http.Request) (any, error) {
	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(sessionID); err != nil {
		return nil, sessionError(err)
	}
	return nil, nil
}

func (s *ChatService) SendMessage(r *http.Request) (any, error) {
	sessionID, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SendMessageRequest](r)
	if err != nil {
		return nil, err
	}

	reply, err := s.store.Send(r.Context(), sessionID, req.Message)
	if err != nil {
		return nil, sessionError(err)
	}

	return api.SendMessageResponse{
		Reply:  reply.Text,
		Food:   reply.Food,
		Source: string(reply.Source),
	}, nil
}

func (s *ChatService) GetHistory(r *http.Request) (any, error) {
	session, err := s.session(r)
	if err != nil {
		return nil, err
	}

	history := make([]api.ChatHistoryItem, 0, len(session.Turns))
	for _, turn := range session.Turns {
		history = append(history, api.ChatHistoryItem{Role: turn.Role, Content: turn.Content})
	}
	return history, nil
}

func (s *ChatService) DetectFood(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.DetectFoodParams](r)
	if err != nil {
		return nil, err
	}

	food, found := s.detector.Detect(params.Text)
	return api.DetectFoodResponse{
		Food:     food,
		Found:    found,
		Followup: s.detector.IsFollowup(params.Text),
	}, nil
}

func (s *ChatService) LookupNutrition(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.NutritionParams](r)
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(params.Query)
	if query == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "query parameter is required")
	}

	candidates := []string{query}
	if food, ok := s.detector.Detect(query); ok {
		candidates = s.detector.Candidates(food)
	}

	record, ok := s.retriever.Retrieve(r.Context(), candidates...)
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "no nutrition record found for '%s'", query)
	}

	return api.NutritionRecord{
		Name:          record.Name,
		EnergyKcal:    record.EnergyKcal,
		ProteinG:      record.ProteinG,
		FatG:          record.FatG,
		CarbohydrateG: record.CarbohydrateG,
	}, nil
}
