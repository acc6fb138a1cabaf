package chat

import (
	"context"
	"log/slog"
	"strings"

	"calore-bot/internal/llm"
	"calore-bot/internal/nutrition"
)

type Source string

const (
	SourceGrounded Source = "grounded"
	SourceEstimate Source = "estimate"
	SourceClarify  Source = "clarify"
)

type Reply struct {
	Text   string
	Food   string
	Source Source
}

type Detector interface {
	Detect(text string) (string, bool)
	IsFollowup(text string) bool
	Candidates(term string) []string
}

type Retriever interface {
	Retrieve(ctx context.Context, candidates ...string) (*nutrition.Record, bool)
}

// Orchestrator runs one conversational turn: resolve the food, look it up,
// then answer from the retrieved facts or fall back to an estimate.
type Orchestrator struct {
	detector        Detector
	retriever       Retriever
	generator       llm.Generator
	defaultLanguage string
}

func NewOrchestrator(detector Detector, retriever Retriever, generator llm.Generator, defaultLanguage string) *Orchestrator {
	if defaultLanguage == "" {
		defaultLanguage = "Thai"
	}
	return &Orchestrator{
		detector:        detector,
		retriever:       retriever,
		generator:       generator,
		defaultLanguage: defaultLanguage,
	}
}

func (o *Orchestrator) HandleTurn(ctx context.Context, session *Session, text string) string {
	return o.Respond(ctx, session, text).Text
}

// Respond always produces a reply and records the user message and the reply
// on the session, in that order.
func (o *Orchestrator) Respond(ctx context.Context, session *Session, text string) Reply {
	reply := o.respond(ctx, session, text)
	session.appendTurn(llm.RoleUser, text)
	session.appendTurn(llm.RoleAssistant, reply.Text)
	return reply
}

func (o *Orchestrator) respond(ctx context.Context, session *Session, text string) Reply {
	food := o.resolveFood(session, text)
	if food == "" {
		slog.Info("no food resolved, asking for clarification", "session_id", session.ID)
		return Reply{Text: clarification(o.defaultLanguage), Source: SourceClarify}
	}

	if record, ok := o.retriever.Retrieve(ctx, o.detector.Candidates(food)...); ok {
		slog.Info("answering from nutrition record", "session_id", session.ID, "food", food, "record", record.Name)
		return Reply{Text: o.answer(ctx, text, record), Food: food, Source: SourceGrounded}
	}

	slog.Info("no nutrition record found, estimating", "session_id", session.ID, "food", food)
	return Reply{Text: o.estimate(ctx, text), Food: food, Source: SourceEstimate}
}

func (o *Orchestrator) resolveFood(session *Session, text string) string {
	if food, ok := o.detector.Detect(text); ok {
		session.LastFood = food
		return food
	}
	if o.detector.IsFollowup(text) && session.LastFood != "" {
		return session.LastFood
	}
	return ""
}

func (o *Orchestrator) answer(ctx context.Context, query string, record *nutrition.Record) string {
	block := contextBlock(record)
	if llm.IsDegraded(o.generator) {
		return factsOnly(block)
	}
	req := llm.NewDeterministicRequest(groundedSystemPrompt, llm.Message{
		Role:    llm.RoleUser,
		Content: groundedQuestion(block, query, responseLanguage(query, o.defaultLanguage)),
	})

	reply, err := o.generator.Generate(ctx, req)
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Error("grounded answer failed, returning raw facts", "record", record.Name, "error", err)
		return factsOnly(block)
	}
	return strings.TrimSpace(reply)
}

func factsOnly(block string) string {
	return llm.UnavailablePrefix + " Nutrition facts from USDA FoodData Central:\n" + block
}

func (o *Orchestrator) estimate(ctx context.Context, query string) string {
	req := llm.NewDeterministicRequest(personaPrompt, llm.Message{Role: llm.RoleUser, Content: query})

	reply, err := o.generator.Generate(ctx, req)
	if err != nil || strings.TrimSpace(reply) == "" {
		slog.Error("estimate failed", "error", err)
		return serviceUnavailable
	}
	return strings.TrimSpace(reply)
}
