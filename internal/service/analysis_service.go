package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"oneiro/internal/ai"
	"oneiro/internal/models"
	"oneiro/internal/observability"
	"oneiro/internal/repository"
)

// pastDreamLimit bounds how much dream history is folded into the
// interpretation prompt.
const pastDreamLimit = 5

const jungianSystemPrompt = `You are a warm, insightful psychological counselor with deep knowledge of Jungian analytical psychology.
Your task is to provide a profound yet VERY EASY TO UNDERSTAND analysis of the user's dream based on Carl Jung's concepts.

Key Analysis Requirements (Translate concepts into everyday language):
1. **Unconscious & Archetypes**: Explain the deeper unconscious meaning using friendly terms. Instead of harsh terms like "Archetypes (Shadow, Anima)", use phrases like "내면의 상징적 인물 (그림자, 진정한 나 등)".
2. **Symbolism**: Interpret symbols by connecting them to the dreamer's daily life, emotions, and psychological state, using relatable analogies.
3. **Individuation**: Instead of "Individuation", talk about "자아 성장과 진정한 내 모습을 찾아가는 과정" (The process of personal growth and finding one's true self).
4. **Emotional Tone**: Analyze the emotions felt in the dream and offer warm, counseling-style comfort.
5. **Continuous Analysis**: If past dreams are provided, connect the current dream to them. Identify recurring themes or show how the psychological state has evolved over time.

Tone:
- Warm, empathetic, encouraging, and easy to read (like a friendly counseling session).
- Avoid overly academic, mystical, or difficult psychological jargon. Use middle-school level Korean.
- Go deep into the meaning, but explain it simply.

IMPORTANT: You MUST respond with ONLY a valid JSON object. No markdown, no code blocks. Use this exact structure:
{
  "overall_interpretation": "A detailed, comforting, and easy-to-understand synthesis of the dream's meaning. Minimum 300 characters.",
  "archetypes": ["List of core characters/symbols found. Format: '상징 이름: 꿈에서 이 상징이 어떤 의미인지 쉬운 설명'"],
  "symbols": {"상징 이름": "이 상징이 나타내는 쉽고 공감가는 의미"},
  "psychological_state": "Assessment of the dreamer's current internal state in friendly terms.",
  "individuation_insights": "Warm guidance on how this dream helps their personal growth and finding their true self.",
  "recommendations": "Concrete, actionable, and gentle advice for reflection or daily life (e.g., journaling, small actions)."
}

Language: Korean (Natural, warm, comforting and VERY EASY Korean).`

// AnalysisResult is what an interpretation run returns to the caller.
// The structured analysis includes the insight fields that are not
// persisted.
type AnalysisResult struct {
	AnalysisID int64
	Analysis   models.StructuredAnalysis
}

// AnalysisService orchestrates dream interpretation: it loads the dream
// with the dreamer's profile, builds the prompt, calls the model, and
// persists the structured result.
type AnalysisService struct {
	dreamRepo    repository.DreamRepository
	analysisRepo repository.AnalysisRepository
	userRepo     repository.UserRepository
	client       ai.Client
	logger       *slog.Logger
}

func NewAnalysisService(
	dreamRepo repository.DreamRepository,
	analysisRepo repository.AnalysisRepository,
	userRepo repository.UserRepository,
	client ai.Client,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		dreamRepo:    dreamRepo,
		analysisRepo: analysisRepo,
		userRepo:     userRepo,
		client:       client,
		logger:       logger,
	}
}

// Analyze interprets the dream owned by userID. Another user's dream is
// indistinguishable from a missing one.
func (s *AnalysisService) Analyze(ctx context.Context, dreamID, userID int64) (*AnalysisResult, error) {
	if s.client == nil {
		return nil, models.NewUpstreamError("AI analysis is not configured", nil)
	}

	dream, err := s.dreamRepo.GetForUser(ctx, dreamID, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	past, err := s.dreamRepo.ListRecentByUser(ctx, userID, dream.Date, pastDreamLimit)
	if err != nil {
		return nil, err
	}

	prompt := buildJungianPrompt(dream.Content, user.BirthDate, user.Gender, past)

	raw, err := s.client.Complete(ctx, jungianSystemPrompt, prompt)
	if err != nil {
		observability.AnalysisRequests.WithLabelValues("upstream_error").Inc()
		return nil, models.NewUpstreamError("AI analysis failed", err)
	}

	structured := parseStructuredAnalysis(raw)
	if structured.fellBack {
		observability.AnalysisRequests.WithLabelValues("fallback").Inc()
		s.logger.Warn("Analysis response was not valid JSON, embedding raw text",
			slog.Int64("dream_id", dreamID))
	} else {
		observability.AnalysisRequests.WithLabelValues("success").Inc()
	}

	record := &models.Analysis{
		DreamID:            dreamID,
		Interpretation:     structured.analysis.Interpretation,
		Archetypes:         structured.analysis.Archetypes,
		Symbols:            structured.analysis.Symbols,
		PsychologicalState: structured.analysis.PsychologicalState,
	}
	if err := s.analysisRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return &AnalysisResult{AnalysisID: record.ID, Analysis: structured.analysis}, nil
}

// GetLatest returns the most recent analysis for a dream the user owns.
func (s *AnalysisService) GetLatest(ctx context.Context, dreamID, userID int64) (*models.Analysis, error) {
	owned, err := s.dreamRepo.OwnedBy(ctx, dreamID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, models.NewNotFoundError("Dream")
	}
	return s.analysisRepo.GetLatestByDream(ctx, dreamID)
}

func buildJungianPrompt(content, birthDate, gender string, past []models.Dream) string {
	var b strings.Builder
	b.WriteString("Please analyze the following dream from a Jungian perspective:\n\n")
	b.WriteString("Dream Content:\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	if birthDate != "" {
		fmt.Fprintf(&b, "Dreamer's Birth Date: %s\n", birthDate)
	}
	if gender != "" {
		fmt.Fprintf(&b, "Gender: %s\n", gender)
	}

	if len(past) > 0 {
		b.WriteString("\n--- Past Dreams of the User ---\n")
		for i, pd := range past {
			fmt.Fprintf(&b, "Dream %d (%s):\nTitle: %s\nContent: %s\n\n", i+1, pd.Date, pd.Title, pd.Content)
		}
		b.WriteString("Please analyze the NEW dream not just in isolation, but on a continuum with these past dreams. Discuss any recurring symbols, themes, or the progression of the user's individuation process and psychological growth based on Jung's theory.\n")
	}

	b.WriteString("\nProvide a warm, easy-to-understand psychological analysis focusing on inner symbols, emotions, and the journey to finding one's true self.")
	return b.String()
}

type parsedAnalysis struct {
	analysis models.StructuredAnalysis
	fellBack bool
}

// parseStructuredAnalysis decodes the model response, tolerating
// markdown code fences. A response that is not valid JSON is not an
// error: its raw text becomes the interpretation, with the structured
// fields left empty.
func parseStructuredAnalysis(raw string) parsedAnalysis {
	text := stripCodeFences(raw)

	var structured models.StructuredAnalysis
	if err := json.Unmarshal([]byte(text), &structured); err != nil {
		return parsedAnalysis{
			analysis: models.StructuredAnalysis{
				Interpretation:     text,
				Archetypes:         []string{},
				Symbols:            map[string]string{},
				PsychologicalState: "분석 결과를 구조화하지 못했습니다.",
				Insights:           "현재 이 꿈에 대한 추가적인 내면 성장 조언을 불러올 수 없습니다.",
				Recommendations:    "특별한 성찰 제안이 해석되지 않았습니다.",
			},
			fellBack: true,
		}
	}
	if structured.Archetypes == nil {
		structured.Archetypes = []string{}
	}
	if structured.Symbols == nil {
		structured.Symbols = map[string]string{}
	}
	return parsedAnalysis{analysis: structured}
}

func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
