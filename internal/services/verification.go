package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/neuroresolv/backend/internal/apierr"
	"github.com/neuroresolv/backend/internal/clients/oracle"
	"github.com/neuroresolv/backend/internal/clients/pinecone"
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

const verificationPassThreshold = 0.6

// VerificationQuestion is one element of the questions jsonb payload.
type VerificationQuestion struct {
	ID            int    `json:"id"`
	Type          string `json:"type"`
	Question      string `json:"question"`
	ConceptTested string `json:"concept_tested,omitempty"`
}

// QuestionEvaluation is the per-question grading verdict.
type QuestionEvaluation struct {
	QuestionID int     `json:"question_id"`
	Score      float64 `json:"score"`
	Feedback   string  `json:"feedback"`
}

// GradeResult is what a quiz submission returns to the handler.
type GradeResult struct {
	Quiz                *types.VerificationQuiz `json:"quiz"`
	Score               float64                 `json:"score"`
	Passed              bool                    `json:"passed"`
	Evaluations         []QuestionEvaluation    `json:"evaluations"`
	ConceptsToReinforce []string                `json:"concepts_to_reinforce"`
}

type VerificationService interface {
	Generate(ctx context.Context, userID, progressLogID uuid.UUID) (*types.VerificationQuiz, error)
	Grade(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*GradeResult, error)
}

type verificationService struct {
	db  *gorm.DB
	log *logger.Logger

	progressLogRepo repos.ProgressLogRepo
	quizRepo        repos.VerificationQuizRepo
	resolutionRepo  repos.ResolutionRepo
	milestoneRepo   repos.MilestoneRepo

	streaks   StreakService
	recovery  RecoveryService
	analytics AnalyticsService

	ai           oracle.Client
	contentStore pinecone.ContentStore
}

func NewVerificationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	progressLogRepo repos.ProgressLogRepo,
	quizRepo repos.VerificationQuizRepo,
	resolutionRepo repos.ResolutionRepo,
	milestoneRepo repos.MilestoneRepo,
	streaks StreakService,
	recovery RecoveryService,
	analytics AnalyticsService,
	ai oracle.Client,
	contentStore pinecone.ContentStore,
) VerificationService {
	return &verificationService{
		db:              db,
		log:             baseLog.With("service", "VerificationService"),
		progressLogRepo: progressLogRepo,
		quizRepo:        quizRepo,
		resolutionRepo:  resolutionRepo,
		milestoneRepo:   milestoneRepo,
		streaks:         streaks,
		recovery:        recovery,
		analytics:       analytics,
		ai:              ai,
		contentStore:    contentStore,
	}
}

// Generate returns the quiz for a progress log, creating it on first call.
// Repeat calls return the stored quiz unchanged, so a learner cannot reroll
// an unwelcome set of questions.
func (s *verificationService) Generate(ctx context.Context, userID, progressLogID uuid.UUID) (*types.VerificationQuiz, error) {
	progressLog, resolution, err := s.ownedLog(ctx, userID, progressLogID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.quizRepo.GetByProgressLog(ctx, nil, progressLogID); err == nil {
		return existing, nil
	} else if ae := apierr.From(err); ae == nil || ae.Status != 404 {
		return nil, err
	}

	groundingContext := s.grounding(ctx, resolution.ID, progressLog)

	questions, usedOracle := s.generateQuestions(ctx, resolution, progressLog, groundingContext)
	if !usedOracle {
		s.log.Warn("verification quiz generation fell back to deterministic questions", "progress_log_id", progressLogID)
	}

	quizType := types.QuizTypeTeachBack
	if groundingContext != "" {
		quizType = types.QuizTypeContextual
	}

	payload, err := json.Marshal(questions)
	if err != nil {
		return nil, err
	}

	quiz := &types.VerificationQuiz{
		ProgressLogID: progressLogID,
		Questions:     datatypes.JSON(payload),
		QuizType:      quizType,
	}
	if _, err := s.quizRepo.Create(ctx, nil, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *verificationService) ownedLog(ctx context.Context, userID, progressLogID uuid.UUID) (*types.ProgressLog, *types.Resolution, error) {
	progressLog, err := s.progressLogRepo.GetByID(ctx, nil, progressLogID)
	if err != nil {
		return nil, nil, err
	}
	resolution, err := s.resolutionRepo.GetByID(ctx, nil, progressLog.ResolutionID)
	if err != nil {
		return nil, nil, err
	}
	if resolution.UserID != userID {
		return nil, nil, apierr.NotFound("progress log")
	}
	return progressLog, resolution, nil
}

// grounding retrieves matching study material for the claim. Best effort:
// no source reference, no index, or an upstream error all mean empty
// context, never a failed request.
func (s *verificationService) grounding(ctx context.Context, resolutionID uuid.UUID, progressLog *types.ProgressLog) string {
	if strings.TrimSpace(progressLog.SourceReference) == "" || s.contentStore == nil {
		return ""
	}
	vectors, err := s.ai.Embed(ctx, []string{progressLog.Content})
	if err != nil || len(vectors) == 0 {
		s.log.Warn("claim embedding failed, generating without grounding", "error", err)
		return ""
	}
	texts, err := s.contentStore.QueryTexts(ctx, resolutionID, vectors[0], 4)
	if err != nil {
		s.log.Warn("content store query failed, generating without grounding", "error", err)
		return ""
	}
	return strings.Join(texts, "\n---\n")
}

func (s *verificationService) generateQuestions(ctx context.Context, resolution *types.Resolution, progressLog *types.ProgressLog, groundingContext string) ([]VerificationQuestion, bool) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":             map[string]any{"type": "integer"},
						"type":           map[string]any{"type": "string", "enum": []string{"concept", "application", "comparison", "recall", "teach_back"}},
						"question":       map[string]any{"type": "string"},
						"concept_tested": map[string]any{"type": "string"},
					},
					"required":             []string{"id", "type", "question", "concept_tested"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"questions"},
		"additionalProperties": false,
	}

	system := "You verify that a learner actually studied what they claim. " +
		"Write 3 to 5 probing questions about the claimed material. The final question " +
		"must be of type teach_back, asking the learner to explain the core idea in their own words."
	user := fmt.Sprintf("Goal: %s\nSkill level: %s\nToday's claim: %s", resolution.GoalStatement, resolution.SkillLevel, progressLog.Content)
	if groundingContext != "" {
		user += "\n\nExcerpts from the learner's own study material:\n" + groundingContext
	}

	raw, err := s.ai.GenerateJSON(ctx, system, user, "verification_quiz", schema)
	if err != nil {
		return fallbackVerificationQuiz(progressLog), false
	}
	questions := parseQuestions(raw)
	if len(questions) < 3 {
		return fallbackVerificationQuiz(progressLog), false
	}
	return questions, true
}

func parseQuestions(raw map[string]any) []VerificationQuestion {
	items, ok := raw["questions"].([]any)
	if !ok {
		return nil
	}
	out := make([]VerificationQuestion, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		question, _ := m["question"].(string)
		if strings.TrimSpace(question) == "" {
			continue
		}
		qType, _ := m["type"].(string)
		concept, _ := m["concept_tested"].(string)
		out = append(out, VerificationQuestion{
			Type:          qType,
			Question:      question,
			ConceptTested: concept,
		})
	}
	if len(out) > 5 {
		out = out[:5]
	}
	// ids are renumbered locally; model-chosen ids are untrusted
	for i := range out {
		out[i].ID = i + 1
	}
	return out
}

// fallbackVerificationQuiz keeps verification available when the oracle is
// not. Three fixed probes: recall, application, teach back.
func fallbackVerificationQuiz(progressLog *types.ProgressLog) []VerificationQuestion {
	topic := strings.TrimSpace(progressLog.Content)
	if len(topic) > 120 {
		topic = topic[:120] + "..."
	}
	return []VerificationQuestion{
		{
			ID:       1,
			Type:     "recall",
			Question: fmt.Sprintf("Summarize the main points of what you studied today (%s).", topic),
		},
		{
			ID:       2,
			Type:     "application",
			Question: "Describe one concrete way you could apply what you learned today.",
		},
		{
			ID:       3,
			Type:     "teach_back",
			Question: "Explain the core idea to someone who has never seen this subject before.",
		},
	}
}

// Grade scores a submission exactly once. The quiz row, progress log update
// and streak update commit in one transaction; a fallback grade commits the
// same way, so a cancelled request never leaves a half-graded quiz.
func (s *verificationService) Grade(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*GradeResult, error) {
	var result *GradeResult
	var resolutionID uuid.UUID
	var failedResolution *types.Resolution
	var failedLog *types.ProgressLog

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.quizRepo.GetByIDForUpdate(ctx, tx, quizID)
		if err != nil {
			return err
		}
		progressLog, err := s.progressLogRepo.GetByID(ctx, tx, quiz.ProgressLogID)
		if err != nil {
			return err
		}
		resolution, err := s.resolutionRepo.GetByID(ctx, tx, progressLog.ResolutionID)
		if err != nil {
			return err
		}
		if resolution.UserID != userID {
			return apierr.NotFound("verification quiz")
		}
		if quiz.IsCompleted {
			return apierr.Conflict("quiz already submitted")
		}
		resolutionID = resolution.ID

		var questions []VerificationQuestion
		if err := json.Unmarshal(quiz.Questions, &questions); err != nil {
			return err
		}
		if len(answers) != len(questions) {
			return apierr.BadRequest(fmt.Sprintf("expected %d answers, got %d", len(questions), len(answers)))
		}

		grade := s.gradeAnswers(ctx, questions, answers)

		responses, err := json.Marshal(map[string]any{
			"answers":     answers,
			"evaluations": grade.Evaluations,
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.quizRepo.UpdateFields(ctx, tx, quiz.ID, map[string]interface{}{
			"responses":    datatypes.JSON(responses),
			"score":        grade.Score,
			"passed":       grade.Passed,
			"is_completed": true,
			"completed_at": now,
		}); err != nil {
			return err
		}

		logFields := map[string]interface{}{
			"verified":           grade.Passed,
			"verification_score": grade.Score,
		}
		if concepts := testedConcepts(questions); len(concepts) > 0 && len(progressLog.ConceptsClaimed) == 0 {
			claimed, err := json.Marshal(concepts)
			if err == nil {
				logFields["concepts_claimed"] = datatypes.JSON(claimed)
			}
		}
		if err := s.progressLogRepo.UpdateFields(ctx, tx, progressLog.ID, logFields); err != nil {
			return err
		}

		if grade.Passed {
			if _, err := s.streaks.RecordVerifiedDay(ctx, tx, resolution.ID, progressLog.Date); err != nil {
				return err
			}
		} else {
			failedResolution = resolution
			failedLog = progressLog
		}

		quiz.Responses = datatypes.JSON(responses)
		quiz.Score = &grade.Score
		quiz.Passed = &grade.Passed
		quiz.IsCompleted = true
		quiz.CompletedAt = &now
		grade.Quiz = quiz
		result = grade
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.analytics.Record(ctx, resolutionID, types.EventVerificationQuizCompleted, map[string]any{
		"quiz_id": quizID.String(),
	}, map[string]any{
		"score":  result.Score,
		"passed": result.Passed,
	}, &result.Score)

	// Failure with an active milestone gets an advisory recovery analysis.
	// It never mutates the milestone and never fails the submission.
	if failedResolution != nil {
		s.runRecovery(ctx, failedResolution, failedLog, result)
	}

	return result, nil
}

func (s *verificationService) gradeAnswers(ctx context.Context, questions []VerificationQuestion, answers []string) *GradeResult {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"evaluations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id": map[string]any{"type": "integer"},
						"score":       map[string]any{"type": "number"},
						"feedback":    map[string]any{"type": "string"},
					},
					"required":             []string{"question_id", "score", "feedback"},
					"additionalProperties": false,
				},
			},
			"overall_score":         map[string]any{"type": "number"},
			"passed":                map[string]any{"type": "boolean"},
			"concepts_to_reinforce": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []string{"evaluations", "overall_score", "passed", "concepts_to_reinforce"},
		"additionalProperties": false,
	}

	var prompt strings.Builder
	prompt.WriteString("Grade the learner's answers holistically. Score each answer 0 to 1, ")
	prompt.WriteString(fmt.Sprintf("then give an overall score; the learner passes at %.0f%% or better understanding.\n\n", verificationPassThreshold*100))
	for i, q := range questions {
		prompt.WriteString(fmt.Sprintf("Q%d (%s): %s\nAnswer: %s\n\n", q.ID, q.Type, q.Question, answers[i]))
	}

	raw, err := s.ai.GenerateJSON(ctx,
		"You grade verification quizzes about self-reported learning. Reward genuine understanding, not keyword matching.",
		prompt.String(), "verification_grading", schema)
	if err != nil {
		s.log.Warn("verification grading fell back to neutral grade", "error", err)
		return fallbackGrade(questions)
	}

	grade, ok := parseGrade(raw)
	if !ok {
		s.log.Warn("verification grading payload invalid, using neutral grade")
		return fallbackGrade(questions)
	}
	return grade
}

func parseGrade(raw map[string]any) (*GradeResult, bool) {
	overall, ok := raw["overall_score"].(float64)
	if !ok || overall < 0 || overall > 1 {
		return nil, false
	}
	passed, ok := raw["passed"].(bool)
	if !ok {
		return nil, false
	}
	result := &GradeResult{Score: overall, Passed: passed}
	if items, ok := raw["evaluations"].([]any); ok {
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := m["question_id"].(float64)
			score, _ := m["score"].(float64)
			feedback, _ := m["feedback"].(string)
			result.Evaluations = append(result.Evaluations, QuestionEvaluation{
				QuestionID: int(id),
				Score:      score,
				Feedback:   feedback,
			})
		}
	}
	if concepts, ok := raw["concepts_to_reinforce"].([]any); ok {
		for _, c := range concepts {
			if s, ok := c.(string); ok && strings.TrimSpace(s) != "" {
				result.ConceptsToReinforce = append(result.ConceptsToReinforce, s)
			}
		}
	}
	return result, true
}

// fallbackGrade trusts the learner when grading is unavailable: neutral 0.5
// score, passed. Degrading toward trust beats blocking a streak on an
// outage.
func fallbackGrade(questions []VerificationQuestion) *GradeResult {
	evaluations := make([]QuestionEvaluation, 0, len(questions))
	for _, q := range questions {
		evaluations = append(evaluations, QuestionEvaluation{
			QuestionID: q.ID,
			Score:      0.5,
			Feedback:   "Unable to provide detailed feedback. Marked as verified.",
		})
	}
	return &GradeResult{Score: 0.5, Passed: true, Evaluations: evaluations}
}

func testedConcepts(questions []VerificationQuestion) []string {
	seen := map[string]bool{}
	var out []string
	for _, q := range questions {
		concept := strings.TrimSpace(q.ConceptTested)
		if concept == "" || seen[concept] {
			continue
		}
		seen[concept] = true
		out = append(out, concept)
	}
	return out
}

func (s *verificationService) runRecovery(ctx context.Context, resolution *types.Resolution, progressLog *types.ProgressLog, grade *GradeResult) {
	milestones, err := s.milestoneRepo.ListByResolution(ctx, nil, resolution.ID)
	if err != nil {
		s.log.Warn("recovery skipped, milestone lookup failed", "error", err)
		return
	}
	var active *types.Milestone
	for _, m := range milestones {
		if m.Status == types.MilestoneStatusInProgress {
			active = m
			break
		}
	}
	if active == nil {
		return
	}
	if _, err := s.recovery.AnalyzeFailure(ctx, resolution, active, progressLog, grade); err != nil {
		s.log.Warn("recovery analysis failed", "error", err)
	}
}
