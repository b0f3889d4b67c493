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
	"github.com/neuroresolv/backend/internal/logger"
	"github.com/neuroresolv/backend/internal/repos"
	"github.com/neuroresolv/backend/internal/types"
)

// sessionQuizPassThreshold is the fraction of quiz credit needed to advance
// to the next day.
const sessionQuizPassThreshold = 0.7

type SessionService interface {
	// BuildPlan generates the syllabus and the day-by-day sessions for a new
	// resolution. Session bodies are filled in lazily on first view.
	BuildPlan(ctx context.Context, resolution *types.Resolution) error
	Today(ctx context.Context, userID, resolutionID uuid.UUID) (*types.DailySession, error)
	Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.DailySession, error)
	List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.DailySession, error)
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*types.DailySession, error)
	GenerateQuiz(ctx context.Context, userID, sessionID uuid.UUID) (*types.SessionQuiz, error)
	SubmitQuiz(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*SessionQuizResult, error)
}

type SessionQuizResult struct {
	Quiz      *types.SessionQuiz           `json:"quiz"`
	Score     float64                      `json:"score"`
	Passed    bool                         `json:"passed"`
	Responses []*types.SessionQuizResponse `json:"responses"`
	// NextSession is the reinforcement session spliced in when the quiz was
	// failed, nil otherwise.
	NextSession *types.DailySession `json:"next_session,omitempty"`
}

type sessionService struct {
	db  *gorm.DB
	log *logger.Logger

	resolutionRepo repos.ResolutionRepo
	syllabusRepo   repos.SyllabusRepo
	sessionRepo    repos.DailySessionRepo
	quizRepo       repos.SessionQuizRepo

	metrics   MetricsService
	recovery  RecoveryService
	analytics AnalyticsService
	ai        oracle.Client
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	resolutionRepo repos.ResolutionRepo,
	syllabusRepo repos.SyllabusRepo,
	sessionRepo repos.DailySessionRepo,
	quizRepo repos.SessionQuizRepo,
	metrics MetricsService,
	recovery RecoveryService,
	analytics AnalyticsService,
	ai oracle.Client,
) SessionService {
	return &sessionService{
		db:             db,
		log:            baseLog.With("service", "SessionService"),
		resolutionRepo: resolutionRepo,
		syllabusRepo:   syllabusRepo,
		sessionRepo:    sessionRepo,
		quizRepo:       quizRepo,
		metrics:        metrics,
		recovery:       recovery,
		analytics:      analytics,
		ai:             ai,
	}
}

type syllabusDay struct {
	Day      int      `json:"day"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Concepts []string `json:"concepts"`
}

func (s *sessionService) BuildPlan(ctx context.Context, resolution *types.Resolution) error {
	if _, err := s.syllabusRepo.GetByResolution(ctx, nil, resolution.ID); err == nil {
		return apierr.Conflict("plan already generated")
	} else if apiErr := apierr.From(err); apiErr == nil || apiErr.Status != 404 {
		return err
	}

	totalDays := resolution.DurationDays
	if totalDays <= 0 {
		totalDays = 30
	}
	days := s.draftSyllabus(ctx, resolution, totalDays)

	content, err := json.Marshal(map[string]any{"days": days})
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.syllabusRepo.Create(ctx, tx, &types.Syllabus{
			ResolutionID: resolution.ID,
			Content:      datatypes.JSON(content),
			TotalDays:    len(days),
			GeneratedAt:  time.Now().UTC(),
		}); err != nil {
			return err
		}
		sessions := make([]*types.DailySession, 0, len(days))
		for _, day := range days {
			concepts, err := json.Marshal(day.Concepts)
			if err != nil {
				return err
			}
			sessions = append(sessions, &types.DailySession{
				ResolutionID: resolution.ID,
				DayNumber:    day.Day,
				Title:        day.Title,
				Summary:      day.Summary,
				Concepts:     datatypes.JSON(concepts),
			})
		}
		_, err := s.sessionRepo.CreateBatch(ctx, tx, sessions)
		return err
	})
}

func (s *sessionService) draftSyllabus(ctx context.Context, resolution *types.Resolution, totalDays int) []syllabusDay {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"day":     map[string]any{"type": "integer"},
						"title":   map[string]any{"type": "string"},
						"summary": map[string]any{"type": "string"},
						"concepts": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
					},
					"required":             []string{"day", "title", "summary", "concepts"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"days"},
		"additionalProperties": false,
	}

	user := fmt.Sprintf("Goal: %s\nSkill level: %s\nDays: %d\nMinutes per day: %d",
		resolution.GoalStatement, resolution.SkillLevel, totalDays, resolution.DailyTimeMinutes)

	raw, err := s.ai.GenerateJSON(ctx,
		fmt.Sprintf("Plan a %d-day syllabus. One entry per day with a title, a one-sentence summary, and 2 to 4 named concepts.", totalDays),
		user, "syllabus", schema)
	if err != nil {
		s.log.Warn("syllabus generation fell back to generic plan", "error", err)
		return fallbackSyllabus(resolution, totalDays)
	}
	days := parseSyllabus(raw, totalDays)
	if len(days) == 0 {
		return fallbackSyllabus(resolution, totalDays)
	}
	return days
}

// parseSyllabus renumbers days 1..n and drops anything past totalDays.
func parseSyllabus(raw map[string]any, totalDays int) []syllabusDay {
	items, ok := raw["days"].([]any)
	if !ok {
		return nil
	}
	var out []syllabusDay
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		if strings.TrimSpace(title) == "" {
			continue
		}
		summary, _ := m["summary"].(string)
		var concepts []string
		if rawConcepts, ok := m["concepts"].([]any); ok {
			for _, c := range rawConcepts {
				if text, ok := c.(string); ok && strings.TrimSpace(text) != "" {
					concepts = append(concepts, text)
				}
			}
		}
		out = append(out, syllabusDay{
			Day:      len(out) + 1,
			Title:    title,
			Summary:  summary,
			Concepts: concepts,
		})
		if len(out) == totalDays {
			break
		}
	}
	return out
}

func fallbackSyllabus(resolution *types.Resolution, totalDays int) []syllabusDay {
	out := make([]syllabusDay, 0, totalDays)
	for day := 1; day <= totalDays; day++ {
		out = append(out, syllabusDay{
			Day:     day,
			Title:   fmt.Sprintf("Day %d: %s", day, resolution.GoalStatement),
			Summary: "Study the next portion of the material and note what was hardest.",
			Concepts: []string{
				fmt.Sprintf("day %d fundamentals", day),
			},
		})
	}
	return out
}

func (s *sessionService) Today(ctx context.Context, userID, resolutionID uuid.UUID) (*types.DailySession, error) {
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID)
	if err != nil {
		return nil, err
	}
	session, err := s.sessionRepo.GetCurrentForDay(ctx, nil, resolutionID, resolution.CurrentDay)
	if err != nil {
		return nil, err
	}
	if session.Content == "" {
		session.Content = s.fillSessionContent(ctx, resolution, session)
	}
	return session, nil
}

// fillSessionContent writes the session body on first view. A failed write is
// not fatal; the body regenerates next time.
func (s *sessionService) fillSessionContent(ctx context.Context, resolution *types.Resolution, session *types.DailySession) string {
	var concepts []string
	_ = json.Unmarshal(session.Concepts, &concepts)
	prompt := fmt.Sprintf(
		"Write a focused %d-minute study lesson.\nGoal: %s\nSkill level: %s\nLesson: %s\nSummary: %s\nConcepts: %s",
		resolution.DailyTimeMinutes, resolution.GoalStatement, resolution.SkillLevel,
		session.Title, session.Summary, strings.Join(concepts, ", "))
	content, err := s.ai.GenerateText(ctx,
		"You write clear, practical study lessons with worked examples.", prompt)
	if err != nil || strings.TrimSpace(content) == "" {
		s.log.Warn("session content generation failed, using summary", "session_id", session.ID, "error", err)
		content = session.Summary
	}
	if err := s.sessionRepo.UpdateFields(ctx, nil, session.ID, map[string]interface{}{
		"content": content,
	}); err != nil {
		s.log.Warn("failed to persist session content", "session_id", session.ID, "error", err)
	}
	return content
}

func (s *sessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*types.DailySession, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	resolution, err := s.resolutionRepo.GetOwned(ctx, nil, userID, session.ResolutionID)
	if err != nil {
		return nil, apierr.NotFound("daily session")
	}
	if session.Content == "" {
		session.Content = s.fillSessionContent(ctx, resolution, session)
	}
	return session, nil
}

func (s *sessionService) List(ctx context.Context, userID, resolutionID uuid.UUID) ([]*types.DailySession, error) {
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, resolutionID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByResolution(ctx, nil, resolutionID)
}

func (s *sessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*types.DailySession, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsCompleted {
		return nil, apierr.Conflict("session already completed")
	}
	now := time.Now().UTC()
	if err := s.sessionRepo.UpdateFields(ctx, nil, sessionID, map[string]interface{}{
		"is_completed": true,
		"completed_at": now,
	}); err != nil {
		return nil, err
	}
	session.IsCompleted = true
	session.CompletedAt = &now
	return session, nil
}

func (s *sessionService) ownedSession(ctx context.Context, userID, sessionID uuid.UUID) (*types.DailySession, error) {
	session, err := s.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolutionRepo.GetOwned(ctx, nil, userID, session.ResolutionID); err != nil {
		return nil, apierr.NotFound("daily session")
	}
	return session, nil
}

func (s *sessionService) GenerateQuiz(ctx context.Context, userID, sessionID uuid.UUID) (*types.SessionQuiz, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if existing, err := s.quizRepo.GetBySession(ctx, nil, sessionID); err == nil {
		return existing, nil
	} else if apiErr := apierr.From(err); apiErr == nil || apiErr.Status != 404 {
		return nil, err
	}

	resolution, err := s.resolutionRepo.GetByID(ctx, nil, session.ResolutionID)
	if err != nil {
		return nil, err
	}
	questions := s.draftQuizQuestions(ctx, resolution, session)
	return s.quizRepo.CreateWithQuestions(ctx, nil, &types.SessionQuiz{DailySessionID: sessionID}, questions)
}

func (s *sessionService) draftQuizQuestions(ctx context.Context, resolution *types.Resolution, session *types.DailySession) []*types.SessionQuizQuestion {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_type": map[string]any{
							"type": "string",
							"enum": []string{
								types.QuestionTypeMultipleChoice,
								types.QuestionTypeTrueFalse,
								types.QuestionTypeShortAnswer,
							},
						},
						"question_text": map[string]any{"type": "string"},
						"options": map[string]any{
							"type":  "array",
							"items": map[string]any{"type": "string"},
						},
						"correct_answer": map[string]any{"type": "string"},
						"concept":        map[string]any{"type": "string"},
						"difficulty": map[string]any{
							"type": "string",
							"enum": []string{"easy", "medium", "hard"},
						},
					},
					"required":             []string{"question_type", "question_text", "options", "correct_answer", "concept", "difficulty"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"questions"},
		"additionalProperties": false,
	}

	var concepts []string
	_ = json.Unmarshal(session.Concepts, &concepts)

	user := fmt.Sprintf("Lesson: %s\nSummary: %s\nConcepts: %s\nLesson body:\n%s",
		session.Title, session.Summary, strings.Join(concepts, ", "), session.Content)

	raw, err := s.ai.GenerateJSON(ctx,
		"Write 5 to 7 quiz questions for this lesson, mixing multiple choice, true/false and short answer. Tag each with the concept it tests.",
		user, "session_quiz", schema)
	if err != nil {
		s.log.Warn("session quiz generation fell back to concept prompts", "error", err)
		return fallbackSessionQuiz(session, concepts)
	}
	questions := parseQuizQuestions(raw)
	if len(questions) < 5 {
		return fallbackSessionQuiz(session, concepts)
	}
	return questions
}

func parseQuizQuestions(raw map[string]any) []*types.SessionQuizQuestion {
	items, ok := raw["questions"].([]any)
	if !ok {
		return nil
	}
	var out []*types.SessionQuizQuestion
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		questionType, _ := m["question_type"].(string)
		questionText, _ := m["question_text"].(string)
		correct, _ := m["correct_answer"].(string)
		if strings.TrimSpace(questionText) == "" || strings.TrimSpace(correct) == "" {
			continue
		}
		concept, _ := m["concept"].(string)
		difficulty, _ := m["difficulty"].(string)
		if difficulty == "" {
			difficulty = "medium"
		}
		var options []string
		if rawOptions, ok := m["options"].([]any); ok {
			for _, o := range rawOptions {
				if text, ok := o.(string); ok {
					options = append(options, text)
				}
			}
		}
		switch questionType {
		case types.QuestionTypeMultipleChoice:
			if len(options) < 2 {
				continue
			}
		case types.QuestionTypeTrueFalse:
			options = []string{"true", "false"}
		case types.QuestionTypeShortAnswer:
			options = nil
		default:
			continue
		}
		encoded, err := json.Marshal(options)
		if err != nil {
			continue
		}
		out = append(out, &types.SessionQuizQuestion{
			QuestionType:  questionType,
			QuestionText:  questionText,
			Options:       datatypes.JSON(encoded),
			CorrectAnswer: correct,
			Concept:       concept,
			Difficulty:    difficulty,
		})
		if len(out) == 7 {
			break
		}
	}
	return out
}

// fallbackSessionQuiz keys one recall question to each lesson concept so the
// mastery rows still move when the question generator is down.
func fallbackSessionQuiz(session *types.DailySession, concepts []string) []*types.SessionQuizQuestion {
	if len(concepts) == 0 {
		concepts = []string{session.Title}
	}
	trueFalseOptions, _ := json.Marshal([]string{"true", "false"})
	noOptions, _ := json.Marshal([]string(nil))
	var out []*types.SessionQuizQuestion
	for _, concept := range concepts {
		out = append(out, &types.SessionQuizQuestion{
			QuestionType:  types.QuestionTypeShortAnswer,
			QuestionText:  fmt.Sprintf("In your own words, explain: %s", concept),
			Options:       datatypes.JSON(noOptions),
			CorrectAnswer: concept,
			Concept:       concept,
			Difficulty:    "medium",
		})
		if len(out) == 7 {
			return out
		}
	}
	for len(out) < 5 {
		out = append(out, &types.SessionQuizQuestion{
			QuestionType:  types.QuestionTypeTrueFalse,
			QuestionText:  fmt.Sprintf("Today's lesson %q covered material you had already mastered.", session.Title),
			Options:       datatypes.JSON(trueFalseOptions),
			CorrectAnswer: "false",
			Concept:       session.Title,
			Difficulty:    "easy",
		})
	}
	return out
}

func (s *sessionService) SubmitQuiz(ctx context.Context, userID, quizID uuid.UUID, answers []string) (*SessionQuizResult, error) {
	var (
		result     *SessionQuizResult
		resolution *types.Resolution
		session    *types.DailySession
		weak       []string
		strong     []string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.quizRepo.GetByIDForUpdate(ctx, tx, quizID)
		if err != nil {
			return err
		}
		session, err = s.sessionRepo.GetByID(ctx, tx, quiz.DailySessionID)
		if err != nil {
			return err
		}
		resolution, err = s.resolutionRepo.GetOwned(ctx, tx, userID, session.ResolutionID)
		if err != nil {
			return apierr.NotFound("session quiz")
		}
		if quiz.IsCompleted {
			return apierr.Conflict("quiz already submitted")
		}
		if len(answers) != len(quiz.Questions) {
			return apierr.BadRequest(fmt.Sprintf("expected %d answers, got %d", len(quiz.Questions), len(answers)))
		}

		responses, conceptResults, total := s.gradeAnswers(ctx, quiz.Questions, answers)
		score := 0.0
		if len(quiz.Questions) > 0 {
			score = total / float64(len(quiz.Questions))
		}
		passed := score >= sessionQuizPassThreshold

		if err := s.quizRepo.CreateResponses(ctx, tx, responses); err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.quizRepo.UpdateFields(ctx, tx, quiz.ID, map[string]interface{}{
			"is_completed": true,
			"score":        score,
			"passed":       passed,
			"completed_at": now,
		}); err != nil {
			return err
		}
		if err := s.metrics.ApplyResults(ctx, tx, resolution.ID, conceptResults); err != nil {
			return err
		}

		for _, cr := range conceptResults {
			if cr.Concept == "" {
				continue
			}
			if cr.Correct {
				strong = append(strong, cr.Concept)
			} else {
				weak = append(weak, cr.Concept)
			}
		}

		if passed {
			if err := s.sessionRepo.UpdateFields(ctx, tx, session.ID, map[string]interface{}{
				"is_completed": true,
				"completed_at": now,
			}); err != nil {
				return err
			}
			if session.DayNumber == resolution.CurrentDay {
				if err := s.resolutionRepo.UpdateFields(ctx, tx, resolution.ID, map[string]interface{}{
					"current_day": resolution.CurrentDay + 1,
				}); err != nil {
					return err
				}
			}
		}

		quiz.IsCompleted = true
		quiz.Score = &score
		quiz.Passed = &passed
		quiz.CompletedAt = &now
		result = &SessionQuizResult{
			Quiz:      quiz,
			Score:     score,
			Passed:    passed,
			Responses: responses,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.analytics.Record(ctx, resolution.ID, types.EventSessionQuizCompleted,
		map[string]any{"day": session.DayNumber},
		map[string]any{"passed": result.Passed, "weak_concepts": weak},
		&result.Score)

	if !result.Passed {
		next, err := s.recovery.AdaptSessionPath(ctx, nil, resolution, session, weak, strong)
		if err != nil {
			s.log.Warn("failed to splice reinforcement session", "session_id", session.ID, "error", err)
		} else {
			result.NextSession = next
		}
	}
	return result, nil
}

// gradeAnswers scores each answer and returns the response rows, the
// per-concept results and the total credit earned.
func (s *sessionService) gradeAnswers(ctx context.Context, questions []*types.SessionQuizQuestion, answers []string) ([]*types.SessionQuizResponse, []ConceptResult, float64) {
	responses := make([]*types.SessionQuizResponse, 0, len(questions))
	conceptResults := make([]ConceptResult, 0, len(questions))
	total := 0.0
	for i, question := range questions {
		answer := answers[i]
		var (
			credit   float64
			correct  bool
			feedback string
		)
		switch question.QuestionType {
		case types.QuestionTypeShortAnswer:
			credit, correct, feedback = s.gradeShortAnswer(ctx, question, answer)
		default:
			correct = strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(question.CorrectAnswer))
			if correct {
				credit = 1
				feedback = "Correct."
			} else {
				feedback = fmt.Sprintf("The correct answer was: %s", question.CorrectAnswer)
			}
		}
		total += credit
		responses = append(responses, &types.SessionQuizResponse{
			QuestionID: question.ID,
			Answer:     answer,
			IsCorrect:  correct,
			Feedback:   feedback,
		})
		conceptResults = append(conceptResults, ConceptResult{Concept: question.Concept, Correct: correct})
	}
	return responses, conceptResults, total
}

func (s *sessionService) gradeShortAnswer(ctx context.Context, question *types.SessionQuizQuestion, answer string) (float64, bool, string) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct": map[string]any{"type": "boolean"},
			"score":      map[string]any{"type": "number"},
			"feedback":   map[string]any{"type": "string"},
		},
		"required":             []string{"is_correct", "score", "feedback"},
		"additionalProperties": false,
	}
	user := fmt.Sprintf("Question: %s\nExpected answer: %s\nLearner's answer: %s",
		question.QuestionText, question.CorrectAnswer, answer)
	raw, err := s.ai.GenerateJSON(ctx,
		"Grade this short answer. Score 0 to 1 with partial credit, and give one sentence of feedback.",
		user, "short_answer_grade", schema)
	if err != nil {
		s.log.Warn("short answer grading fell back to partial credit", "error", err)
		return 0.5, false, "Answer noted for review."
	}
	score, _ := raw["score"].(float64)
	if score < 0 || score > 1 {
		return 0.5, false, "Answer noted for review."
	}
	correct, _ := raw["is_correct"].(bool)
	feedback, _ := raw["feedback"].(string)
	if feedback == "" {
		feedback = "Answer noted for review."
	}
	return score, correct, feedback
}
