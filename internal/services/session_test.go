package services

import (
	"testing"

	"github.com/neuroresolv/backend/internal/types"
)

func TestParseSyllabusRenumbersAndTruncates(t *testing.T) {
	raw := map[string]any{
		"days": []any{
			map[string]any{"day": float64(4), "title": "Basics", "summary": "s", "concepts": []any{"a", "b"}},
			map[string]any{"day": float64(9), "title": "More", "summary": "s", "concepts": []any{"c"}},
			map[string]any{"day": float64(1), "title": "Extra", "summary": "s", "concepts": []any{}},
		},
	}
	days := parseSyllabus(raw, 2)
	if len(days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(days))
	}
	if days[0].Day != 1 || days[1].Day != 2 {
		t.Fatalf("days must be renumbered sequentially, got %d and %d", days[0].Day, days[1].Day)
	}
	if len(days[0].Concepts) != 2 {
		t.Fatalf("expected concepts preserved, got %v", days[0].Concepts)
	}
}

func TestParseSyllabusSkipsUntitledDays(t *testing.T) {
	raw := map[string]any{
		"days": []any{
			map[string]any{"day": float64(1), "title": " ", "summary": "s", "concepts": []any{}},
			map[string]any{"day": float64(2), "title": "Real", "summary": "s", "concepts": []any{}},
		},
	}
	days := parseSyllabus(raw, 10)
	if len(days) != 1 || days[0].Title != "Real" {
		t.Fatalf("expected only the titled day, got %+v", days)
	}
}

func TestFallbackSyllabusCoversEveryDay(t *testing.T) {
	resolution := &types.Resolution{GoalStatement: "learn Go"}
	days := fallbackSyllabus(resolution, 30)
	if len(days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(days))
	}
	for i, d := range days {
		if d.Day != i+1 {
			t.Fatalf("day %d numbered %d", i, d.Day)
		}
	}
}

func TestParseQuizQuestionsValidation(t *testing.T) {
	raw := map[string]any{
		"questions": []any{
			// valid multiple choice
			map[string]any{
				"question_type": types.QuestionTypeMultipleChoice, "question_text": "q1",
				"options": []any{"a", "b", "c"}, "correct_answer": "a", "concept": "x", "difficulty": "easy",
			},
			// multiple choice with one option is dropped
			map[string]any{
				"question_type": types.QuestionTypeMultipleChoice, "question_text": "q2",
				"options": []any{"a"}, "correct_answer": "a", "concept": "x", "difficulty": "easy",
			},
			// true/false gets canonical options
			map[string]any{
				"question_type": types.QuestionTypeTrueFalse, "question_text": "q3",
				"options": []any{"yes", "no"}, "correct_answer": "true", "concept": "y", "difficulty": "medium",
			},
			// unknown type is dropped
			map[string]any{
				"question_type": "essay", "question_text": "q4",
				"options": []any{}, "correct_answer": "a", "concept": "z", "difficulty": "hard",
			},
			// missing answer is dropped
			map[string]any{
				"question_type": types.QuestionTypeShortAnswer, "question_text": "q5",
				"options": []any{}, "correct_answer": " ", "concept": "z", "difficulty": "hard",
			},
		},
	}
	questions := parseQuizQuestions(raw)
	if len(questions) != 2 {
		t.Fatalf("expected 2 surviving questions, got %d", len(questions))
	}
	if questions[0].QuestionText != "q1" || questions[1].QuestionText != "q3" {
		t.Fatalf("wrong questions survived: %q, %q", questions[0].QuestionText, questions[1].QuestionText)
	}
	if string(questions[1].Options) != `["true","false"]` {
		t.Fatalf("true/false options not canonical: %s", questions[1].Options)
	}
}

func TestFallbackSessionQuizMeetsMinimum(t *testing.T) {
	session := &types.DailySession{Title: "Pointers"}
	questions := fallbackSessionQuiz(session, []string{"pointers", "addresses"})
	if len(questions) < 5 {
		t.Fatalf("fallback quiz must have at least 5 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.Concept == "" {
			t.Fatalf("question %d has no concept", i)
		}
	}
}

func TestFallbackSessionQuizCapsAtSeven(t *testing.T) {
	session := &types.DailySession{Title: "Big day"}
	concepts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	questions := fallbackSessionQuiz(session, concepts)
	if len(questions) != 7 {
		t.Fatalf("expected 7 questions, got %d", len(questions))
	}
}
