package services

import (
	"strings"
	"testing"

	"github.com/neuroresolv/backend/internal/types"
)

func TestParseQuestionsRenumbersAndCaps(t *testing.T) {
	raw := map[string]any{
		"questions": []any{
			map[string]any{"id": float64(9), "type": "recall", "question": "q1", "concept_tested": "a"},
			map[string]any{"id": float64(2), "type": "application", "question": "q2", "concept_tested": "b"},
			map[string]any{"id": float64(5), "type": "comparison", "question": "q3", "concept_tested": "a"},
			map[string]any{"id": float64(1), "type": "concept", "question": "q4", "concept_tested": "c"},
			map[string]any{"id": float64(7), "type": "recall", "question": "q5", "concept_tested": "d"},
			map[string]any{"id": float64(3), "type": "teach_back", "question": "q6", "concept_tested": "e"},
		},
	}
	questions := parseQuestions(raw)
	if len(questions) != 5 {
		t.Fatalf("expected cap at 5 questions, got %d", len(questions))
	}
	for i, q := range questions {
		if q.ID != i+1 {
			t.Fatalf("question %d has id %d, expected sequential renumbering", i, q.ID)
		}
	}
}

func TestParseQuestionsSkipsBlankQuestions(t *testing.T) {
	raw := map[string]any{
		"questions": []any{
			map[string]any{"id": float64(1), "type": "recall", "question": "  ", "concept_tested": "a"},
			map[string]any{"id": float64(2), "type": "recall", "question": "real", "concept_tested": "b"},
		},
	}
	questions := parseQuestions(raw)
	if len(questions) != 1 || questions[0].Question != "real" {
		t.Fatalf("expected only the non-blank question, got %+v", questions)
	}
}

func TestFallbackVerificationQuizShape(t *testing.T) {
	entry := &types.ProgressLog{Content: strings.Repeat("x", 300)}
	questions := fallbackVerificationQuiz(entry)
	if len(questions) != 3 {
		t.Fatalf("expected 3 fallback questions, got %d", len(questions))
	}
	wantTypes := []string{"recall", "application", "teach_back"}
	for i, q := range questions {
		if q.Type != wantTypes[i] {
			t.Fatalf("question %d: expected type %q, got %q", i, wantTypes[i], q.Type)
		}
		if q.ID != i+1 {
			t.Fatalf("question %d: expected id %d, got %d", i, i+1, q.ID)
		}
	}
	if len(questions[0].Question) > 200 {
		t.Fatalf("topic should be truncated, question is %d chars", len(questions[0].Question))
	}
}

func TestParseGradeRejectsOutOfRangeScore(t *testing.T) {
	for _, overall := range []float64{-0.1, 1.1} {
		_, ok := parseGrade(map[string]any{"overall_score": overall, "passed": true})
		if ok {
			t.Fatalf("score %v should be rejected", overall)
		}
	}
}

func TestParseGradeMissingPassedRejected(t *testing.T) {
	if _, ok := parseGrade(map[string]any{"overall_score": 0.8}); ok {
		t.Fatalf("grade without passed flag should be rejected")
	}
}

func TestParseGradeCollectsEvaluationsAndConcepts(t *testing.T) {
	grade, ok := parseGrade(map[string]any{
		"overall_score": 0.75,
		"passed":        true,
		"evaluations": []any{
			map[string]any{"question_id": float64(1), "score": 0.9, "feedback": "good"},
			map[string]any{"question_id": float64(2), "score": 0.6, "feedback": "thin"},
		},
		"concepts_to_reinforce": []any{"recursion", " ", "closures"},
	})
	if !ok {
		t.Fatalf("valid grade rejected")
	}
	if grade.Score != 0.75 || !grade.Passed {
		t.Fatalf("unexpected grade: %+v", grade)
	}
	if len(grade.Evaluations) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(grade.Evaluations))
	}
	if len(grade.ConceptsToReinforce) != 2 {
		t.Fatalf("blank concepts should be dropped, got %v", grade.ConceptsToReinforce)
	}
}

func TestFallbackGradeTrustsTheLearner(t *testing.T) {
	questions := []VerificationQuestion{{ID: 1}, {ID: 2}, {ID: 3}}
	grade := fallbackGrade(questions)
	if grade.Score != 0.5 || !grade.Passed {
		t.Fatalf("fallback grade should be 0.5/passed, got %v/%v", grade.Score, grade.Passed)
	}
	if len(grade.Evaluations) != len(questions) {
		t.Fatalf("expected one evaluation per question, got %d", len(grade.Evaluations))
	}
	for _, e := range grade.Evaluations {
		if e.Feedback != "Unable to provide detailed feedback. Marked as verified." {
			t.Fatalf("unexpected fallback feedback %q", e.Feedback)
		}
	}
}

func TestTestedConceptsDeduplicates(t *testing.T) {
	questions := []VerificationQuestion{
		{ConceptTested: "a"},
		{ConceptTested: "b"},
		{ConceptTested: "a"},
		{ConceptTested: "  "},
	}
	got := testedConcepts(questions)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected [a b], got %v", got)
	}
}
