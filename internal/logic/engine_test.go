package logic

import (
	"testing"

	"github.com/vantagecare/questionnaire-service/internal/models"
)

func showRule(questionID uint, operator models.ConditionOperator, value interface{}) *models.ConditionalRule {
	return &models.ConditionalRule{
		Conditions: []models.Condition{{QuestionID: questionID, Operator: operator, Value: value}},
		Combinator: models.CombinatorAnd,
		Action:     models.ActionShow,
	}
}

func answer(questionID uint, value interface{}) models.Answer {
	return models.Answer{QuestionID: questionID, Value: value}
}

func TestEngine_Visibility(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Order: 1, Type: models.Boolean, Text: "Do you smoke?"},
		{ID: 2, Order: 2, Type: models.Number, Text: "How many per day?",
			ConditionalLogic: showRule(1, models.OperatorEquals, true)},
		{ID: 3, Order: 3, Type: models.ShortText, Text: "Anything else?"},
	}

	t.Run("conditional question hidden without trigger answer", func(t *testing.T) {
		e := NewEngine(questions, nil, nil)
		visible := e.VisibleQuestions()
		if len(visible) != 2 {
			t.Fatalf("expected 2 visible questions, got %d", len(visible))
		}
		if visible[0].ID != 1 || visible[1].ID != 3 {
			t.Errorf("unexpected visible set %v, %v", visible[0].ID, visible[1].ID)
		}
	})

	t.Run("conditional question shown once trigger answered", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, true)}, nil)
		if len(e.VisibleQuestions()) != 3 {
			t.Errorf("expected all 3 questions visible")
		}
	})

	t.Run("hide action inverts evaluation", func(t *testing.T) {
		qs := []models.Question{
			{ID: 1, Order: 1, Type: models.Boolean},
			{ID: 2, Order: 2, Type: models.ShortText,
				ConditionalLogic: &models.ConditionalRule{
					Conditions: []models.Condition{{QuestionID: 1, Operator: models.OperatorEquals, Value: true}},
					Combinator: models.CombinatorAnd,
					Action:     models.ActionHide,
				}},
		}
		e := NewEngine(qs, []models.Answer{answer(1, true)}, nil)
		if len(e.VisibleQuestions()) != 1 {
			t.Errorf("expected question 2 hidden")
		}
		e.UpdateAnswers([]models.Answer{answer(1, false)})
		if len(e.VisibleQuestions()) != 2 {
			t.Errorf("expected question 2 visible again")
		}
	})

	t.Run("questions returned in order regardless of input order", func(t *testing.T) {
		shuffled := []models.Question{questions[2], questions[0], questions[1]}
		e := NewEngine(shuffled, []models.Answer{answer(1, true)}, nil)
		visible := e.VisibleQuestions()
		for i := 1; i < len(visible); i++ {
			if visible[i-1].Order > visible[i].Order {
				t.Fatalf("questions out of order: %v", visible)
			}
		}
	})
}

func TestEngine_Combinators(t *testing.T) {
	rule := &models.ConditionalRule{
		Conditions: []models.Condition{
			{QuestionID: 1, Operator: models.OperatorGreaterThan, Value: 5},
			{QuestionID: 2, Operator: models.OperatorEquals, Value: "yes"},
		},
		Combinator: models.CombinatorAnd,
		Action:     models.ActionShow,
	}
	questions := []models.Question{
		{ID: 1, Order: 1, Type: models.Number},
		{ID: 2, Order: 2, Type: models.ShortText},
		{ID: 3, Order: 3, Type: models.ShortText, ConditionalLogic: rule},
	}

	t.Run("AND requires every condition", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, 7)}, nil)
		if len(e.VisibleQuestions()) != 2 {
			t.Errorf("expected question 3 hidden with one condition unmet")
		}
		e.UpdateAnswers([]models.Answer{answer(1, 7), answer(2, "yes")})
		if len(e.VisibleQuestions()) != 3 {
			t.Errorf("expected question 3 visible with both conditions met")
		}
	})

	t.Run("OR requires any condition", func(t *testing.T) {
		orRule := *rule
		orRule.Combinator = models.CombinatorOr
		qs := make([]models.Question, len(questions))
		copy(qs, questions)
		qs[2].ConditionalLogic = &orRule

		e := NewEngine(qs, []models.Answer{answer(2, "yes")}, nil)
		if len(e.VisibleQuestions()) != 3 {
			t.Errorf("expected question 3 visible with one OR condition met")
		}
	})

	t.Run("condition on unanswered question is false", func(t *testing.T) {
		e := NewEngine(questions, nil, nil)
		if len(e.VisibleQuestions()) != 2 {
			t.Errorf("expected question 3 hidden with no answers")
		}
	})
}

func TestEngine_Operators(t *testing.T) {
	cases := []struct {
		name     string
		operator models.ConditionOperator
		target   interface{}
		answer   interface{}
		want     bool
	}{
		{"equals numeric cross-type", models.OperatorEquals, 5, 5.0, true},
		{"equals string", models.OperatorEquals, "yes", "yes", true},
		{"not_equals", models.OperatorNotEquals, "yes", "no", true},
		{"greater_than", models.OperatorGreaterThan, 10, 11, true},
		{"greater_than equal is false", models.OperatorGreaterThan, 10, 10, false},
		{"less_than", models.OperatorLessThan, 10, 9, true},
		{"greater_than non-numeric is false", models.OperatorGreaterThan, 10, "lots", false},
		{"contains list membership", models.OperatorContains, "b", []string{"a", "b"}, true},
		{"contains list miss", models.OperatorContains, "z", []string{"a", "b"}, false},
		{"contains substring", models.OperatorContains, "pain", "chest pain at night", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			questions := []models.Question{
				{ID: 1, Order: 1},
				{ID: 2, Order: 2, ConditionalLogic: &models.ConditionalRule{
					Conditions: []models.Condition{{QuestionID: 1, Operator: tc.operator, Value: tc.target}},
					Combinator: models.CombinatorAnd,
					Action:     models.ActionShow,
				}},
			}
			e := NewEngine(questions, []models.Answer{answer(1, tc.answer)}, nil)
			got := len(e.VisibleQuestions()) == 2
			if got != tc.want {
				t.Errorf("expected visible=%v, got %v", tc.want, got)
			}
		})
	}
}

func TestEngine_DynamicRequired(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Order: 1, Type: models.Boolean},
		{ID: 2, Order: 2, Type: models.ShortText, ConditionalLogic: &models.ConditionalRule{
			Conditions: []models.Condition{{QuestionID: 1, Operator: models.OperatorEquals, Value: true}},
			Combinator: models.CombinatorAnd,
			Action:     models.ActionRequire,
		}},
	}

	t.Run("require rule never hides the question", func(t *testing.T) {
		e := NewEngine(questions, nil, nil)
		if len(e.VisibleQuestions()) != 2 {
			t.Errorf("expected both questions visible")
		}
		if e.IsRequired(&questions[1]) {
			t.Errorf("expected question 2 optional before trigger")
		}
	})

	t.Run("require rule flips required when triggered", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, true)}, nil)
		if !e.IsRequired(&questions[1]) {
			t.Errorf("expected question 2 required after trigger")
		}

		check := e.ValidateRequired()
		if check.IsValid {
			t.Fatal("expected missing required question")
		}
		if len(check.MissingQuestions) != 1 || check.MissingQuestions[0] != 2 {
			t.Errorf("expected question 2 missing, got %v", check.MissingQuestions)
		}

		e.UpdateAnswers([]models.Answer{answer(1, true), answer(2, "details")})
		if check := e.ValidateRequired(); !check.IsValid {
			t.Errorf("expected valid after answering, got %v", check.MissingQuestions)
		}
	})
}

func TestEngine_Progress(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Order: 1, Type: models.ShortText},
		{ID: 2, Order: 2, Type: models.ShortText},
		{ID: 3, Order: 3, Type: models.ShortText},
	}

	t.Run("empty engine", func(t *testing.T) {
		e := NewEngine(nil, nil, nil)
		p := e.Progress()
		if p.Total != 0 || p.Current != 0 || p.Percentage != 0 {
			t.Errorf("expected zero progress, got %+v", p)
		}
	})

	t.Run("rounds to nearest percent", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, "a")}, nil)
		p := e.Progress()
		if p.Current != 1 || p.Total != 3 || p.Percentage != 33 {
			t.Errorf("expected 1/3 = 33%%, got %+v", p)
		}

		e.UpdateAnswers([]models.Answer{answer(1, "a"), answer(2, "b")})
		if p := e.Progress(); p.Percentage != 67 {
			t.Errorf("expected 2/3 = 67%%, got %+v", p)
		}
	})

	t.Run("empty answers do not count", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, "")}, nil)
		if p := e.Progress(); p.Current != 0 {
			t.Errorf("expected empty answer ignored, got %+v", p)
		}
	})

	t.Run("hidden questions excluded from total", func(t *testing.T) {
		qs := []models.Question{
			{ID: 1, Order: 1, Type: models.Boolean},
			{ID: 2, Order: 2, ConditionalLogic: showRule(1, models.OperatorEquals, true)},
		}
		e := NewEngine(qs, []models.Answer{answer(1, false)}, nil)
		if p := e.Progress(); p.Total != 1 || p.Percentage != 100 {
			t.Errorf("expected 1/1 = 100%%, got %+v", p)
		}
	})
}

func TestEngine_EarlyTermination(t *testing.T) {
	questions := []models.Question{
		{ID: 1, Order: 1, Type: models.Number, Text: "Severity 0-10"},
		{ID: 2, Order: 2, Type: models.ShortText, ConditionalLogic: &models.ConditionalRule{
			Conditions: []models.Condition{{QuestionID: 1, Operator: models.OperatorGreaterThan, Value: 8}},
			Combinator: models.CombinatorAnd,
			Action:     models.ActionEndSurvey,
		}},
		{ID: 3, Order: 3, Type: models.ShortText},
		{ID: 4, Order: 4, Type: models.ShortText},
	}

	t.Run("not terminated below threshold", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, 5)}, nil)
		state := e.Termination()
		if state.EarlyTermination {
			t.Fatal("unexpected termination")
		}
		if len(e.VisibleQuestions()) != 4 {
			t.Errorf("expected all questions visible")
		}
	})

	t.Run("terminates past threshold and hides later questions", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, 9)}, nil)
		state := e.Termination()
		if !state.EarlyTermination {
			t.Fatal("expected termination")
		}
		if state.TotalQuestionsShown != 2 {
			t.Errorf("expected 2 questions shown, got %d", state.TotalQuestionsShown)
		}
		if state.QuestionsSkipped != 2 {
			t.Errorf("expected 2 questions skipped, got %d", state.QuestionsSkipped)
		}

		visible := e.VisibleQuestions()
		if len(visible) != 2 {
			t.Fatalf("expected 2 visible questions after termination, got %d", len(visible))
		}
		if visible[len(visible)-1].ID != 2 {
			t.Errorf("expected question 2 to be the last visible question")
		}
	})

	t.Run("termination is sticky across answer updates", func(t *testing.T) {
		e := NewEngine(questions, []models.Answer{answer(1, 9)}, nil)
		e.UpdateAnswers([]models.Answer{answer(1, 3)})
		if !e.Termination().EarlyTermination {
			t.Errorf("expected termination to survive the lowered answer")
		}
		if len(e.VisibleQuestions()) != 2 {
			t.Errorf("expected later questions to stay hidden")
		}
	})
}
