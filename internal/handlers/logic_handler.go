package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vantagecare/questionnaire-service/internal/logic"
	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/utils"
	"github.com/vantagecare/questionnaire-service/internal/validation"
)

// LogicHandler evaluates conditional logic and answer validation for the
// rendering layer. Both operations are stateless per request: the client
// sends the question list and current answers each time.
type LogicHandler struct {
	BaseHandler
}

func NewLogicHandler(logger utils.Logger) *LogicHandler {
	return &LogicHandler{BaseHandler: NewBaseHandler(logger)}
}

type evaluateRequest struct {
	Questions []models.Question `json:"questions" binding:"required"`
	Answers   []models.Answer   `json:"answers"`
}

type evaluateResponse struct {
	VisibleQuestions []models.Question      `json:"visible_questions"`
	Progress         logic.Progress         `json:"progress"`
	RequiredCheck    logic.RequiredCheck    `json:"required_check"`
	Termination      logic.TerminationState `json:"termination"`
}

// Evaluate returns the full conditional-logic view of a partially answered
// questionnaire: visibility, progress, required-field status and
// early-termination state.
func (h *LogicHandler) Evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	engine := logic.NewEngine(req.Questions, req.Answers, utils.ToSlog(h.logger))
	c.JSON(http.StatusOK, evaluateResponse{
		VisibleQuestions: engine.VisibleQuestions(),
		Progress:         engine.Progress(),
		RequiredCheck:    engine.ValidateRequired(),
		Termination:      engine.Termination(),
	})
}

type validateAnswerRequest struct {
	Question models.Question `json:"question" binding:"required"`
	Value    interface{}     `json:"value"`
}

// ValidateAnswer checks one answer against its question's rules.
func (h *LogicHandler) ValidateAnswer(c *gin.Context) {
	var req validateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	c.JSON(http.StatusOK, validation.ValidateAnswer(&req.Question, req.Value))
}

// ValidateRules reports authoring-time conditional rule problems such as
// forward references.
func (h *LogicHandler) ValidateRules(c *gin.Context) {
	var req struct {
		Questions []models.Question `json:"questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	problems := logic.ValidateRules(req.Questions)
	c.JSON(http.StatusOK, gin.H{
		"is_valid": len(problems) == 0,
		"problems": problems,
	})
}
