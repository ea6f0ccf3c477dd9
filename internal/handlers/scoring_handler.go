package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vantagecare/questionnaire-service/internal/models"
	"github.com/vantagecare/questionnaire-service/internal/services"
	"github.com/vantagecare/questionnaire-service/internal/utils"
)

// ScoringHandler exposes the scoring configuration store and the scoring
// engine over HTTP.
type ScoringHandler struct {
	BaseHandler
	service   services.ScoringConfigService
	exporter  services.ExportService
	validator *utils.Validator
}

func NewScoringHandler(
	service services.ScoringConfigService,
	exporter services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *ScoringHandler {
	return &ScoringHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		exporter:    exporter,
		validator:   validator,
	}
}

// ===== CONFIGURATION CRUD =====

func (h *ScoringHandler) CreateConfiguration(c *gin.Context) {
	var config models.ScoringConfiguration
	if err := c.ShouldBindJSON(&config); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(&config); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	created, err := h.service.CreateConfiguration(c.Request.Context(), &config)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "scoring configuration created", created)
}

func (h *ScoringHandler) GetConfiguration(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}

	config, err := h.service.GetConfiguration(c.Request.Context(), id)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func (h *ScoringHandler) ListConfigurations(c *gin.Context) {
	questionnaireID, ok := ParseUintParam(c, "questionnaire_id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid questionnaire id", nil)
		return
	}

	configs, err := h.service.ListConfigurations(c.Request.Context(), questionnaireID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (h *ScoringHandler) UpdateConfiguration(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}

	var config models.ScoringConfiguration
	if err := c.ShouldBindJSON(&config); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	config.ID = id
	if err := h.validator.ValidateStruct(&config); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	updated, err := h.service.UpdateConfiguration(c.Request.Context(), &config)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ScoringHandler) DeleteConfiguration(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}

	if err := h.service.DeleteConfiguration(c.Request.Context(), id); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "scoring configuration deleted", nil)
}

func (h *ScoringHandler) SetDefaultConfiguration(c *gin.Context) {
	id, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}

	if err := h.service.SetDefaultConfiguration(c.Request.Context(), id); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "default configuration set", nil)
}

// ValidateConfiguration gives authoring-time feedback without persisting.
func (h *ScoringHandler) ValidateConfiguration(c *gin.Context) {
	var config models.ScoringConfiguration
	if err := c.ShouldBindJSON(&config); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	problems := h.service.ValidateConfiguration(&config)
	c.JSON(http.StatusOK, gin.H{
		"is_valid": len(problems) == 0,
		"problems": problems,
	})
}

// ===== RULE CRUD =====

func (h *ScoringHandler) AddRule(c *gin.Context) {
	configID, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}

	var rule models.ScoringRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(&rule); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	config, err := h.service.AddRule(c.Request.Context(), configID, &rule)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusCreated, "scoring rule added", config)
}

func (h *ScoringHandler) UpdateRule(c *gin.Context) {
	configID, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}
	ruleID, ok := ParseUintParam(c, "rule_id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid rule id", nil)
		return
	}

	var rule models.ScoringRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	rule.ID = ruleID

	config, err := h.service.UpdateRule(c.Request.Context(), configID, &rule)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

func (h *ScoringHandler) DeleteRule(c *gin.Context) {
	configID, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}
	ruleID, ok := ParseUintParam(c, "rule_id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid rule id", nil)
		return
	}

	config, err := h.service.DeleteRule(c.Request.Context(), configID, ruleID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, config)
}

// ===== SCORING =====

func (h *ScoringHandler) CalculateScore(c *gin.Context) {
	var req services.CalculateScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	result, err := h.service.CalculateScore(c.Request.Context(), &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ScoringHandler) GetResult(c *gin.Context) {
	configID, ok := ParseUintParam(c, "id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid configuration id", nil)
		return
	}
	responseID := c.Param("response_id")

	result, err := h.service.GetResult(c.Request.Context(), responseID, configID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ===== ANALYTICS / EXPORT =====

func (h *ScoringHandler) GetAnalytics(c *gin.Context) {
	questionnaireID, ok := ParseUintParam(c, "questionnaire_id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid questionnaire id", nil)
		return
	}
	configID := optionalUintQuery(c, "config_id")

	analytics, err := h.service.GetAnalytics(c.Request.Context(), questionnaireID, configID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics)
}

func (h *ScoringHandler) ExportResults(c *gin.Context) {
	questionnaireID, ok := ParseUintParam(c, "questionnaire_id")
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "invalid questionnaire id", nil)
		return
	}
	configID := optionalUintQuery(c, "config_id")

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		data, err := h.exporter.ExportResultsToCSV(c.Request.Context(), questionnaireID, configID)
		if err != nil {
			h.RespondWithServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="score_results.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "xlsx":
		data, err := h.exporter.ExportResultsToExcel(c.Request.Context(), questionnaireID, configID)
		if err != nil {
			h.RespondWithServiceError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="score_results.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		h.RespondWithError(c, http.StatusBadRequest, "unsupported export format", nil)
	}
}

func optionalUintQuery(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(v)
	return &id
}
