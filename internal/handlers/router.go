package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/vantagecare/questionnaire-service/internal/services"
	"github.com/vantagecare/questionnaire-service/internal/utils"
)

type HandlerManager struct {
	scoringHandler *ScoringHandler
	logicHandler   *LogicHandler
}

func NewHandlerManager(
	scoringService services.ScoringConfigService,
	exportService services.ExportService,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		scoringHandler: NewScoringHandler(scoringService, exportService, validator, logger),
		logicHandler:   NewLogicHandler(logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Scoring configuration routes
		configs := v1.Group("/scoring-configs")
		{
			configs.POST("", hm.scoringHandler.CreateConfiguration)
			configs.GET("/:id", hm.scoringHandler.GetConfiguration)
			configs.PUT("/:id", hm.scoringHandler.UpdateConfiguration)
			configs.DELETE("/:id", hm.scoringHandler.DeleteConfiguration)
			configs.POST("/:id/default", hm.scoringHandler.SetDefaultConfiguration)
			configs.POST("/validate", hm.scoringHandler.ValidateConfiguration)

			// Rule management
			configs.POST("/:id/rules", hm.scoringHandler.AddRule)
			configs.PUT("/:id/rules/:rule_id", hm.scoringHandler.UpdateRule)
			configs.DELETE("/:id/rules/:rule_id", hm.scoringHandler.DeleteRule)

			// Result lookup
			configs.GET("/:id/results/:response_id", hm.scoringHandler.GetResult)
		}

		// Questionnaire-scoped routes
		questionnaires := v1.Group("/questionnaires")
		{
			questionnaires.GET("/:questionnaire_id/scoring-configs", hm.scoringHandler.ListConfigurations)
			questionnaires.GET("/:questionnaire_id/analytics", hm.scoringHandler.GetAnalytics)
			questionnaires.GET("/:questionnaire_id/results/export", hm.scoringHandler.ExportResults)
		}

		// Scoring
		scores := v1.Group("/scores")
		{
			scores.POST("/calculate", hm.scoringHandler.CalculateScore)
		}

		// Conditional logic routes
		logicGroup := v1.Group("/logic")
		{
			logicGroup.POST("/evaluate", hm.logicHandler.Evaluate)
			logicGroup.POST("/validate-answer", hm.logicHandler.ValidateAnswer)
			logicGroup.POST("/validate-rules", hm.logicHandler.ValidateRules)
		}
	}
}
