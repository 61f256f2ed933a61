package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/trooth-app/assessment-api/config"
	"github.com/trooth-app/assessment-api/database"
	adminctrl "github.com/trooth-app/assessment-api/internal/controller/admin"
	userctrl "github.com/trooth-app/assessment-api/internal/controller/user"
	"github.com/trooth-app/assessment-api/internal/logger"
	"github.com/trooth-app/assessment-api/internal/model"
	"github.com/trooth-app/assessment-api/internal/repository"
	"github.com/trooth-app/assessment-api/internal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Trooth Assessment API
// @version 1.0
// @description Progressive assessment scoring API. Submissions get an immediate baseline score and are enriched asynchronously with AI feedback.
// @contact.name API Support
// @contact.email support@trooth.app
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewScoreRecordRepository,
			repository.NewTemplateRepository,
		),

		// Services layer
		fx.Provide(
			service.NewBaselineScorer,
			service.NewCategoryAggregator,
			service.NewHistoryLinker,
			service.NewNotifier,
			service.NewGeminiScoreBackend,
			service.NewEnrichmentWorker,
			service.NewSubmissionCoordinator,
			service.NewStatusTracker,
			service.NewAdminTemplateService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewAdminTemplateController,
			userctrl.NewAssessmentController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartEnrichmentWorker),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// StartEnrichmentWorker ties the background scoring pool to the fx lifecycle so
// in-flight records finish before shutdown.
func StartEnrichmentWorker(lc fx.Lifecycle, worker service.EnrichmentWorker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			worker.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			worker.Stop()
			return nil
		},
	})
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminTemplateCtrl *adminctrl.AdminTemplateController,
	assessmentCtrl *userctrl.AssessmentController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		templatesGroup := adminAPIGroup.Group("/templates")
		templatesGroup.POST("", adminTemplateCtrl.CreateTemplate)
		templatesGroup.GET("/:template_id", adminTemplateCtrl.GetTemplate)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.POST("/assessments", assessmentCtrl.SubmitAssessment)
		userAPIGroup.GET("/assessments/:record_id/status", assessmentCtrl.GetRecordStatus)
		userAPIGroup.GET("/assessments/:record_id", assessmentCtrl.GetRecord)
		userAPIGroup.GET("/subjects/:subject_id/assessments", assessmentCtrl.ListSubjectRecords)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessment API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.AssessmentTemplate{},
		&model.Question{},
		&model.QuestionOption{},
		&model.ScoreRecord{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
