// Package router assembles the gin engine: global middleware, swagger,
// health check and the /api/v1 routes.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "pocketbook/internal/docs" // swagger docs
	"pocketbook/internal/handlers"
	"pocketbook/internal/middleware"
	"pocketbook/internal/services"
)

// Services bundles the business services the routes depend on.
type Services struct {
	User        services.UserServicer
	Category    services.CategoryServicer
	Budget      services.BudgetServicer
	Transaction services.TransactionServicer
	Report      services.ReportServicer
	SavingGoal  services.SavingGoalServicer
	Audit       services.AuditServicer
}

// New builds the HTTP engine. pipelineAPIKey guards the internal routes;
// when it is empty those routes answer 503.
func New(svc Services, pipelineAPIKey string) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.User, svc.Audit)
	userHandler := handlers.NewUserHandler(svc.User, svc.Audit)
	categoryHandler := handlers.NewCategoryHandler(svc.Category, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budget, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Audit)
	reportHandler := handlers.NewReportHandler(svc.Report, svc.Audit)
	savingGoalHandler := handlers.NewSavingGoalHandler(svc.SavingGoal, svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/verify-email", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Trusted callers
	internal := v1.Group("/internal")
	internal.Use(middleware.PipelineAuthMiddleware(pipelineAPIKey))
	internal.POST("/reports/generate", reportHandler.GenerateReport)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	users := protected.Group("/users")
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.PATCH("/:id/parent", categoryHandler.ReparentCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.SearchBudgets)
	budgets.GET("/active", budgetHandler.GetActiveBudget)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.POST("/:id/activate", budgetHandler.ActivateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	reports := protected.Group("/reports")
	reports.GET("", reportHandler.GetUserReports)
	reports.GET("/:id", reportHandler.GetReportDetail)
	reports.GET("/:id/export", reportHandler.ExportReport)
	reports.DELETE("/:id", reportHandler.DeleteReport)

	savingGoals := protected.Group("/saving-goals")
	savingGoals.POST("", savingGoalHandler.CreateSavingGoal)
	savingGoals.GET("", savingGoalHandler.GetUserSavingGoals)
	savingGoals.GET("/:id", savingGoalHandler.GetSavingGoal)
	savingGoals.PUT("/:id", savingGoalHandler.UpdateSavingGoal)
	savingGoals.DELETE("/:id", savingGoalHandler.DeleteSavingGoal)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
