package router

import (
	"net/http"
	"time"

	"github.com/Clean-PRO/backend/controllers"
	"github.com/Clean-PRO/backend/dispatch"
	"github.com/Clean-PRO/backend/middlewares"
	"github.com/Clean-PRO/backend/models"
	"github.com/Clean-PRO/backend/services"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is everything the handlers need.
type Deps struct {
	DB           *gorm.DB
	Orders       *services.OrderService
	Payments     *services.PaymentService
	Monitor      *services.PaymentMonitor
	Reviews      *services.ReviewService
	Mail         *services.MailService
	Hub          *dispatch.Hub
	OAuth        controllers.OAuthSettings
	CORSOrigin   string
	RateLimit    int
	Redis        *redis.Client
	StripeSecret string // webhook signing secret
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	if d.RateLimit > 0 {
		if d.Redis != nil {
			r.Use(middlewares.NewRedisRateLimiter(d.Redis, d.RateLimit, time.Minute, "cleanpro:rl").RateLimit())
		} else {
			r.Use(middlewares.NewRateLimiter(d.RateLimit, time.Minute).RateLimit())
		}
	}

	hub := d.Hub
	if hub == nil {
		hub = dispatch.Default()
	}

	authCtrl := controllers.NewAuthController(d.DB, d.Mail)
	oauthCtrl := controllers.NewOAuthController(d.DB, d.OAuth)
	userCtrl := controllers.NewUserController(d.DB)
	serviceCtrl := controllers.NewServiceController(d.DB)
	orderCtrl := controllers.NewOrderController(d.DB, d.Orders, d.Payments, d.Reviews, d.Mail)
	invoiceCtrl := controllers.NewInvoiceController(d.DB)
	ratingCtrl := controllers.NewRatingController(d.DB, d.Reviews)
	paymentCtrl := controllers.NewPaymentController(d.DB, d.Payments, d.StripeSecret)
	notificationCtrl := controllers.NewNotificationController(d.DB, d.Mail)
	adminCtrl := controllers.NewAdminController(d.DB, d.Monitor, hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api")

	public := api.Group("/")
	public.Use(middlewares.NewStrictRateLimiter(), middlewares.NoStore())
	{
		public.POST("/users", authCtrl.Register)
		public.POST("/users/confirm_email", authCtrl.ConfirmEmail)
		public.POST("/auth/token/login", authCtrl.Login)
	}

	api.GET("/oauth/login/:provider", oauthCtrl.Login)
	api.GET("/oauth/complete/:provider", oauthCtrl.Complete)
	api.GET("/oauth/complete/:provider/", oauthCtrl.Complete)

	api.GET("/ratings", ratingCtrl.GetRatings)
	api.GET("/cleaning-types", serviceCtrl.GetCleaningTypes)
	api.GET("/cleaning-types/:id", serviceCtrl.GetCleaningType)
	api.POST("/orders/get_available_time", orderCtrl.GetAvailableTime)

	api.POST("/payments/stripe/webhook", paymentCtrl.StripeWebhook)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware(d.DB))

	auth.POST("/auth/token/logout", authCtrl.Logout)
	auth.GET("/users/me", userCtrl.GetProfile)
	auth.PUT("/users/me", userCtrl.UpdateProfile)

	auth.GET("/measure", serviceCtrl.GetMeasures)
	auth.GET("/services", serviceCtrl.GetServices)

	auth.POST("/orders", orderCtrl.CreateOrder)
	auth.GET("/orders", orderCtrl.GetOrders)
	auth.GET("/orders/:id", orderCtrl.GetOrderByID)
	auth.PUT("/orders/:id", orderCtrl.UpdateOrder)
	auth.POST("/orders/:id/rating", orderCtrl.RateOrder)
	auth.PUT("/orders/:id/rating", orderCtrl.RateOrder)

	payGroup := auth.Group("/orders/:id")
	payGroup.Use(middlewares.ValidateOrderID(), middlewares.PaymentRateLimiter(), middlewares.LogPaymentRequest(), middlewares.NoStore())
	{
		payGroup.POST("/pay", orderCtrl.PayOrder)
	}

	invoiceGroup := auth.Group("/orders/:id")
	invoiceGroup.Use(middlewares.InvoiceLoggerMiddleware())
	{
		invoiceGroup.GET("/invoice", invoiceCtrl.GenerateInvoice)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := auth.Group("/")
	staff.Use(middlewares.StaffOnly())

	staff.GET("/users", userCtrl.GetAllUsers)
	staff.GET("/users/:id/orders", userCtrl.GetUserOrders)

	staff.POST("/measure", serviceCtrl.CreateMeasure)
	staff.PUT("/measure/:id", serviceCtrl.UpdateMeasure)
	staff.DELETE("/measure/:id", serviceCtrl.DeleteMeasure)
	staff.POST("/services", serviceCtrl.CreateService)
	staff.PUT("/services/:id", serviceCtrl.UpdateService)
	staff.POST("/cleaning-types", serviceCtrl.CreateCleaningType)
	staff.PUT("/cleaning-types/:id", serviceCtrl.UpdateCleaningType)

	staff.PATCH("/ratings/:id", ratingCtrl.UpdateRating)
	staff.DELETE("/ratings/:id", ratingCtrl.DeleteRating)

	staff.GET("/payments", paymentCtrl.GetAllPayments)
	staff.GET("/payments/:id", paymentCtrl.GetPaymentByID)

	staff.GET("/notifications", notificationCtrl.GetAllNotifications)
	staff.POST("/notifications", notificationCtrl.CreateNotification)
	staff.GET("/notifications/:id", notificationCtrl.GetNotificationByID)
	staff.DELETE("/notifications/:id", notificationCtrl.DeleteNotification)

	admin := staff.Group("/admin")
	{
		admin.GET("/stats", adminCtrl.GetDashboardStats)
		admin.GET("/stats/chart", adminCtrl.GetStatsChart)
		admin.GET("/payments/metrics", adminCtrl.GetPaymentMetrics)
		admin.GET("/cleaners", adminCtrl.GetCleaners)
		admin.PATCH("/cleaners/:id/vacation", adminCtrl.SetVacation)
		admin.POST("/reviews/import", ratingCtrl.ImportReviews)
	}

	// Staff order feed over websocket
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware(), middlewares.RoleCheck(models.RoleCleaner))
	{
		wsGroup.GET("/orders", controllers.DispatchHandler(hub))
	}

	return r
}
