package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"gymflex/internal/auth"
	"gymflex/internal/booking"
	"gymflex/internal/checkin"
	"gymflex/internal/clock"
	"gymflex/internal/config"
	"gymflex/internal/email"
	"gymflex/internal/group"
	"gymflex/internal/gym"
	"gymflex/internal/scanner"
	"gymflex/internal/user"
	"gymflex/internal/wallet"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	email  *email.Service
}

func New(db *sqlx.DB, cfg *config.Config, emailService *email.Service) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	clk := clock.NewRealClock()
	codec := checkin.NewCodec(clk)
	validator := checkin.NewValidator(codec, clk)

	userRepo := user.NewRepository(db)
	gymRepo := gym.NewRepository(db)
	bookingRepo := booking.NewRepository(db)
	walletRepo := wallet.NewRepository(db)
	scanRepo := scanner.NewRepository(db)

	userHandler := user.NewHandler(user.NewService(userRepo, cfg.JWTSecret))
	gymHandler := gym.NewHandler(gym.NewService(gymRepo))
	bookingHandler := booking.NewHandler(booking.NewService(
		bookingRepo, gymRepo, walletRepo, userRepo, emailService, codec, clk,
	))
	scannerHandler := scanner.NewHandler(scanner.NewService(scanRepo, gymRepo, bookingRepo, validator))
	walletHandler := wallet.NewHandler(db)
	groupHandler := group.NewHandler(db)

	// Credential endpoints get a tight limit; everything else rides the
	// default.
	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)
		protected.PATCH("/me", userHandler.UpdateMe)

		protected.GET("/gyms", gymHandler.ListGyms)
		protected.GET("/gyms/:gymID", gymHandler.GetGym)
		protected.GET("/gyms/:gymID/sessions", gymHandler.ListSessions)

		protected.POST("/sessions/:sessionID/book", bookingHandler.BookSession)
		protected.POST("/bookings/:bookingID/cancel", bookingHandler.CancelBooking)
		protected.POST("/bookings/:bookingID/token", bookingHandler.IssueToken)
		protected.GET("/bookings", bookingHandler.ListMyBookings)

		protected.GET("/wallet", walletHandler.GetBalance)
		protected.POST("/wallet/topup", walletHandler.TopUp)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)

		protected.POST("/groups", groupHandler.Create)
		protected.GET("/groups", groupHandler.List)
		protected.GET("/groups/:groupID", groupHandler.Get)
		protected.POST("/groups/:groupID/join", groupHandler.Join)
		protected.POST("/groups/:groupID/leave", groupHandler.Leave)
		protected.GET("/groups/:groupID/members", groupHandler.ListMembers)
		protected.POST("/groups/:groupID/messages", groupHandler.PostMessage)
		protected.GET("/groups/:groupID/messages", groupHandler.ListMessages)
	}

	owner := router.Group("/owner")
	owner.Use(authMiddleware, auth.RequireRole(auth.RoleOwner, auth.RoleAdmin))
	{
		owner.POST("/gyms", gymHandler.CreateGym)
		owner.POST("/gyms/:gymID/sessions", gymHandler.CreateSession)
		// Door devices poll this one; give it headroom above the default.
		owner.POST("/scan", RateLimitMiddleware(30, 60), scannerHandler.Scan)
		owner.GET("/gyms/:gymID/scans", scannerHandler.ListScans)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/gyms", gymHandler.ListGyms)
		admin.GET("/gyms/:gymID/sessions", gymHandler.ListSessions)
		admin.GET("/sessions/:sessionID/bookings", bookingHandler.ListBookingsBySession)
		admin.GET("/gyms/:gymID/bookings", bookingHandler.ListBookingsByGym)
		admin.GET("/analytics/bookings", bookingHandler.GetBookingAnalytics)
		admin.GET("/analytics/checkins", scannerHandler.GetCheckinAnalytics)
	}

	router.GET("/health", Health(emailService))
	router.GET("/metrics", Metrics())
	router.GET("/test-email", TestEmail(emailService))
	SetupSwagger(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: router,
		},
		db:     db,
		config: cfg,
		email:  emailService,
	}
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the underlying engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
