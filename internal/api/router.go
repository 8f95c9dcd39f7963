package api

import (
	"net/http"

	"sfu-globe/internal/interfaces"
	"sfu-globe/internal/metrics"
	"sfu-globe/internal/middleware"
	"sfu-globe/internal/repository"
	"sfu-globe/internal/service"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Services 路由依赖的全部服务
type Services struct {
	Auth        *service.AuthService
	Profiles    *service.ProfileService
	Files       *service.FileService
	Clubs       *service.ClubService
	Memberships *service.MembershipService
	Messages    *service.MessageService
	Attendance  *service.AttendanceService
	Realtime    *service.RealtimeService
}

// NewServices 组装仓库和服务，broker 同时作为事件发布方
func NewServices(cfg *config.Config, conn *gorm.DB, broker interfaces.Broker) (*Services, error) {
	profileRepo := repository.NewProfileRepository(conn)

	files, err := service.NewFileService(cfg.File)
	if err != nil {
		return nil, err
	}

	clubs := service.NewClubService(repository.NewClubRepository(conn), broker)
	memberships := service.NewMembershipService(repository.NewMembershipRepository(conn), clubs, broker, broker)
	messages := service.NewMessageService(repository.NewMessageRepository(conn), memberships, broker, cfg.Chat)

	return &Services{
		Auth:        service.NewAuthService(profileRepo, utils.NewTokenManager(cfg.JWT)),
		Profiles:    service.NewProfileService(profileRepo),
		Files:       files,
		Clubs:       clubs,
		Memberships: memberships,
		Messages:    messages,
		Attendance:  service.NewAttendanceService(repository.NewAttendanceRepository(conn), broker, cfg.Attendance),
		Realtime:    service.NewRealtimeService(broker, memberships, messages),
	}, nil
}

// NewRouter 注册所有路由
func NewRouter(cfg *config.Config, svc *Services, broker interfaces.Broker, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.GinZapLogger(), middleware.Metrics(m))

	authHandler := NewAuthHandler(svc.Auth)
	profileHandler := NewProfileHandler(svc.Profiles)
	fileHandler := NewFileHandler(svc.Files, svc.Profiles)
	clubHandler := NewClubHandler(svc.Clubs, svc.Memberships)
	chatHandler := NewChatHandler(svc.Messages)
	attendanceHandler := NewAttendanceHandler(svc.Attendance)
	wsHandler := NewWSHandler(broker, svc.Realtime, cfg.WebSocket, cfg.Server.AllowedOrigins)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// 公开路由
	public := r.Group("/api")
	{
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/login", authHandler.Login)
		public.GET("/avatars/:user_id/:file_id", fileHandler.DownloadAvatar)
	}

	// 受保护的路由
	protected := r.Group("/api", middleware.AuthMiddleware(svc.Auth))
	{
		protected.GET("/profiles/me", profileHandler.GetMe)
		protected.PUT("/profiles/me", profileHandler.UpdateMe)
		protected.POST("/profiles/me/avatar", fileHandler.UploadAvatar)
		protected.GET("/profiles/:id", profileHandler.GetProfile)

		protected.GET("/clubs", clubHandler.ListClubs)
		protected.POST("/clubs", clubHandler.CreateClub)
		protected.GET("/clubs/:club_id", clubHandler.GetClub)
		protected.POST("/clubs/:club_id/membership", clubHandler.Join)
		protected.DELETE("/clubs/:club_id/membership", clubHandler.Leave)
		protected.GET("/clubs/:club_id/messages", chatHandler.GetChatHistory)
		protected.POST("/clubs/:club_id/messages", chatHandler.SendMessage)
		protected.GET("/messages/:id", chatHandler.GetMessage)
		protected.GET("/me/memberships", clubHandler.MyMemberships)

		protected.POST("/attendance/courses/:course_id/codes", attendanceHandler.IssueCode)
		protected.GET("/attendance/courses/:course_id/records", attendanceHandler.CourseRecords)
		protected.POST("/attendance/check-in", attendanceHandler.CheckIn)
		protected.GET("/me/attendance", attendanceHandler.MyRecords)
	}

	// websocket 握手可以用 ?token= 认证，其余接口不行
	r.GET("/api/realtime", middleware.WebSocketAuthMiddleware(svc.Auth), wsHandler.HandleConnection)

	return r
}
