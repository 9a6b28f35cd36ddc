package routes

import (
	"database/sql"
	"net/http"

	"github.com/flyMoon99/fysl/config"
	adminHandlers "github.com/flyMoon99/fysl/internal/handlers/admin"
	authHandlers "github.com/flyMoon99/fysl/internal/handlers/auth"
	deviceHandlers "github.com/flyMoon99/fysl/internal/handlers/device"
	liveHandlers "github.com/flyMoon99/fysl/internal/handlers/live"
	"github.com/flyMoon99/fysl/internal/middleware"
	"github.com/flyMoon99/fysl/internal/pkg/response"
	"github.com/flyMoon99/fysl/internal/repositories"
	authService "github.com/flyMoon99/fysl/internal/services/auth"
	"github.com/flyMoon99/fysl/internal/services/devicesync"
	"github.com/flyMoon99/fysl/internal/services/geocode"
	"github.com/flyMoon99/fysl/internal/services/gps"
	liveService "github.com/flyMoon99/fysl/internal/services/live"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // ← алиас!
	"github.com/go-chi/jwtauth/v5"
	"github.com/redis/go-redis/v9"
)

// Setup инициализирует и возвращает настроенный маршрутизатор.
func Setup(cfg *config.Config, database *sql.DB, redisClient *redis.Client) *chi.Mux {
	jwtAuth := jwtauth.New("HS256", []byte(cfg.JwtSecret), nil)
	jwtService := authService.NewJWTService(cfg.JwtSecret, redisClient)

	deviceRepo := repositories.NewDeviceRepository(database)
	locationRepo := repositories.NewLocationRepository(database)

	gpsClient := gps.NewClient(cfg)
	geocoder := geocode.NewClient(cfg)
	liveManager := liveService.NewManager(liveService.NewRedisStore(redisClient))
	syncService := devicesync.NewService(deviceRepo, locationRepo, gpsClient, geocoder, liveManager)

	authHandler := authHandlers.NewAuthHandler(database, jwtService)
	profileHandler := authHandlers.NewProfileHandler(database)
	deviceHandler := deviceHandlers.NewDeviceHandler(deviceRepo, locationRepo)
	syncHandler := deviceHandlers.NewSyncHandler(syncService, database, deviceRepo)
	importHandler := adminHandlers.NewImportHandler(deviceRepo)
	exportHandler := adminHandlers.NewExportHandler(deviceRepo)
	wsHandler := liveHandlers.NewWSHandler(liveManager)

	router := chi.NewRouter()

	// Используем chiMiddleware для Logger и Recoverer
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(jwtauth.Verifier(jwtAuth))
	router.Use(middleware.AddUserToContext())

	// Публичные маршруты
	router.Post("/api/auth/login", authHandler.LoginHandler)
	router.Post("/api/auth/member-login", authHandler.MemberLoginHandler)
	router.Post("/api/auth/refresh", authHandler.RefreshTokenHandler)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator(jwtAuth))

		r.Get("/api/profile", profileHandler.GetProfile)
		r.Post("/api/logout", authHandler.LogoutHandler)

		r.Get("/api/devices/{id}", deviceHandler.GetDeviceDetail)
		r.Get("/api/devices/{id}/map-data", deviceHandler.GetDeviceMapData)
		r.Get("/api/devices/{id}/track-points", deviceHandler.GetDeviceTrackPoints)
		r.Get("/api/member/devices", deviceHandler.GetMemberDevices)

		r.Get("/ws/locations", wsHandler.ServeWS)

		// Admin-only
		r.Group(func(ar chi.Router) {
			ar.Use(middleware.AdminOnly())
			ar.Post("/api/admin/devices/sync", syncHandler.SyncAllDevicesHandler)
			ar.Post("/api/admin/devices/{deviceNumber}/sync-track", syncHandler.SyncDeviceTrackHandler)
			ar.Post("/api/admin/devices/{deviceNumber}/sync-location", syncHandler.SyncDeviceCurrentLocationHandler)
			ar.Post("/api/admin/devices/{id}/cleanup-locations", syncHandler.CleanupLocationsHandler)
			ar.Post("/api/admin/devices/batch-assign", syncHandler.BatchAssignHandler)
			ar.Post("/api/admin/devices/import/sheet", importHandler.ImportFromSheetHandler)
			ar.Post("/api/admin/devices/import/upload", importHandler.ImportUploadHandler)
			ar.Get("/api/admin/devices/export", exportHandler.ExportDevicesHandler)
		})
	})

	return router
}
