package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/rs/zerolog"

	"meetvault/internal/auth"
	"meetvault/internal/config"
	"meetvault/internal/database"
	"meetvault/internal/playback"
	"meetvault/internal/recording"
)

type FiberServer struct {
	*fiber.App
	cfg *config.Config
	db  database.Service
	log zerolog.Logger

	jwtService       *auth.JWTService
	recordingHandler *recording.Handler
	webhookIntake    *recording.WebhookIntake
	playbackHandler  *playback.Handler
	proxy            *playback.Proxy
}

func New(cfg *config.Config, db database.Service, log zerolog.Logger, jwtService *auth.JWTService, recordingHandler *recording.Handler, webhookIntake *recording.WebhookIntake, playbackHandler *playback.Handler, proxy *playback.Proxy) *FiberServer {
	app := fiber.New(fiber.Config{
		ServerHeader: "meetvault",
		AppName:      "meetvault",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	server := &FiberServer{
		App:              app,
		cfg:              cfg,
		db:               db,
		log:              log,
		jwtService:       jwtService,
		recordingHandler: recordingHandler,
		webhookIntake:    webhookIntake,
		playbackHandler:  playbackHandler,
		proxy:            proxy,
	}
	server.applyMiddleware()

	return server
}

func (s *FiberServer) applyMiddleware() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(s.cfg.Server.CORSOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.App.Use(limiter.New(limiter.Config{
		Max:        s.cfg.Server.RateLimit,
		Expiration: s.cfg.Server.RateWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))
}
