package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jaimemartinez/wordjs-sub005/config"
	"github.com/jaimemartinez/wordjs-sub005/handlers/api"
	"github.com/jaimemartinez/wordjs-sub005/mail"
	"github.com/jaimemartinez/wordjs-sub005/middleware"
	"github.com/jaimemartinez/wordjs-sub005/notify"
	"github.com/jaimemartinez/wordjs-sub005/storage"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

func main() {
	utils.Log.Info("Initializing mail engine...")

	// Load configuration
	cfg, err := config.LoadConfig("config.toml")
	if err != nil {
		utils.Log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Open storage
	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		utils.Log.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		utils.Log.Error("Failed to run migrations: %v", err)
		os.Exit(1)
	}

	users := storage.NewUserStorage(db)
	emails := storage.NewEmailStorage(db)
	settings := storage.NewSettingsStorage(db)

	// Carry config-file defaults into the settings store so they become
	// runtime-adjustable
	seedSettings(ctx, settings, cfg)

	// Mail core
	classifier := mail.NewClassifier(users, cfg.Mail.SiteDomain)
	linker := mail.NewThreadLinker(emails)

	relay := mail.NewRelayTransport(cfg.Relay, cfg.Mail.SiteDomain)
	if relay != nil {
		if err := relay.Probe(); err != nil {
			utils.Log.Warn("Relay %s failed its startup probe, disabled: %v", cfg.Relay.Addr(), err)
		} else {
			utils.Log.Info("Relay %s validated", cfg.Relay.Addr())
		}
	}

	mailer := mail.NewMailer(
		classifier,
		emails,
		settings,
		mail.NewResolver(),
		mail.NewSMTPTransport(cfg.Mail.SiteDomain),
		relay,
		cfg.Mail.SiteDomain,
		cfg.Mail.FromEmail,
		cfg.Mail.FromName,
	)

	// Notification dispatcher with this engine as its "email" transport
	dispatcher := notify.NewDispatcher()
	dispatcher.Register(mail.NewEmailTransport(mailer, users))
	notifier := mail.NewDispatcherNotifier(dispatcher)
	mailer.SetNotifier(notifier)

	// Inbound listener; a bind failure is non-fatal, outbound keeps working
	listener := mail.NewListener(classifier, emails, linker, notifier, cfg.Mail.SiteDomain)
	inboundPort := settings.GetInt(ctx, storage.SettingInboundPort, cfg.Inbound.Port)
	catchAll := settings.GetBool(ctx, storage.SettingCatchAll, cfg.Inbound.CatchAll)
	if err := listener.Start(inboundPort, catchAll); err != nil {
		utils.Log.Warn("Inbound listener not started: %v", err)
	}

	// HTTP surface
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError

			if appErr, ok := err.(*utils.AppError); ok {
				code = appErr.Code
				utils.Log.Error("Application error: %v", appErr)
			} else if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.RateLimiter(100, time.Minute))

	composeHandler := api.NewComposeHandler(mailer, linker)
	mailboxHandler := api.NewMailboxHandler(emails, linker)
	settingsHandler := api.NewSettingsHandler(settings, listener, cfg)

	apiRoutes := app.Group("/api")
	{
		apiRoutes.Post("/compose", composeHandler.HandleCompose)

		apiRoutes.Get("/folder/:name/emails", mailboxHandler.HandleFolder)
		apiRoutes.Get("/email/:id", mailboxHandler.HandleEmailView)
		apiRoutes.Get("/email/:id/thread", mailboxHandler.HandleThread)
		apiRoutes.Delete("/email/:id", mailboxHandler.HandleDeleteEmail)

		apiRoutes.Get("/settings/mail", settingsHandler.HandleGetSettings)
		apiRoutes.Put("/settings/mail", settingsHandler.HandleUpdateSettings)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"listening": listener.Running(),
			"time":      time.Now().Format(time.RFC3339),
		})
	})

	// Graceful shutdown: stop accepting mail, then drain the HTTP server
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		utils.Log.Info("Shutting down...")
		if err := listener.Stop(); err != nil {
			utils.Log.Warn("Error stopping inbound listener: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			utils.Log.Error("Error shutting down HTTP server: %v", err)
		}
	}()

	utils.Log.Info("Starting server on port %d...", cfg.Server.Port)
	if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		utils.Log.Error("Error starting server: %v", err)
	}
}

// seedSettings writes config-file values for keys not present yet
func seedSettings(ctx context.Context, settings *storage.SettingsStorage, cfg *config.Config) {
	defaults := map[string]string{
		storage.SettingFromEmail:   cfg.Mail.FromEmail,
		storage.SettingFromName:    cfg.Mail.FromName,
		storage.SettingInboundPort: strconv.Itoa(cfg.Inbound.Port),
		storage.SettingCatchAll:    strconv.FormatBool(cfg.Inbound.CatchAll),
	}
	for key, value := range defaults {
		if err := settings.SeedDefault(ctx, key, value); err != nil {
			utils.Log.Warn("Failed to seed setting %s: %v", key, err)
		}
	}
}
