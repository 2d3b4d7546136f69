package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jaimemartinez/wordjs-sub005/config"
	"github.com/jaimemartinez/wordjs-sub005/mail"
	"github.com/jaimemartinez/wordjs-sub005/storage"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// SettingsHandler exposes the mail settings surface. Updating the inbound
// port or catch-all flag restarts the listener.
type SettingsHandler struct {
	settings *storage.SettingsStorage
	listener *mail.Listener
	config   *config.Config
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *storage.SettingsStorage, listener *mail.Listener, cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		listener: listener,
		config:   cfg,
	}
}

// MailSettings is the runtime-adjustable subset of the mail configuration
type MailSettings struct {
	FromEmail   string `json:"from_email"`
	FromName    string `json:"from_name"`
	InboundPort int    `json:"inbound_port"`
	CatchAll    bool   `json:"catch_all"`
}

// HandleGetSettings returns the current effective mail settings
func (h *SettingsHandler) HandleGetSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()
	settings := MailSettings{
		FromEmail:   h.settings.Get(ctx, storage.SettingFromEmail, h.config.Mail.FromEmail),
		FromName:    h.settings.Get(ctx, storage.SettingFromName, h.config.Mail.FromName),
		InboundPort: h.settings.GetInt(ctx, storage.SettingInboundPort, h.config.Inbound.Port),
		CatchAll:    h.settings.GetBool(ctx, storage.SettingCatchAll, h.config.Inbound.CatchAll),
	}

	return c.JSON(fiber.Map{
		"settings":  settings,
		"listening": h.listener.Running(),
	})
}

// HandleUpdateSettings persists new mail settings and restarts the inbound
// listener with the new port and catch-all flag. A binding failure leaves
// the listener stopped and is reported, but outbound delivery keeps working.
func (h *SettingsHandler) HandleUpdateSettings(c *fiber.Ctx) error {
	var req MailSettings
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	if req.InboundPort <= 0 || req.InboundPort > 65535 {
		return utils.BadRequestError("Invalid inbound port", nil)
	}

	ctx := c.UserContext()
	pairs := map[string]string{
		storage.SettingFromEmail:   req.FromEmail,
		storage.SettingFromName:    req.FromName,
		storage.SettingInboundPort: strconv.Itoa(req.InboundPort),
		storage.SettingCatchAll:    strconv.FormatBool(req.CatchAll),
	}
	for key, value := range pairs {
		if err := h.settings.Set(ctx, key, value); err != nil {
			return utils.InternalServerError("Failed to save settings", err)
		}
	}

	if err := h.listener.Restart(req.InboundPort, req.CatchAll); err != nil {
		utils.Log.Warn("Inbound listener failed to restart: %v", err)
		return c.JSON(fiber.Map{
			"success":   true,
			"listening": false,
			"warning":   "settings saved but the listener could not bind: " + err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"listening": true,
	})
}
