package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jaimemartinez/wordjs-sub005/mail"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// ComposeHandler handles outbound mail composition
type ComposeHandler struct {
	mailer *mail.Mailer
	linker *mail.ThreadLinker
}

// NewComposeHandler creates a new compose handler
func NewComposeHandler(mailer *mail.Mailer, linker *mail.ThreadLinker) *ComposeHandler {
	return &ComposeHandler{
		mailer: mailer,
		linker: linker,
	}
}

// ComposeRequest represents an email send request
type ComposeRequest struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	IsHTML    bool   `json:"is_html"`
	ReplyToID string `json:"reply_to_id"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
}

// HandleCompose handles the email send request
func (h *ComposeHandler) HandleCompose(c *fiber.Ctx) error {
	var req ComposeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	if req.To == "" || req.Subject == "" || req.Body == "" {
		return utils.BadRequestError("Missing required fields", nil)
	}

	parentID, threadID := h.linker.Link(c.UserContext(), req.ReplyToID)

	sendReq := mail.SendRequest{
		To:        req.To,
		Subject:   req.Subject,
		TextBody:  req.Body,
		FromEmail: req.FromEmail,
		FromName:  req.FromName,
		ParentID:  parentID,
		ThreadID:  threadID,
	}
	if req.IsHTML {
		sendReq.HTMLBody = utils.SanitizeHTML(req.Body)
		sendReq.TextBody = utils.StripHTML(req.Body)
	}

	result, err := h.mailer.Send(c.UserContext(), sendReq)
	if err != nil {
		var deliveryErr *mail.DeliveryError
		if errors.As(err, &deliveryErr) {
			return utils.BadGatewayError("Delivery failed", deliveryErr)
		}
		return utils.InternalServerError("Failed to send email", err)
	}

	utils.Log.Info("Email sent: to=%s subject=%s internal=%v", req.To, req.Subject, result.Internal)

	return c.JSON(fiber.Map{
		"success":   true,
		"delivered": result.Delivered,
		"internal":  result.Internal,
	})
}
