package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jaimemartinez/wordjs-sub005/mail"
	"github.com/jaimemartinez/wordjs-sub005/models"
	"github.com/jaimemartinez/wordjs-sub005/storage"
	"github.com/jaimemartinez/wordjs-sub005/utils"
)

// MailboxHandler serves the mailbox read surface: folder listings, message
// detail, thread views and deletion.
type MailboxHandler struct {
	emails *storage.EmailStorage
	linker *mail.ThreadLinker
}

// NewMailboxHandler creates a new mailbox handler
func NewMailboxHandler(emails *storage.EmailStorage, linker *mail.ThreadLinker) *MailboxHandler {
	return &MailboxHandler{
		emails: emails,
		linker: linker,
	}
}

// HandleFolder lists one page of the inbox or sent folder
func (h *MailboxHandler) HandleFolder(c *fiber.Ctx) error {
	userID := requestUserID(c)
	if userID == "" {
		return utils.BadRequestError("Missing user identity", nil)
	}

	folder := c.Params("name")
	if folder != "inbox" && folder != "sent" {
		return utils.NotFoundError("Unknown folder", nil)
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	emails, total, err := h.emails.ListByUser(c.UserContext(), userID, folder == "sent", page, pageSize)
	if err != nil {
		return utils.InternalServerError("Failed to list emails", err)
	}

	return c.JSON(models.NewPaginatedEmails(emails, page, pageSize, total))
}

// HandleEmailView returns a single message, marking it read on first access
// by its holder
func (h *MailboxHandler) HandleEmailView(c *fiber.Ctx) error {
	email, err := h.emails.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundError("Email not found", err)
		}
		return utils.InternalServerError("Failed to load email", err)
	}

	if !email.Read && email.UserID == requestUserID(c) {
		if err := h.emails.MarkRead(c.UserContext(), email.ID); err != nil {
			utils.Log.Warn("Failed to mark email %s as read: %v", email.ID, err)
		} else {
			email.Read = true
		}
	}

	return c.JSON(email)
}

// HandleThread returns every message in the thread containing the given id
func (h *MailboxHandler) HandleThread(c *fiber.Ctx) error {
	emails, err := h.linker.Thread(c.UserContext(), c.Params("id"))
	if err != nil {
		if isNotFound(err) {
			return utils.NotFoundError("Email not found", err)
		}
		return utils.InternalServerError("Failed to load thread", err)
	}

	return c.JSON(fiber.Map{
		"count":  len(emails),
		"emails": emails,
	})
}

// HandleDeleteEmail removes a message record
func (h *MailboxHandler) HandleDeleteEmail(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.emails.Delete(c.UserContext(), id); err != nil {
		if isNotFound(err) {
			return utils.NotFoundError("Email not found", err)
		}
		return utils.InternalServerError("Failed to delete email", err)
	}

	utils.Log.Info("Email deleted: %s", id)

	return c.JSON(fiber.Map{"success": true})
}
