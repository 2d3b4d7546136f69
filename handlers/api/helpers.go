package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jaimemartinez/wordjs-sub005/storage"
)

// requestUserID returns the acting user's id. Authentication lives in the
// surrounding platform; it forwards the resolved identity in this header.
func requestUserID(c *fiber.Ctx) string {
	return c.Get("X-User-ID")
}

// isNotFound reports whether err is the storage not-found sentinel
func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
