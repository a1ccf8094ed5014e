package controllers

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/ledger"
)

// L is the shared ledger instance, wired once at startup.
var L *ledger.Ledger

// UseLedger injects the ledger all handlers operate on.
func UseLedger(l *ledger.Ledger) {
	L = l
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}
