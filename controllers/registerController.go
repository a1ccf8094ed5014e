package controllers

import (
	"strings"

	"pos-backend/middlewares"
	"pos-backend/models"
	"pos-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type RegisterOpenDTO struct {
	OpeningAmount float64 `json:"opening_amount" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"omitempty"`
}

type RegisterCloseDTO struct {
	CountedAmount float64 `json:"counted_amount" validate:"gte=0"`
	Notes         string  `json:"notes" validate:"omitempty"`
}

type RegisterNotesDTO struct {
	Notes string `json:"notes" validate:"omitempty"`
}

type CashMovementDTO struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Notes  string  `json:"notes" validate:"omitempty"`
}

type RegisterTransactionDTO struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Type        string  `json:"transaction_type" validate:"required"`
	Description string  `json:"description" validate:"omitempty"`
	ReferenceId *string `json:"reference_id" validate:"omitempty"`
}

// POST /api/register/open
func OpenRegister(c *fiber.Ctx) error {
	var in RegisterOpenDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	session, err := L.OpenRegister(userID(c), in.OpeningAmount, strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// GET /api/register/current
func GetCurrentSession(c *fiber.Ctx) error {
	session, err := L.CurrentSession()
	if err != nil {
		return err
	}
	if session == nil {
		return c.JSON(fiber.Map{"session": nil})
	}
	return c.JSON(fiber.Map{"session": session})
}

// POST /api/register/:id/pause
func PauseRegister(c *fiber.Ctx) error {
	var in RegisterNotesDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	session, err := L.PauseRegister(c.Params("id"), userID(c), strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// POST /api/register/:id/resume
func ResumeRegister(c *fiber.Ctx) error {
	var in RegisterNotesDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	session, err := L.ResumeRegister(c.Params("id"), userID(c), strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.JSON(session)
}

// POST /api/register/:id/close
func CloseRegister(c *fiber.Ctx) error {
	var in RegisterCloseDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	summary, err := L.CloseRegister(c.Params("id"), userID(c), in.CountedAmount, strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// POST /api/register/:id/cash/add
func AddRegisterCash(c *fiber.Ctx) error {
	var in CashMovementDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	txn, err := L.AddCash(c.Params("id"), in.Amount, userID(c), strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// POST /api/register/:id/cash/remove
func RemoveRegisterCash(c *fiber.Ctx) error {
	var in CashMovementDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	txn, err := L.RemoveCash(c.Params("id"), in.Amount, userID(c), strings.TrimSpace(in.Notes))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// POST /api/register/:id/transactions
func RecordRegisterTransaction(c *fiber.Ctx) error {
	var in RegisterTransactionDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	txType := models.TransactionType(strings.ToUpper(strings.TrimSpace(in.Type)))
	if !txType.Valid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transaction type")
	}

	txn, err := L.RecordTransaction(c.Params("id"), in.Amount, txType, strings.TrimSpace(in.Description), userID(c), in.ReferenceId)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(txn)
}

// GET /api/register/:id/transactions?limit=&offset=
func GetRegisterTransactions(c *fiber.Ctx) error {
	txns, err := L.ListTransactions(
		c.Params("id"),
		utils.ParseIntDefault(c.Query("limit"), 100),
		utils.ParseIntDefault(c.Query("offset"), 0),
	)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"transactions": txns})
}
