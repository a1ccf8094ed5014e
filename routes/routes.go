package routes

import (
	"github.com/gofiber/fiber/v2"

	"pos-backend/controllers"
	"pos-backend/middlewares"
	"pos-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/auth/register", controllers.Register)
	api.Post("/auth/login", controllers.Login)
	api.Post("/auth/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard for mutating requests
	protected.Use(middlewares.Idempotency())

	protected.Get("/auth/me", controllers.Me)

	// Catalog
	protected.Post("/products", controllers.CreateProduct)
	protected.Get("/products", controllers.GetProducts)
	protected.Get("/products/:id", controllers.GetProduct)
	protected.Patch("/products/:id", controllers.UpdateProduct)
	protected.Delete("/products/:id", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.DeactivateProduct)
	protected.Post("/categories", controllers.CreateCategory)
	protected.Get("/categories", controllers.GetCategories)

	// Customers
	protected.Post("/customers", controllers.CreateCustomer)
	protected.Get("/customers", controllers.GetCustomers)
	protected.Get("/customers/:id", controllers.GetCustomer)
	protected.Patch("/customers/:id", controllers.UpdateCustomer)
	protected.Get("/customers/:id/debts", controllers.GetCustomerDebts)

	// Stock (static paths before the :productId wildcard)
	protected.Get("/stock/movements", controllers.GetStockMovements)
	protected.Get("/stock/low", controllers.GetLowStock)
	protected.Get("/stock/:productId", controllers.GetStockLevel)
	protected.Post("/stock/:productId/adjust", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.AdjustStock)

	// Invoices
	protected.Post("/invoices", controllers.CreateInvoice)
	protected.Get("/invoices", controllers.GetInvoices)
	protected.Get("/invoices/:id", controllers.GetInvoice)
	protected.Post("/invoices/:id/items", controllers.AddInvoiceItem)
	protected.Patch("/invoices/items/:itemId/quantity", controllers.UpdateInvoiceItemQuantity)
	protected.Patch("/invoices/items/:itemId/discount", controllers.UpdateInvoiceItemDiscount)
	protected.Delete("/invoices/items/:itemId", controllers.RemoveInvoiceItem)
	protected.Post("/invoices/:id/finalize", controllers.FinalizeInvoice)
	protected.Post("/invoices/:id/void", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.VoidInvoice)

	// Payments
	protected.Post("/invoices/:id/payments", controllers.CreatePayment)
	protected.Get("/invoices/:id/payments", controllers.GetInvoicePayments)
	protected.Post("/invoices/:id/change", controllers.CalculateChange)
	protected.Post("/payments/:id/void", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.VoidPayment)

	// Cash register
	protected.Post("/register/open", controllers.OpenRegister)
	protected.Get("/register/current", controllers.GetCurrentSession)
	protected.Post("/register/:id/pause", controllers.PauseRegister)
	protected.Post("/register/:id/resume", controllers.ResumeRegister)
	protected.Post("/register/:id/close", controllers.CloseRegister)
	protected.Post("/register/:id/cash/add", controllers.AddRegisterCash)
	protected.Post("/register/:id/cash/remove", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.RemoveRegisterCash)
	protected.Post("/register/:id/transactions", controllers.RecordRegisterTransaction)
	protected.Get("/register/:id/transactions", controllers.GetRegisterTransactions)

	// Customer debts
	protected.Post("/debts", controllers.CreateDebt)
	protected.Get("/debts/summary/age", controllers.GetDebtAgeSummary)
	protected.Post("/debts/:id/payments", controllers.RecordDebtPayment)
	protected.Patch("/debts/:id", middlewares.RequireRole(models.RoleAdmin, models.RoleManager), controllers.UpdateDebt)
}
