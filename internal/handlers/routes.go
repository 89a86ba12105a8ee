package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/idempotency"
	"github.com/yukikurage/case-billing-api/internal/middleware"
	"github.com/yukikurage/case-billing-api/internal/services"
)

// Services is everything the HTTP layer calls into
type Services struct {
	Auth         *services.AuthService
	Organization *services.OrganizationService
	Client       *services.ClientService
	Case         *services.CaseService
	Invoice      *services.InvoiceService
	Payment      *services.PaymentService
	// AI is nil when no OpenAI key is configured
	AI *services.AIService

	// Idempotency is optional; without it Idempotency-Key headers are ignored
	Idempotency    idempotency.Store
	IdempotencyTTL time.Duration
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r gin.IRouter, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	orgHandler := NewOrganizationHandler(svc.Organization)
	clientHandler := NewClientHandler(svc.Client)
	caseHandler := NewCaseHandler(svc.Case)
	invoiceHandler := NewInvoiceHandler(svc.Invoice, svc.AI)
	paymentHandler := NewPaymentHandler(svc.Payment)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Case Billing API is running",
		})
	})

	api := r.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
	}

	// Organization routes (protected)
	orgAccess := middleware.RequireOrganizationAccess(svc.Organization)
	ownerOnly := middleware.RequireOrganizationOwner()
	orgs := api.Group("/organizations")
	orgs.Use(middleware.RequireAuth())
	{
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.POST("/join", orgHandler.JoinOrganization)
		orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
		orgs.PUT("/:id", orgAccess, ownerOnly, orgHandler.UpdateOrganization)
		orgs.POST("/:id/switch", orgAccess, orgHandler.SwitchOrganization)
		orgs.POST("/:id/regenerate-code", orgAccess, ownerOnly, orgHandler.RegenerateInviteCode)
		orgs.DELETE("/:id/members/:user_id", orgAccess, ownerOnly, orgHandler.RemoveMember)
	}

	// Billing routes are scoped to the session's active organization
	billing := api.Group("")
	billing.Use(middleware.RequireAuth(), middleware.RequireOrganizationScope(svc.Organization))
	once := middleware.Idempotency(svc.Idempotency, svc.IdempotencyTTL)

	clients := billing.Group("/clients")
	{
		clients.GET("", clientHandler.ListClients)
		clients.POST("", once, clientHandler.CreateClient)
		clients.GET("/:id", clientHandler.GetClient)
		clients.PATCH("/:id", clientHandler.UpdateClient)
		clients.DELETE("/:id", clientHandler.DeleteClient)
	}

	cases := billing.Group("/cases")
	{
		cases.GET("", caseHandler.ListCases)
		cases.POST("", once, caseHandler.CreateCase)
		cases.GET("/:id", caseHandler.GetCase)
		cases.PATCH("/:id", caseHandler.UpdateCase)
		cases.DELETE("/:id", caseHandler.DeleteCase)
	}

	invoices := billing.Group("/invoices")
	{
		invoices.GET("", invoiceHandler.ListInvoices)
		invoices.POST("", once, invoiceHandler.CreateInvoice)
		invoices.POST("/draft-items", invoiceHandler.DraftLineItems)
		invoices.GET("/:id", invoiceHandler.GetInvoice)
		invoices.PATCH("/:id", invoiceHandler.UpdateInvoice)
		invoices.DELETE("/:id", invoiceHandler.DeleteInvoice)
		invoices.POST("/:id/payments", once, paymentHandler.AddPayment)
	}

	payments := billing.Group("/payments")
	{
		payments.GET("", paymentHandler.ListPayments)
		payments.GET("/:id", paymentHandler.GetPayment)
		payments.DELETE("/:id", paymentHandler.DeletePayment)
	}
}
