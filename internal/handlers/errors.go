package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/billing"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/tenant"
)

var notFoundMessages = []struct {
	err     error
	message string
}{
	{services.ErrInvoiceNotFound, "Invoice not found"},
	{services.ErrPaymentNotFound, "Payment not found"},
	{services.ErrClientNotFound, "Client not found"},
	{services.ErrCaseNotFound, "Case not found"},
}

var conflicts = []error{
	services.ErrCannotCancelInvoiceWithPayments,
	services.ErrStatusConflictsWithPayments,
	services.ErrPaymentExceedsBalance,
	services.ErrInvoiceNotPayable,
	services.ErrTotalBelowAmountPaid,
	services.ErrInvoiceCancelled,
	services.ErrInvoiceNumberConflict,
	services.ErrClientHasInvoices,
	services.ErrCaseHasInvoices,
}

// respondServiceError maps billing service errors onto HTTP responses
func respondServiceError(c *gin.Context, err error) {
	var validationErr *billing.ValidationError
	if errors.As(err, &validationErr) {
		apierrors.BadRequest(c, validationErr.Error())
		return
	}

	var transitionErr *models.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		apierrors.Conflict(c, transitionErr.Error())
		return
	}

	if errors.Is(err, services.ErrCannotDeleteInvoiceWithPayments) {
		apierrors.BadRequest(c, "Cannot delete invoice with payments")
		return
	}

	if errors.Is(err, tenant.ErrNoScope) {
		apierrors.Unauthorized(c, "")
		return
	}

	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			apierrors.NotFound(c, nf.message)
			return
		}
	}

	for _, conflict := range conflicts {
		if errors.Is(err, conflict) {
			apierrors.Conflict(c, capitalize(conflict.Error()))
			return
		}
	}

	if errors.Is(err, services.ErrAIServiceNotConfigured) {
		apierrors.ServiceUnavailable(c, "AI service is not configured")
		return
	}
	if errors.Is(err, services.ErrAINoItemsDrafted) {
		apierrors.RespondWithError(c, http.StatusUnprocessableEntity,
			apierrors.NewAPIError(apierrors.ErrCodeInvalidInput, "No billable items found in the narrative"))
		return
	}

	apierrors.InternalError(c, err)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
