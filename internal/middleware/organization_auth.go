package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/constants"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/tenant"
)

const contextKeyOrganizationMember = "organization_member"

// RequireOrganizationAccess checks if the user is a member of the organization in the :id parameter
func RequireOrganizationAccess(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid organization ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := orgService.GetMembership(orgID, userID)
		if err != nil {
			// Return 404 instead of 403 to avoid leaking organization existence
			if errors.Is(err, services.ErrOrganizationNotFound) {
				apierrors.NotFound(c, "Organization not found")
			} else {
				apierrors.InternalError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(contextKeyOrganizationMember, *member)
		c.Next()
	}
}

// RequireOrganizationOwner checks if the user is an owner of the organization
func RequireOrganizationOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetOrganizationMember(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			c.Abort()
			return
		}

		if member.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Only organization owners can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganizationMember returns the membership loaded by RequireOrganizationAccess
func GetOrganizationMember(c *gin.Context) (models.OrganizationMember, bool) {
	v, exists := c.Get(contextKeyOrganizationMember)
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := v.(models.OrganizationMember)
	return member, ok
}

// RequireOrganizationScope resolves the active organization stored in the
// session, verifies the user still belongs to it and places a tenant.Scope on
// the context. Runs after RequireAuth.
func RequireOrganizationScope(orgService *services.OrganizationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		session := sessions.Default(c)
		orgID, ok := toUint64(session.Get(constants.ContextKeyOrganizationID))
		if !ok || orgID == 0 {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		member, err := orgService.GetMembership(orgID, userID)
		if err != nil {
			if errors.Is(err, services.ErrOrganizationNotFound) {
				apierrors.Unauthorized(c, "")
			} else {
				apierrors.InternalError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyOrganizationID, orgID)
		c.Set(constants.ContextKeyScope, tenant.Scope{
			UserID:         userID,
			OrganizationID: orgID,
			Role:           member.Role,
		})
		c.Next()
	}
}

// GetScope retrieves the tenant scope set by RequireOrganizationScope
func GetScope(c *gin.Context) (tenant.Scope, bool) {
	v, exists := c.Get(constants.ContextKeyScope)
	if !exists {
		return tenant.Scope{}, false
	}
	scope, ok := v.(tenant.Scope)
	return scope, ok
}

// MustScope is GetScope for handlers mounted behind RequireOrganizationScope.
// It writes a 401 and returns false when the scope is missing.
func MustScope(c *gin.Context) (tenant.Scope, bool) {
	scope, ok := GetScope(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Unauthorized"))
	}
	return scope, ok
}
