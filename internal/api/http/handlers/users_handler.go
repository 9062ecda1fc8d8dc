package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
)

// UsersHandler manages account endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// Me GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListSupport GET /users/support.
func (h *UsersHandler) ListSupport(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return errorutil.NewUnauthorized("user required")
	}
	staff, err := h.service.ListSupportStaff(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(staff))
	for i := range staff {
		items = append(items, dto.NewUserResponse(&staff[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ChangeRole PATCH /users/:id/role.
func (h *UsersHandler) ChangeRole(c *fiber.Ctx) error {
	actor, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.ChangeRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.ChangeRole(c.Context(), actor, c.Params("id"), domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(updated)})
}

// ListAll GET /admin/users. Admin only, enforced at the router.
func (h *UsersHandler) ListAll(c *fiber.Ctx) error {
	entries, err := h.service.ListWithTicketCounts(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.AdminUserResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.AdminUserResponse{
			UserResponse: dto.NewUserResponse(&entries[i].User),
			TicketCount:  entries[i].TicketCount,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
