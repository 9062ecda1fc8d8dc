package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/pkg/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	ticket, similar, err := h.service.CreateTicket(c.Context(), user, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		Category:    domain.TicketCategory(req.Category),
	})
	if err != nil {
		return err
	}

	similarResp := make([]dto.TicketResponse, 0, len(similar))
	for i := range similar {
		similarResp = append(similarResp, dto.NewTicketResponse(&similar[i]))
	}
	return c.JSON(fiber.Map{"data": dto.CreateTicketResponse{
		Ticket:         dto.NewTicketResponse(ticket),
		SimilarTickets: similarResp,
	}})
}

// ListTickets GET /tickets. Non-staff callers only see tickets they created.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	filter := parseTicketQuery(c)
	if !user.Role.IsStaff() {
		creatorID := user.ID
		filter.CreatorID = &creatorID
	}

	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return errorutil.NewUnauthorized("user required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Context(), ticket.ID)
	if err != nil {
		return err
	}
	commentResp := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentResp = append(commentResp, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		TicketResponse: dto.NewTicketResponse(ticket),
		Comments:       commentResp,
	}})
}

// UpdateTicket PATCH /tickets/:id. Applies the provided fields in order;
// at least one must be present.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil && req.Priority == nil && req.Category == nil && req.AssigneeID == nil && req.TxRef == nil {
		return errorutil.NewValidationError("at least one field required", nil)
	}

	ticketID := c.Params("id")
	var ticket *domain.Ticket
	var err error
	if req.AssigneeID != nil {
		ticket, err = h.service.AssignTicket(c.Context(), user, ticketID, *req.AssigneeID)
		if err != nil {
			return err
		}
	}
	if req.Status != nil {
		ticket, err = h.service.UpdateStatus(c.Context(), user, ticketID, domain.TicketStatus(*req.Status))
		if err != nil {
			return err
		}
	}
	if req.Priority != nil {
		ticket, err = h.service.UpdatePriority(c.Context(), user, ticketID, domain.TicketPriority(*req.Priority))
		if err != nil {
			return err
		}
	}
	if req.Category != nil {
		ticket, err = h.service.UpdateCategory(c.Context(), user, ticketID, domain.TicketCategory(*req.Category))
		if err != nil {
			return err
		}
	}
	if req.TxRef != nil {
		ticket, err = h.service.RecordExternalReceipt(c.Context(), ticketID, *req.TxRef)
		if err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	if err := h.service.DeleteTicket(c.Context(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// AssignTicket POST /tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.AssigneeID) == "" {
		return errorutil.NewValidationError("assignee_id required", nil)
	}

	ticket, err := h.service.AssignTicket(c.Context(), user, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	user, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.NewUnauthorized("user required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), user, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return errorutil.NewUnauthorized("user required")
	}
	comments, err := h.service.ListComments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, dto.NewCommentResponse(&comments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListActivity GET /tickets/:id/activity.
func (h *TicketsHandler) ListActivity(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return errorutil.NewUnauthorized("user required")
	}
	limit := parseInt(c.Query("limit"), 50)
	offset := (parseInt(c.Query("page"), 1) - 1) * limit

	entries, err := h.service.ListActivity(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.NewActivityEntryResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CategoryCounts GET /tickets/category-counts.
func (h *TicketsHandler) CategoryCounts(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return errorutil.NewUnauthorized("user required")
	}
	counts, err := h.service.CategoryCounts(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryCountResponse, 0, len(counts))
	for _, count := range counts {
		items = append(items, dto.CategoryCountResponse{
			Category: string(count.Category),
			Count:    count.Count,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.TicketCategory(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
