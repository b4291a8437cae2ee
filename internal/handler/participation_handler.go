package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"strive/meetuphub/internal/service"
	"strive/meetuphub/pkg/response"
)

type ParticipationHandler struct {
	participationService service.ParticipationService
}

func NewParticipationHandler(participationService service.ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{participationService: participationService}
}

// Request creates a REQUESTED participation for the caller.
func (h *ParticipationHandler) Request(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	view, err := h.participationService.RequestParticipation(c.Request.Context(), meetupID, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, view)
}

// Cancel cancels the caller's own participation.
func (h *ParticipationHandler) Cancel(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	if err := h.participationService.CancelParticipation(c.Request.Context(), meetupID, userID); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, nil)
}

// Approve transitions a participation to APPROVED, subject to capacity.
// Organizer only.
func (h *ParticipationHandler) Approve(c *gin.Context) {
	organizerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, participationID, ok := parseParticipationPath(c)
	if !ok {
		return
	}

	view, err := h.participationService.ApproveParticipation(c.Request.Context(), meetupID, participationID, organizerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, view)
}

// Reject transitions a participation to REJECTED. Organizer only.
func (h *ParticipationHandler) Reject(c *gin.Context) {
	organizerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, participationID, ok := parseParticipationPath(c)
	if !ok {
		return
	}

	view, err := h.participationService.RejectParticipation(c.Request.Context(), meetupID, participationID, organizerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, view)
}

// List returns all participations for a meetup with summary counts.
// Organizer only.
func (h *ParticipationHandler) List(c *gin.Context) {
	organizerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	list, err := h.participationService.ListParticipations(c.Request.Context(), meetupID, organizerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, list)
}

func parseParticipationPath(c *gin.Context) (meetupID, participationID uuid.UUID, ok bool) {
	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return uuid.Nil, uuid.Nil, false
	}
	participationID, err = uuid.Parse(c.Param("participationId"))
	if err != nil {
		response.BadRequest(c, "invalid participation id")
		return uuid.Nil, uuid.Nil, false
	}
	return meetupID, participationID, true
}
