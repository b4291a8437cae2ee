package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"strive/meetuphub/internal/model"
	"strive/meetuphub/internal/repository"
	"strive/meetuphub/internal/service"
	"strive/meetuphub/pkg/response"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type MeetupHandler struct {
	meetupService service.MeetupService
}

func NewMeetupHandler(meetupService service.MeetupService) *MeetupHandler {
	return &MeetupHandler{meetupService: meetupService}
}

type CreateMeetupRequest struct {
	Title               string    `json:"title" binding:"required,max=100"`
	Description         string    `json:"description" binding:"max=2000"`
	CategoryID          uuid.UUID `json:"category_id" binding:"required"`
	RegionCode          string    `json:"region_code" binding:"required,max=50"`
	LocationText        string    `json:"location_text" binding:"required,max=500"`
	ExperienceLevelText string    `json:"experience_level_text" binding:"max=200"`
	StartAt             time.Time `json:"start_at" binding:"required"`
	EndAt               time.Time `json:"end_at" binding:"required"`
	RecruitEndAt        time.Time `json:"recruit_end_at" binding:"required"`
	Capacity            int       `json:"capacity" binding:"required,min=2,max=100"`
}

func (h *MeetupHandler) Create(c *gin.Context) {
	organizerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateMeetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	meetup, err := h.meetupService.CreateMeetup(c.Request.Context(), service.CreateMeetupInput{
		Title:               req.Title,
		Description:         req.Description,
		CategoryID:          req.CategoryID,
		RegionCode:          req.RegionCode,
		LocationText:        req.LocationText,
		ExperienceLevelText: req.ExperienceLevelText,
		StartAt:             req.StartAt,
		EndAt:               req.EndAt,
		RecruitEndAt:        req.RecruitEndAt,
		Capacity:            req.Capacity,
	}, organizerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, meetup)
}

func (h *MeetupHandler) Get(c *gin.Context) {
	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	meetup, err := h.meetupService.GetMeetup(c.Request.Context(), meetupID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, meetup)
}

type ListMeetupsQuery struct {
	RegionCode string `form:"region_code"`
	CategoryID string `form:"category_id"`
	Status     string `form:"status"`
	StartFrom  string `form:"start_from"`
	StartTo    string `form:"start_to"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

type ListMeetupsResponse struct {
	Meetups []model.Meetup `json:"meetups"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

func (h *MeetupHandler) List(c *gin.Context) {
	var q ListMeetupsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	filter := repository.MeetupFilter{
		RegionCode: q.RegionCode,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.CategoryID != "" {
		id, err := uuid.Parse(q.CategoryID)
		if err != nil {
			response.BadRequest(c, "invalid category id")
			return
		}
		filter.CategoryID = &id
	}
	if q.Status != "" {
		status := model.MeetupStatus(q.Status)
		if !status.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		filter.Status = &status
	}
	if q.StartFrom != "" {
		t, err := time.Parse(time.RFC3339, q.StartFrom)
		if err != nil {
			response.BadRequest(c, "invalid start_from")
			return
		}
		filter.StartFrom = &t
	}
	if q.StartTo != "" {
		t, err := time.Parse(time.RFC3339, q.StartTo)
		if err != nil {
			response.BadRequest(c, "invalid start_to")
			return
		}
		filter.StartTo = &t
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = defaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	meetups, total, err := h.meetupService.ListMeetups(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, ListMeetupsResponse{
		Meetups: meetups,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	})
}

type UpdateMeetupRequest struct {
	Title               *string `json:"title" binding:"omitempty,max=100"`
	Description         *string `json:"description" binding:"omitempty,max=2000"`
	LocationText        *string `json:"location_text" binding:"omitempty,max=500"`
	ExperienceLevelText *string `json:"experience_level_text" binding:"omitempty,max=200"`
	Status              *string `json:"status"`
}

func (h *MeetupHandler) Update(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	var req UpdateMeetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := service.UpdateMeetupInput{
		Fields: model.MeetupUpdate{
			Title:               req.Title,
			Description:         req.Description,
			LocationText:        req.LocationText,
			ExperienceLevelText: req.ExperienceLevelText,
		},
	}
	if req.Status != nil {
		status := model.MeetupStatus(*req.Status)
		if !status.Valid() {
			response.BadRequest(c, "invalid status")
			return
		}
		in.Status = &status
	}

	meetup, err := h.meetupService.UpdateMeetup(c.Request.Context(), meetupID, in, callerID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, meetup)
}

func (h *MeetupHandler) Delete(c *gin.Context) {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	meetupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meetup id")
		return
	}

	if err := h.meetupService.DeleteMeetup(c.Request.Context(), meetupID, callerID); err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, nil)
}
