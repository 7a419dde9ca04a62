package complex

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caremesh/complex-api/internal/handler"
	"github.com/caremesh/complex-api/internal/model"
	"github.com/caremesh/complex-api/internal/service/capacity"
	complexService "github.com/caremesh/complex-api/internal/service/complex"
	"github.com/caremesh/complex-api/internal/service/transfer"
	apperrors "github.com/caremesh/complex-api/pkg/errors"
	"github.com/caremesh/complex-api/pkg/i18n"
)

// HeaderXActorID identifies the acting user; the auth stack upstream is
// expected to set it. Falls back to the complex owner when absent.
const HeaderXActorID = "X-Actor-ID"

type Handler struct {
	service     complexService.ComplexServicer
	transferSvc transfer.Engine
	capacitySvc capacity.Aggregator
	formatter   *i18n.Formatter
}

func NewHandler(service complexService.ComplexServicer, transferSvc transfer.Engine, capacitySvc capacity.Aggregator, formatter *i18n.Formatter) *Handler {
	return &Handler{
		service:     service,
		transferSvc: transferSvc,
		capacitySvc: capacitySvc,
		formatter:   formatter,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	complexes := r.Group("/complexes")
	{
		complexes.PATCH("/:id/status", h.ChangeStatus)
		complexes.POST("/:id/transfer-clinics", h.TransferClinics)
		complexes.GET("/:id/capacity", h.GetCapacity)
	}
}

type changeStatusRequest struct {
	Status             string  `json:"status" binding:"required,oneof=active inactive suspended"`
	TargetComplexID    *string `json:"target_complex_id" binding:"omitempty,uuid"`
	TransferClinics    bool    `json:"transfer_clinics"`
	DeactivationReason *string `json:"deactivation_reason" binding:"omitempty,max=500"`
}

type transferClinicsRequest struct {
	TargetComplexID string   `json:"target_complex_id" binding:"required,uuid"`
	ClinicIDs       []string `json:"clinic_ids" binding:"required,min=1,dive,uuid"`
}

func (h *Handler) ChangeStatus(c *gin.Context) {
	complexID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid complex ID", err))
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, handler.BindingErrorMessage(err), err))
		return
	}

	change := &model.StatusChangeRequest{
		Status:             model.ComplexStatus(req.Status),
		TransferClinics:    req.TransferClinics,
		DeactivationReason: req.DeactivationReason,
		ActorID:            h.actorID(c),
	}
	if req.TargetComplexID != nil {
		targetID, err := uuid.Parse(*req.TargetComplexID)
		if err != nil {
			handler.RespondError(c, h.formatter,
				apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid target complex ID", err))
			return
		}
		change.TargetComplexID = &targetID
	}

	result, err := h.service.ChangeStatus(c.Request.Context(), complexID, change)
	if err != nil {
		handler.RespondError(c, h.formatter, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) TransferClinics(c *gin.Context) {
	sourceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid complex ID", err))
		return
	}

	var req transferClinicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, handler.BindingErrorMessage(err), err))
		return
	}

	targetID, err := uuid.Parse(req.TargetComplexID)
	if err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid target complex ID", err))
		return
	}

	clinicIDs := make([]uuid.UUID, 0, len(req.ClinicIDs))
	for _, raw := range req.ClinicIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			handler.RespondError(c, h.formatter,
				apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid clinic ID", err))
			return
		}
		clinicIDs = append(clinicIDs, id)
	}

	result, err := h.transferSvc.Run(c.Request.Context(), &model.TransferRequest{
		SourceComplexID: sourceID,
		TargetComplexID: targetID,
		ClinicIDs:       clinicIDs,
		ActorID:         h.actorID(c),
	})
	if err != nil {
		handler.RespondError(c, h.formatter, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) GetCapacity(c *gin.Context) {
	complexID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, h.formatter,
			apperrors.Validation(apperrors.CodeInvalidIdentifier, "invalid complex ID", err))
		return
	}

	breakdown, err := h.capacitySvc.Compute(c.Request.Context(), complexID)
	if err != nil {
		handler.RespondError(c, h.formatter, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(breakdown))
}

func (h *Handler) actorID(c *gin.Context) *uuid.UUID {
	raw := c.GetHeader(HeaderXActorID)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
