package accident

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/riskcast-api/internal/middleware"
	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/service/accident"
	"github.com/jwalitptl/riskcast-api/pkg/errors"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

type Handler struct {
	service accident.AccidentService
}

func NewHandler(service accident.AccidentService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict_accident_future", h.PredictFuture)
}

func (h *Handler) PredictFuture(c *gin.Context) {
	var req model.AccidentRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BindingError(err))
		return
	}

	date := req.TargetDate()
	if date == "" {
		_ = c.Error(errors.NewValidation("fecha is required (YYYY-MM-DD)", nil))
		return
	}

	assessment, err := h.service.Assess(c.Request.Context(), date)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, assessment)
}
