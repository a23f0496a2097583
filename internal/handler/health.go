package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

type ModuleStatus struct {
	HospitalAI      string `json:"hospital_ai"`
	EnvironmentalAI string `json:"environmental_ai"`
}

type StatusResponse struct {
	Status       string                  `json:"status"`
	Modules      ModuleStatus            `json:"modules"`
	Availability model.ModelAvailability `json:"availability"`
}

// Status reports which predictive modules run on trained models.
func (h *Handler) Status(c *gin.Context) {
	modules := ModuleStatus{
		HospitalAI:      "Inactive (DEMO fallback)",
		EnvironmentalAI: "Inactive",
	}
	if h.availability.HospitalLoaded {
		modules.HospitalAI = "Active"
	}
	if h.availability.AccidentLoaded {
		modules.EnvironmentalAI = "Active"
	}

	httputil.RespondWithSuccess(c, StatusResponse{
		Status:       "Online",
		Modules:      modules,
		Availability: h.availability,
	})
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{
		"status": "UP",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck is always ready: missing models degrade responses, they do
// not stop the service from answering.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{
		"status":  "UP",
		"time":    time.Now().UTC(),
		"modules": h.availability,
	})
}
