package hospital

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/middleware"
	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/service/hospital"
	"github.com/jwalitptl/riskcast-api/internal/service/session"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
	"github.com/jwalitptl/riskcast-api/pkg/messaging"
	"github.com/jwalitptl/riskcast-api/pkg/metrics"
)

const (
	EventHospitalIngested = "hospital.ingested"

	publishTimeout = 2 * time.Second
)

type Handler struct {
	engine  hospital.Predictor
	store   *session.Store
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
}

func NewHandler(engine hospital.Predictor, store *session.Store, broker messaging.Broker, channel string, m *metrics.Metrics) *Handler {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &Handler{
		engine:  engine,
		store:   store,
		broker:  broker,
		channel: channel,
		metrics: m,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/predict_hospital", h.Predict)
	r.POST("/ingest_hospital", h.Ingest)
}

func (h *Handler) Predict(c *gin.Context) {
	out, _, ok := h.predict(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, out)
}

// Ingest predicts, stores the result as the latest record and announces it.
func (h *Handler) Ingest(c *gin.Context) {
	out, in, ok := h.predict(c)
	if !ok {
		return
	}

	rec := h.store.Record(in, out)
	if h.metrics != nil {
		h.metrics.SessionUpdates.Inc()
	}
	go h.publish(rec)

	httputil.RespondWithSuccess(c, out)
}

func (h *Handler) predict(c *gin.Context) (model.HospitalPrediction, model.PatientAdmission, bool) {
	var req model.AdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BindingError(err))
		return model.HospitalPrediction{}, model.PatientAdmission{}, false
	}

	in := req.ToAdmission()
	out, err := h.engine.Predict(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return model.HospitalPrediction{}, model.PatientAdmission{}, false
	}
	return out, in, true
}

// publish runs detached from the request; a broker outage never fails ingest.
func (h *Handler) publish(rec model.LastPredictionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	at := time.Now()
	if rec.UpdatedAt != nil {
		at = *rec.UpdatedAt
	}

	msg := messaging.NewMessage(EventHospitalIngested, rec, at)
	if err := h.broker.Publish(ctx, h.channel, msg); err != nil {
		log.Warn().Err(err).Str("event_id", msg.ID).Str("channel", h.channel).Msg("failed to publish ingest event")
		if h.metrics != nil {
			h.metrics.EventsFailed.Inc()
		}
		return
	}
	if h.metrics != nil {
		h.metrics.EventsPublished.Inc()
	}
}
