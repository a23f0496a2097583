package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/riskcast-api/internal/model"
	"github.com/jwalitptl/riskcast-api/internal/service/session"
	"github.com/jwalitptl/riskcast-api/pkg/httputil"
)

const (
	MessageSnapshot = "snapshot"
	MessageIngested = "prediction_ingested"

	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	// Origins are enforced by the CORS middleware for regular requests; the
	// dashboard is served from other hosts.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the frame pushed to live dashboard clients.
type Message struct {
	Type string                     `json:"type"`
	Data model.LastPredictionRecord `json:"data"`
}

type Handler struct {
	store *session.Store
}

func NewHandler(store *session.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard_summary", h.Summary)
}

// RegisterLiveRoutes registers the websocket route. Its group must not carry
// a request timeout.
func (h *Handler) RegisterLiveRoutes(r *gin.RouterGroup) {
	r.GET("/ws/dashboard", h.Live)
}

// Summary returns the latest ingested record, all null before any ingest.
func (h *Handler) Summary(c *gin.Context) {
	httputil.RespondWithSuccess(c, h.store.Snapshot())
}

// Live streams the current record and then every new ingest over a websocket.
func (h *Handler) Live(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.store.Subscribe()
	defer unsubscribe()

	// Read pump: only used to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := write(conn, Message{Type: MessageSnapshot, Data: h.store.Snapshot()}); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case rec, ok := <-updates:
			if !ok {
				return
			}
			if err := write(conn, Message{Type: MessageIngested, Data: rec}); err != nil {
				log.Debug().Err(err).Msg("dashboard client write failed")
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func write(conn *websocket.Conn, msg Message) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
