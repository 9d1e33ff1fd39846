package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"surveyinsights/internal/logging"
	"surveyinsights/internal/model"
	"surveyinsights/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	snapshotWait   = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// OwnerAuthenticator validates owner tokens
type OwnerAuthenticator interface {
	ValidateOwnerToken(token string) (*model.OwnerClaims, error)
}

// InsightsSource produces insights snapshots for an owner
type InsightsSource interface {
	SurveyInsights(ctx context.Context, surveyID, ownerID string, refresh bool) (*model.SurveyInsights, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	auth     OwnerAuthenticator
	insights InsightsSource
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, auth OwnerAuthenticator, insights InsightsSource) *Handler {
	return &Handler{
		hub:      hub,
		auth:     auth,
		insights: insights,
	}
}

// clientMessage is what owners may send; {"type":"refresh"} requests a
// recomputed snapshot.
type clientMessage struct {
	Type string `json:"type"`
}

// InsightsWS handles GET /v1/ws/surveys/{surveyId}/insights
func (h *Handler) InsightsWS(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateOwnerToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	// Ownership is checked before upgrading so the client gets a plain HTTP status
	snapshot, err := h.insights.SurveyInsights(r.Context(), surveyID, claims.OwnerID, false)
	switch {
	case errors.Is(err, service.ErrSurveyNotFound):
		http.Error(w, "survey not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrNotOwner):
		http.Error(w, "survey belongs to another owner", http.StatusForbidden)
		return
	case err != nil:
		logging.WithSurvey(surveyID).WithError(err).Error("insights snapshot failed")
		http.Error(w, "failed to load insights", http.StatusInternalServerError)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithSurvey(surveyID).WithError(err).Warn("websocket upgrade failed")
		return
	}

	conn := h.hub.NewConnection(surveyID, claims.OwnerID)
	h.hub.Register(conn)
	h.hub.SendTo(conn, MsgConnected, map[string]string{"surveyId": surveyID})
	h.hub.SendTo(conn, MsgInsightsSnapshot, snapshot)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.WithSurvey(conn.SurveyID).WithError(err).Warn("websocket read error")
			}
			break
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "refresh" {
			h.hub.SendTo(conn, MsgError, map[string]string{"error": "unsupported message"})
			continue
		}
		h.sendSnapshot(conn)
	}
}

func (h *Handler) sendSnapshot(conn *Connection) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotWait)
	defer cancel()

	snapshot, err := h.insights.SurveyInsights(ctx, conn.SurveyID, conn.OwnerID, true)
	if err != nil {
		logging.WithSurvey(conn.SurveyID).WithError(err).Warn("insights refresh failed")
		h.hub.SendTo(conn, MsgError, map[string]string{"error": "failed to refresh insights"})
		return
	}
	h.hub.SendTo(conn, MsgInsightsSnapshot, snapshot)
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
