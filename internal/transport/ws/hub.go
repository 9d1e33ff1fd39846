package ws

import (
	"encoding/json"
	"sync"

	"surveyinsights/internal/logging"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Owner message types
const (
	MsgConnected            MessageType = "connected"
	MsgSubmissionReceived   MessageType = "submission_received"
	MsgAnalyticsInvalidated MessageType = "analytics_invalidated"
	MsgInsightsSnapshot     MessageType = "insights_snapshot"
	MsgError                MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans survey events out to the owner connections watching each survey.
// An owner may have several connections (tabs) on the same survey.
type Hub struct {
	// survey -> connections
	conns map[string]map[*Connection]struct{}

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	direct     chan *directMessage
	done       chan struct{}
	closeOnce  sync.Once
}

// Connection represents an owner WebSocket connection
type Connection struct {
	SurveyID string
	OwnerID  string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message for every connection on a survey
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

type directMessage struct {
	conn *Connection
	data []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		direct:     make(chan *directMessage, 64),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

// NewConnection creates a connection bound to this hub
func (h *Hub) NewConnection(surveyID, ownerID string) *Connection {
	return &Connection{
		SurveyID: surveyID,
		OwnerID:  ownerID,
		Send:     make(chan []byte, 64),
		Hub:      h,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for surveyID, set := range h.conns {
				for conn := range set {
					close(conn.Send)
				}
				delete(h.conns, surveyID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SurveyID] == nil {
				h.conns[conn.SurveyID] = make(map[*Connection]struct{})
			}
			h.conns[conn.SurveyID][conn] = struct{}{}
			h.mu.Unlock()
			logging.WithSurvey(conn.SurveyID).WithField("ownerId", conn.OwnerID).Debug("owner connected")

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.SurveyID]; ok {
				if _, ok := set[conn]; ok {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.SurveyID)
					}
					logging.WithSurvey(conn.SurveyID).WithField("ownerId", conn.OwnerID).Debug("owner disconnected")
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				logging.WithSurvey(msg.SurveyID).WithError(err).Error("failed to encode ws message")
				continue
			}
			h.mu.RLock()
			for conn := range h.conns[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case msg := <-h.direct:
			h.mu.RLock()
			if _, ok := h.conns[msg.conn.SurveyID][msg.conn]; ok {
				select {
				case msg.conn.Send <- msg.data:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// ConnectionCount returns how many connections watch the survey
func (h *Hub) ConnectionCount(surveyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[surveyID])
}

// BroadcastToOwners sends a message to every owner connection on the survey
// (implements service.Broadcaster)
func (h *Hub) BroadcastToOwners(surveyID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.WithSurvey(surveyID).WithError(err).Error("failed to encode ws payload")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    MessageType(msgType),
			Payload: data,
		},
	}:
	case <-h.done:
	}
}

// SendTo delivers a message to one registered connection
func (h *Hub) SendTo(conn *Connection, msgType MessageType, payload interface{}) {
	data, err := encode(msgType, payload)
	if err != nil {
		logging.WithSurvey(conn.SurveyID).WithError(err).Error("failed to encode ws message")
		return
	}
	select {
	case h.direct <- &directMessage{conn: conn, data: data}:
	case <-h.done:
	}
}

func encode(msgType MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}

// Close disconnects every connection and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
