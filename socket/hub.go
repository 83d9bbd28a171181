package socket

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"ieeesou/internal/admin/shell"
	"ieeesou/pkg/logger"
	"ieeesou/pkg/metrics"
	"ieeesou/store"
)

const (
	// Sent by the browser.
	TabType              = "TAB"               // Switch the active tab
	OpenAddType          = "OPEN_ADD"          // Open a blank editor
	EditType             = "EDIT"              // Open the editor on a document
	CloseModalType       = "CLOSE_MODAL"       // Close an editor
	FieldType            = "FIELD"             // Change one form value
	SubmitType           = "SUBMIT"            // Save the open form
	SearchType           = "SEARCH"            // Free-text list search
	FacetType            = "FACET"             // Member type filter
	ModeType             = "MODE"              // Event upcoming/past filter
	NextType             = "NEXT"              // Next list page
	PrevType             = "PREV"              // Previous list page
	ArmDeleteType        = "ARM_DELETE"        // First click of a delete
	ConfirmDeleteType    = "CONFIRM_DELETE"    // Second click of a delete
	CancelDeleteType     = "CANCEL_DELETE"     // Abandon a delete
	ActivityType         = "ACTIVITY"          // Dashboard activity row clicked
	RefreshDashboardType = "REFRESH_DASHBOARD" // Reload dashboard counts

	// Sent by the server.
	RenderType         = "RENDER"          // Full admin view snapshot
	PresenceUpdateType = "PRESENCE_UPDATE" // An admin connected, left or moved tabs
	RedirectType       = "REDIRECT"        // Session ended; go to the payload location
	ErrorType          = "ERROR"           // A message could not be applied
)

type WSMessage struct {
	Type    string          `json:"type"`
	Kind    string          `json:"kind,omitempty"`
	DocID   string          `json:"document_id,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type UserStatus struct {
	UserID   string    `json:"user_id"`
	Tab      shell.Tab `json:"tab"`
	LastSeen time.Time `json:"last_seen"`
}

// Hub tracks every connected admin. Each client owns its own shell; the hub
// only fans out presence and session messages.
type Hub struct {
	Clients    map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client
	Store      store.Store
	BannerTTL  time.Duration
	// SignInPath is where REDIRECT sends a signed-out admin.
	SignInPath string
	mu         sync.Mutex
	Presence   map[*Client]UserStatus
}

func NewHub(s store.Store, bannerTTL time.Duration, signInPath string) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Store:      s,
		BannerTTL:  bannerTTL,
		SignInPath: signInPath,
		Presence:   make(map[*Client]UserStatus),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.Presence[client] = UserStatus{UserID: client.UserID, Tab: client.Shell.Tab(), LastSeen: time.Now()}
			h.mu.Unlock()
			metrics.AdminSessions.Inc()
			logger.Sugar.Infof("Admin %s connected", client.UserID)
			h.broadcastPresenceUpdate()

		case client := <-h.Unregister:
			if h.remove(client) {
				logger.Sugar.Infof("Admin %s disconnected", client.UserID)
				h.broadcastPresenceUpdate()
			}

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}
			// An empty UserID addresses everyone; otherwise only that admin's
			// connections receive it.
			h.mu.Lock()
			targets := make([]*Client, 0, len(h.Clients))
			for client := range h.Clients {
				if msg.UserID == "" || client.UserID == msg.UserID {
					targets = append(targets, client)
				}
			}
			h.mu.Unlock()

			for _, client := range targets {
				client.push(payload)
				if msg.Type == RedirectType {
					// Closing Send makes the write pump flush the redirect and
					// then close the socket.
					h.remove(client)
				}
			}
			if msg.Type == RedirectType && len(targets) > 0 {
				h.broadcastPresenceUpdate()
			}
		}
	}
}

// remove drops client and releases its shell. It reports whether the client
// was still registered.
func (h *Hub) remove(client *Client) bool {
	h.mu.Lock()
	_, ok := h.Clients[client]
	if ok {
		delete(h.Clients, client)
		delete(h.Presence, client)
	}
	h.mu.Unlock()
	if !ok {
		return false
	}
	client.close()
	client.Shell.Close()
	client.cancel()
	metrics.AdminSessions.Dec()
	return true
}

// SignOut ends every connection of userID with a REDIRECT to the sign-in page.
func (h *Hub) SignOut(userID string) {
	payload, _ := json.Marshal(map[string]string{"location": h.SignInPath})
	h.Broadcast <- WSMessage{Type: RedirectType, UserID: userID, Payload: payload}
}

// setTab records the tab client is looking at and tells everyone when it
// changed.
func (h *Hub) setTab(client *Client, tab shell.Tab) {
	h.mu.Lock()
	status, ok := h.Presence[client]
	changed := ok && status.Tab != tab
	if ok {
		status.Tab = tab
		status.LastSeen = time.Now()
		h.Presence[client] = status
	}
	h.mu.Unlock()
	if changed {
		h.broadcastPresenceUpdate()
	}
}

// Online lists the connected admins, one entry per connection.
func (h *Hub) Online() []UserStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.onlineLocked()
}

func (h *Hub) onlineLocked() []UserStatus {
	out := make([]UserStatus, 0, len(h.Presence))
	for _, status := range h.Presence {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Tab < out[j].Tab
	})
	return out
}

func (h *Hub) broadcastPresenceUpdate() {
	h.mu.Lock()
	userStatuses := h.onlineLocked()
	clientsToSend := make([]*Client, 0, len(h.Clients))
	for client := range h.Clients {
		clientsToSend = append(clientsToSend, client)
	}
	h.mu.Unlock()

	if len(clientsToSend) == 0 {
		return
	}

	payload, err := json.Marshal(userStatuses)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling presence broadcast: %v", err)
		return
	}
	broadcastPayload, _ := json.Marshal(WSMessage{Type: PresenceUpdateType, Payload: payload})

	for _, client := range clientsToSend {
		client.push(broadcastPayload)
	}
}
