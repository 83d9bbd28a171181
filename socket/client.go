package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"ieeesou/internal/admin/editor"
	"ieeesou/internal/admin/shell"
	"ieeesou/internal/content/model"
	"ieeesou/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// AllowOrigins lets the admin page be served from the listed origins in
// addition to the socket's own host.
func AllowOrigins(origins []string) {
	upgrader.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range origins {
			if o == "*" || strings.EqualFold(strings.TrimSuffix(o, "/"), origin) {
				return true
			}
		}
		return false
	}
}

type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte
	Shell  *shell.Shell

	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
}

// Input is the payload of browser messages; each type reads the fields it
// needs.
type Input struct {
	Tab   string `json:"tab,omitempty"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
	Query string `json:"query,omitempty"`
	Facet string `json:"facet,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		cancel: cancel,
	}
	client.Shell = shell.New(ctx, shell.Options{
		Store:     hub.Store,
		BannerTTL: hub.BannerTTL,
		Emit:      client.render,
	})

	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

// push queues payload for the write pump. A client whose buffer is full is
// disconnected.
func (c *Client) push(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Sugar.Warnf("Client %s's send buffer is full. Disconnecting.", c.UserID)
		c.Conn.Close()
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) render(v shell.View) {
	c.send(RenderType, v)
}

func (c *Client) send(msgType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload: %v", msgType, err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: msgType, UserID: c.UserID, Payload: body})
	c.push(msg)
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(rawMessage, &msg); err != nil {
			logger.Sugar.Errorf("Error unmarshalling message: %v", err)
			continue
		}
		// The session decides who is speaking, not the message.
		msg.UserID = c.UserID

		if err := c.handle(msg); err != nil {
			var verr *editor.ValidationError
			if errors.As(err, &verr) {
				// Field errors are already part of the rendered form.
				continue
			}
			logger.Sugar.Warnf("Admin %s: %s rejected: %v", c.UserID, msg.Type, err)
			c.send(ErrorType, map[string]string{"message": err.Error()})
		}
		c.Hub.setTab(c, c.Shell.Tab())
	}
}

func (c *Client) handle(msg WSMessage) error {
	var in Input
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &in); err != nil {
			return fmt.Errorf("bad %s payload: %w", msg.Type, err)
		}
	}
	var kind model.Kind
	if msg.Kind != "" {
		k, err := model.ParseKind(msg.Kind)
		if err != nil {
			return err
		}
		kind = k
	}

	sh := c.Shell
	switch msg.Type {
	case TabType:
		return sh.SetTab(shell.Tab(in.Tab))
	case OpenAddType:
		return sh.OpenAdd(kind)
	case EditType:
		return sh.Edit(kind, msg.DocID)
	case CloseModalType:
		return sh.CloseModal(kind)
	case FieldType:
		return sh.SetField(kind, in.Key, in.Value)
	case SubmitType:
		return sh.Submit(kind)
	case SearchType:
		return sh.Search(kind, in.Query)
	case FacetType:
		return sh.SetFacet(kind, in.Facet)
	case ModeType:
		return sh.SetMode(kind, in.Mode)
	case NextType:
		return sh.Next(kind)
	case PrevType:
		return sh.Prev(kind)
	case ArmDeleteType:
		return sh.ArmDelete(kind, msg.DocID)
	case ConfirmDeleteType:
		return sh.ConfirmDelete(kind)
	case CancelDeleteType:
		return sh.CancelDelete(kind)
	case ActivityType:
		return sh.OpenActivity(kind, msg.DocID)
	case RefreshDashboardType:
		sh.RefreshDashboard()
		return nil
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
