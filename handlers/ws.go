package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"restaurantfinder/session"
	"restaurantfinder/view"
)

const (
	wsWriteWait = 10 * time.Second
	// Clients must answer a ping within wsPongWait.
	wsPongWait   = time.Minute
	wsPingPeriod = wsPongWait * 9 / 10
	// Clients never send anything bigger than a close frame.
	wsMaxInbound = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are already enforced by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// viewMessage is the frame pushed for every render.
type viewMessage struct {
	Type string    `json:"type"`
	View view.View `json:"view"`
}

type wsClient struct {
	conn   *websocket.Conn
	views  <-chan view.View
	cancel func()
	logger *slog.Logger
}

// WebSocketHandler streams every view the caller's controller renders. The
// current view is sent right after the upgrade.
func WebSocketHandler(store *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := store.Get(w, r)

		// w.Header() carries the session cookie when one was just created.
		conn, err := upgrader.Upgrade(w, r, w.Header())
		if err != nil {
			slog.Warn("failed to upgrade to WebSocket", "error", err)
			return
		}

		views, cancel := sess.Views.Subscribe()
		c := &wsClient{
			conn:   conn,
			views:  views,
			cancel: cancel,
			logger: slog.Default().With("session", sess.ID),
		}
		c.logger.Debug("websocket connected")

		go c.writePump(sess.Controller.View())
		c.readPump()
	}
}

// readPump drains client frames so pongs and close messages are processed.
// Clients only listen; anything they send is ignored.
func (c *wsClient) readPump() {
	defer func() {
		c.cancel()
		c.conn.Close()
		c.logger.Debug("websocket disconnected")
	}()

	c.conn.SetReadLimit(wsMaxInbound)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket error", "error", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump(initial view.View) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if err := c.send(initial); err != nil {
		return
	}
	for {
		select {
		case v, ok := <-c.views:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"))
				return
			}
			if err := c.send(v); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) send(v view.View) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(viewMessage{Type: "view", View: v})
}
