package server

import (
	"context"
	"net/http"
	"time"

	"savestate-server/internal/domain"
	"savestate-server/internal/level"
	"savestate-server/internal/network"
	"savestate-server/pkg/api"
	"savestate-server/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	commandTimeout = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client - посредник между Websocket и сессией уровня
type Client struct {
	Session *level.Session
	Hub     *network.Broadcaster
	Conn    *websocket.Conn
	ID      string

	updates chan api.ServerResponse
	log     *logrus.Entry
}

func NewClient(session *level.Session, hub *network.Broadcaster, conn *websocket.Conn, token string) *Client {
	if token == "" {
		token = uuid.NewString()
	}
	c := &Client{
		Session: session,
		Hub:     hub,
		Conn:    conn,
		ID:      token,
		log:     logger.Log.WithField("client", token),
	}
	// Подписка до запуска пампов: события чекпоинтов и ответы идут одним каналом
	c.updates = hub.Register(token)
	return c
}

// readPump читает команды от клиента и отправляет их в цикл сессии
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c.ID, c.updates)
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection")
		}
		c.log.Info("Client disconnected")
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Warn("failed to set read deadline")
	}
	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	c.log.Info("Client connected")

	// Первая отрисовка
	c.execute(api.ClientCommand{Action: domain.CommandState.String()})

	for {
		var cmd api.ClientCommand
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Error("WS error")
			}
			return
		}
		c.execute(cmd)
	}
}

func (c *Client) execute(cmd api.ClientCommand) {
	typ := domain.ParseCommand(cmd.Action)
	if typ == domain.CommandUnknown {
		c.log.WithField("action", cmd.Action).Warn("Unknown action")
		c.Hub.SendTo(c.ID, api.ServerResponse{
			Type:    api.ResponseError,
			Command: cmd.Action,
			Error:   level.ErrUnknownCommand.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	res, err := c.Session.Submit(ctx, domain.InternalCommand{
		Type:    typ,
		Source:  c.ID,
		Payload: cmd.Payload,
	})
	if err != nil {
		res = level.Result{Command: typ, Err: err}
	}
	c.Hub.SendTo(c.ID, res.Response())
}

// writePump отправляет данные клиенту + Ping
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.updates:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.Conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.Conn.WriteJSON(message); err != nil {
				c.log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
