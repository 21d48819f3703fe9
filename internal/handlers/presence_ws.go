package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/middleware"
	"github.com/jason-s-yu/courtside/internal/presence"
	"github.com/sirupsen/logrus"
)

const wsWriteTimeout = 5 * time.Second

// PresenceWSHandler streams live player counts on /courts/ws. The client gets a
// snapshot of every court's count, then one message per check-in.
func PresenceWSHandler(logger *logrus.Logger, dir *directory.Service, hub *presence.Hub, production bool, origins []string) http.HandlerFunc {
	originPatterns := []string{"*"}
	if production {
		originPatterns = origins
	}
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{PresenceSubprotocol},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != PresenceSubprotocol {
			c.Close(BadSubprotocolError, "client must speak the presence subprotocol")
			return
		}

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)

		// subscribe before the snapshot so no check-in falls between the two
		sub := hub.Subscribe()
		defer hub.Unsubscribe(sub)

		// the stream is one-way; CloseRead handles control frames and
		// cancels ctx once the client goes away
		ctx := c.CloseRead(r.Context())

		courts, err := dir.ListCourts(ctx, "")
		if err != nil {
			logger.WithError(err).Error("presence snapshot failed")
			c.Close(websocket.StatusInternalError, "snapshot failed")
			return
		}
		counts := make(map[string]int, len(courts))
		for _, court := range courts {
			counts[court.ID] = court.PlayerCount
		}
		if err := writeWS(ctx, c, presence.Message{Type: presence.TypeSnapshot, PlayerCounts: counts}); err != nil {
			middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
			return
		}

		for {
			select {
			case <-ctx.Done():
				middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
				return
			case msg, ok := <-sub.C:
				if !ok {
					middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, nil)
					c.Close(SlowConsumerError, "subscriber fell behind")
					return
				}
				if err := writeWS(ctx, c, msg); err != nil {
					middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)
					return
				}
			}
		}
	}
}

func writeWS(ctx context.Context, c *websocket.Conn, msg presence.Message) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, c, msg)
}
