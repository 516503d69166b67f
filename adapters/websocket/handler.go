package websocket

import (
	"context"

	"github.com/labstack/echo/v4"

	httpadapter "github.com/satriahrh/dsa-assistant/adapters/http"
	"github.com/satriahrh/dsa-assistant/utils/log"
)

// Handler upgrades GET /ws and serves frames until the connection closes.
// The session guard in front of it stores the session id on the context.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if sid, ok := c.Get(httpadapter.SessionIDKey).(string); ok {
		ctx = log.WithSessionID(ctx, sid)
	}

	// Frames are charged to the address that opened the connection.
	clientIP := c.RealIP()
	client := NewClient(ctx, conn, func(ctx context.Context, frame []byte) []byte {
		return s.Dispatch(ctx, clientIP, frame)
	})
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()
	<-client.Context().Done()

	return nil
}
