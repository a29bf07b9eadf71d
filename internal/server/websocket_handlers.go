package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedWebSocketUpgrade rejects plain HTTP requests to the feed endpoint.
func (s *Server) FeedWebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// FeedWebSocketHandler streams full feed snapshots to the client. The
// client receives the current snapshot on connect and a fresh one after
// every mutation; a slow client only ever sees the latest.
func (s *Server) FeedWebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()
		userID, _ := conn.Locals("userID").(string)

		sub, err := s.feedHub.Subscribe(ctx, userID)
		if err != nil {
			_ = conn.WriteJSON(fiber.Map{"error": "feed unavailable"})
			_ = conn.Close()
			return
		}
		defer s.feedHub.Unsubscribe(ctx, sub, "connection closed")

		// Drain reads so we notice the client going away.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case snap, ok := <-sub.Updates():
				if !ok {
					return
				}
				if err := conn.WriteJSON(snap); err != nil {
					return
				}
			case <-closed:
				return
			}
		}
	})
}
