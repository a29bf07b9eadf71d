// Command main watches the live post feed over WebSocket and prints each
// snapshot as it arrives. Useful for eyeballing feed behavior during
// development.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8375", "API host:port")
	token := flag.String("token", "", "JWT for authentication")
	flag.Parse()

	if *token == "" {
		log.Fatal("a -token is required (log in via POST /api/auth/login first)")
	}

	url := fmt.Sprintf("ws://%s/api/ws/feed?token=%s", *addr, *token)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()
	log.Printf("watching feed at %s", *addr)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				return
			}
			var snapshot struct {
				Posts []struct {
					Title string `json:"title"`
					Likes int64  `json:"likes"`
				} `json:"posts"`
				GeneratedAt string `json:"generated_at"`
			}
			if err := json.Unmarshal(message, &snapshot); err != nil {
				log.Printf("bad snapshot: %v", err)
				continue
			}
			fmt.Printf("--- snapshot %s (%d posts)\n", snapshot.GeneratedAt, len(snapshot.Posts))
			for _, post := range snapshot.Posts {
				fmt.Printf("  %3d likes  %s\n", post.Likes, post.Title)
			}
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	}
}
