// Standalone load client: creates a room (or reuses one) and connects N
// players that chat, guess and draw.
//
// Usage: go run test/loadtest.go <number_of_clients> [roomId]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const (
	createRoomURL = "http://localhost:3000/room/create"
	wsURL         = "ws://localhost:3000/ws"
)

type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func main() {
	args := os.Args
	if len(args) < 2 {
		log.Fatal("Usage: go run test/loadtest.go <number_of_clients> [roomId]")
	}

	numClients, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal("Invalid number of clients:", err)
	}

	var roomID string
	if len(args) >= 3 {
		roomID = args[2]
		fmt.Println("Using existing room:", roomID)
	} else {
		roomID = createRoom()
		fmt.Println("Created room:", roomID)
	}

	time.Sleep(1 * time.Second) // wait a sec for the room to spin up

	for i := 0; i < numClients; i++ {
		go connectAndSpam(roomID, fmt.Sprintf("player%d", i), i == 0)
	}

	select {} // block forever (let goroutines run)
}

func createRoom() string {
	resp, err := http.Post(createRoomURL, "application/json", nil)
	if err != nil {
		log.Fatal("Failed to create room:", err)
	}
	defer resp.Body.Close()

	var res struct {
		RoomID string `json:"roomId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Fatal("Invalid JSON from room creation:", err)
	}
	return res.RoomID
}

func connectAndSpam(roomID, playerID string, host bool) {
	url := fmt.Sprintf("%s/%s/%s?name=%s", wsURL, roomID, playerID, playerID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Println("WS connect error:", err)
		return
	}
	defer conn.Close()

	fmt.Printf("%s joined\n", playerID)

	// Drain server messages so the connection stays healthy.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if host {
		time.Sleep(2 * time.Second)
		start := WSMessage{Type: "start_game", Data: json.RawMessage(`{"rounds":2,"turnSeconds":30}`)}
		if b, err := json.Marshal(start); err == nil {
			conn.WriteMessage(websocket.TextMessage, b)
		}
	}

	messages := []WSMessage{
		{
			Type: "message",
			Data: json.RawMessage(fmt.Sprintf(`{"message":"Hello from %s"}`, playerID)),
		},
		{
			Type: "guess",
			Data: json.RawMessage(fmt.Sprintf(`{"guess":"test guess from %s"}`, playerID)),
		},
		{
			Type: "stroke",
			Data: json.RawMessage(fmt.Sprintf(`{"strokeColor":"#000000","strokeWidth":3,"paths":[{"x":%d,"y":%d}]}`, rand.Intn(800), rand.Intn(600))),
		},
	}

	for i := 0; i < 100; i++ { // Send 100 messages then stop
		msg := messages[rand.Intn(len(messages))]

		msgBytes, err := json.Marshal(msg)
		if err != nil {
			log.Printf("JSON marshal error for %s: %v", playerID, err)
			continue
		}

		if err := conn.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
			log.Printf("Write error for %s: %v", playerID, err)
			return
		}

		// Random delay between 100-1000ms
		time.Sleep(time.Duration(100+rand.Intn(900)) * time.Millisecond)
	}

	fmt.Printf("%s finished sending messages\n", playerID)
}
