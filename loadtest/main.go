package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/client"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

const (
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // pairs of users, so 100 connections
	MsgCount  = 20 // messages per user
)

func main() {
	log.Printf("starting load test: %d users, %d messages each", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("load test complete")
}

func runPair(pairID int) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a := connect(ctx, fmt.Sprintf("u_%d_a", pairID))
	b := connect(ctx, fmt.Sprintf("u_%d_b", pairID))
	if a == nil || b == nil {
		return
	}
	defer a.Disconnect()
	defer b.Disconnect()

	received := make(chan struct{}, MsgCount*2)
	for _, c := range []*client.Client{a, b} {
		c.Subscribe(func(res *protocol.Result) {
			if res.Kind != protocol.ResultSendMessage {
				return
			}
			select {
			case received <- struct{}{}:
			default:
			}
		})
	}

	// Both sides chat in the general room; everyone else hears it too,
	// which is exactly the fan-out pressure we want.
	roomID := generalRoomID(a)
	if roomID == nil {
		log.Printf("pair %d: no general room in handshake", pairID)
		return
	}

	for i := 0; i < MsgCount; i++ {
		sendRoomMessage(a, *roomID, fmt.Sprintf("pair %d msg %d from a", pairID, i))
		sendRoomMessage(b, *roomID, fmt.Sprintf("pair %d msg %d from b", pairID, i))
	}

	deadline := time.After(30 * time.Second)
	for i := 0; i < MsgCount*2; i++ {
		select {
		case <-received:
		case <-deadline:
			log.Printf("pair %d: timed out after %d/%d own messages", pairID, i, MsgCount*2)
			return
		}
	}
}

func connect(ctx context.Context, name string) *client.Client {
	c := client.NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client.NewServerInfo(name, WSURL))
	res, err := c.ConnectAs(ctx, chat.NewAuthUser(name, "password123", "en-US"), true)
	if err != nil {
		log.Printf("%s: connect failed: %v", name, err)
		return nil
	}
	if res.Kind == protocol.ResultError {
		// Registration races on reruns; fall back to authorization.
		res, err = c.ConnectAs(ctx, chat.NewAuthUser(name, "password123", "en-US"), false)
		if err != nil || res.Kind == protocol.ResultError {
			log.Printf("%s: auth failed", name)
			return nil
		}
	}
	return c
}

// generalRoomID waits for the room list the server sends right after
// admission and returns the first room's id.
func generalRoomID(c *client.Client) *uuid.UUID {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		for _, res := range c.Inbox() {
			if res.Kind != protocol.ResultSendChats {
				continue
			}
			rooms, err := res.ChatRooms()
			if err != nil || len(rooms) == 0 {
				continue
			}
			id := rooms[0].ID()
			return &id
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

func sendRoomMessage(c *client.Client, roomID uuid.UUID, text string) {
	msg := chat.NewRoomMessage(c.User(), roomID, text, "en-US")
	if err := c.SendMessage(msg); err != nil {
		log.Printf("send failed: %v", err)
	}
}
