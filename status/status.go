package status

import (
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
	SCENE_CHANGED
)

// event is what inspection clients receive: log-style messages, long
// operation progress, and scene mutation notifications so viewers know to
// re-fetch the hierarchy.
type event struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second)); err != nil {
				return
			}
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

func NewClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	registerClient(c)
	go c.writePump()
	globalLock.Lock()
	defer globalLock.Unlock()
	if lastMessage != nil {
		c.send <- lastMessage
	}
	return c
}

var eventBroadcast chan *event
var broadcastList map[*client]bool
var globalLock sync.Mutex
var lastMessage []byte = nil

func registerClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	broadcastList[c] = true
}

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

func init() {
	eventBroadcast = make(chan *event, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for e := range eventBroadcast {
			data, err := json.Marshal(e)
			if err != nil {
				log.Printf("[status] Failed to marshal event: %v", err)
				continue
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default: // slow client, drop
				}
			}
			globalLock.Unlock()
		}
	}()
}

func publish(msg string, eventType int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	eventBroadcast <- &event{
		Message:  msg,
		Time:     time.Now(),
		Type:     eventType,
		Progress: progress,
	}
}

func Info(msg string) {
	publish(msg, INFO, 0)
}

func Error(msg string) {
	publish(msg, ERROR, 0)
}

func Progress(msg string, progress float32) {
	publish(msg, PROGRESS, progress)
}

// SceneChanged tells viewers that graph structure or transforms changed.
func SceneChanged(what string) {
	publish(what, SCENE_CHANGED, 0)
}
