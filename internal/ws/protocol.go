// Package ws publishes readings to websocket and HTTP clients.
package ws

import (
	"github.com/doomscroll/doomscroll/pkg/models"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgReading  MessageType = "reading"
)

// Message is the envelope for every frame sent to clients.
type Message struct {
	Type    MessageType    `json:"type"`
	Payload models.Reading `json:"payload"`
}
