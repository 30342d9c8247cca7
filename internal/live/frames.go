package live

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Frame types pushed by the backend agent over the streaming channel.
type FrameType string

const (
	FrameStatus      FrameType = "status"
	FrameStreamStart FrameType = "stream_start"
	FrameStreamChunk FrameType = "stream_chunk"
	FrameStreamEnd   FrameType = "stream_end"
	FramePong        FrameType = "pong"
	FrameError       FrameType = "error"

	// Client-sent frame types.
	FramePing    FrameType = "ping"
	FrameMessage FrameType = "message"
)

// Status codes carried on status frames.
const (
	StatusToolStart = "tool_start"
	StatusToolEnd   = "tool_end"
)

// Frame is the wire envelope. Payload shape depends on Type.
type Frame struct {
	Type      FrameType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// StatusPayload rides on status frames. Tool is set only for the
// tool_start/tool_end codes.
type StatusPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Tool    string `json:"tool,omitempty"`
}

// ChunkPayload rides on stream_chunk frames.
type ChunkPayload struct {
	Text string `json:"text"`
}

// ErrorPayload rides on error frames.
type ErrorPayload struct {
	Message string `json:"message"`
}

// MessagePayload is the client-sent user message.
type MessagePayload struct {
	Text    string `json:"text"`
	Profile string `json:"profile"`
}

// DecodeFrame parses one inbound wire message.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if strings.TrimSpace(string(f.Type)) == "" {
		return Frame{}, fmt.Errorf("decode frame: missing type")
	}
	return f, nil
}

func (f Frame) StatusPayload() (StatusPayload, error) {
	var p StatusPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return StatusPayload{}, fmt.Errorf("decode status payload: %w", err)
	}
	return p, nil
}

func (f Frame) ChunkPayload() (ChunkPayload, error) {
	var p ChunkPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return ChunkPayload{}, fmt.Errorf("decode chunk payload: %w", err)
	}
	return p, nil
}

func (f Frame) ErrorPayload() ErrorPayload {
	var p ErrorPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return ErrorPayload{Message: "stream error"}
	}
	return p
}

// NewMessageFrame builds the outgoing user message, tagged with the last
// known session id when one exists.
func NewMessageFrame(text, profile, sessionID string) Frame {
	payload, _ := json.Marshal(MessagePayload{Text: text, Profile: profile})
	return Frame{Type: FrameMessage, Payload: payload, SessionID: sessionID}
}
