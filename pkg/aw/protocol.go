package aw

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BaseTopic is the default MQTT topic prefix for the protocol.
const BaseTopic = "aw/v1"

// Zone lifecycle states carried in the retained state payload.
const (
	ZoneLive    = "live"
	ZoneStandby = "standby"
	ZoneOffline = "offline"
)

// Now-playing item kinds.
const (
	ItemMusic        = "music"
	ItemAnnouncement = "announcement"
)

// CommandEnvelope is the common controller command envelope for MQTT.
type CommandEnvelope struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	TS      int64           `json:"ts"`
	From    string          `json:"from"`
	ReplyTo string          `json:"replyTo,omitempty"`
	Body    json.RawMessage `json:"body"`
}

// ReplyEnvelope is the response envelope for commands.
type ReplyEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	OK   bool            `json:"ok"`
	TS   int64           `json:"ts"`
	Body json.RawMessage `json:"body,omitempty"`
	Err  *ReplyError     `json:"err,omitempty"`
}

// ReplyError describes an error response.
type ReplyError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Presence describes a zone presence payload.
type Presence struct {
	ZoneID string         `json:"zoneId"`
	Name   string         `json:"name"`
	Caps   map[string]any `json:"caps,omitempty"`
	TS     int64          `json:"ts"`
}

// NowPlaying describes the item a zone is currently rendering.
type NowPlaying struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Playlist  string `json:"playlist,omitempty"`
	Duration  int64  `json:"duration"`
	Elapsed   int64  `json:"elapsed"`
	IsPlaying bool   `json:"is_playing"`
}

// ZoneState is the retained state a zone publishes on every change.
// A retained payload on the state topic is the authority for that
// zone; controllers overwrite any local optimism with it.
type ZoneState struct {
	State      string      `json:"state"`
	NowPlaying *NowPlaying `json:"now_playing,omitempty"`
	Volume     float64     `json:"volume"`
	TS         int64       `json:"ts"`
}

// Event is a generic event payload on the zone event topic.
type Event struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// Event types emitted by zones.
const (
	EventTrackChanged         = "track.changed"
	EventAnnouncementStarted  = "announcement.started"
	EventAnnouncementFinished = "announcement.finished"
)

// NewCommand builds a command envelope with a JSON body.
func NewCommand(cmdType string, body any) (CommandEnvelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return CommandEnvelope{}, fmt.Errorf("marshal body: %w", err)
	}

	return CommandEnvelope{
		Type: cmdType,
		Body: payload,
	}, nil
}

// ValidateCommandEnvelope validates required envelope fields.
func ValidateCommandEnvelope(cmd CommandEnvelope) error {
	if strings.TrimSpace(cmd.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(cmd.Type) == "" {
		return errors.New("type is required")
	}
	if cmd.TS <= 0 {
		return errors.New("ts must be a positive unix timestamp")
	}
	if strings.TrimSpace(cmd.From) == "" {
		return errors.New("from is required")
	}
	if len(cmd.Body) == 0 {
		return errors.New("body is required")
	}
	return nil
}

// TopicPresence builds the presence topic for a zone.
func TopicPresence(topicBase, zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/presence", topicBase, zoneID)
}

// TopicState builds the retained state topic for a zone.
func TopicState(topicBase, zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/state", topicBase, zoneID)
}

// TopicCommands builds the command topic for a zone.
func TopicCommands(topicBase, zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/cmd", topicBase, zoneID)
}

// TopicEvents builds the events topic for a zone.
func TopicEvents(topicBase, zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/evt", topicBase, zoneID)
}

// TopicReply builds the reply topic for a controller instance.
func TopicReply(topicBase, controllerID string) string {
	return fmt.Sprintf("%s/reply/%s", topicBase, controllerID)
}
