package chat

import (
	"encoding/json"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/models"
)

// InboundEvent 是客户端上行帧的统一信封，字段按事件类型取用。
type InboundEvent struct {
	Event    string `json:"event"`
	Username string `json:"username,omitempty"`
	Room     string `json:"room,omitempty"`
	Body     string `json:"body,omitempty"`
	ToUser   string `json:"to_user,omitempty"`
	Message  string `json:"message,omitempty"`
}

// 上行事件名。
const (
	EvUserOnline  = "user:online"
	EvRoomsList   = "rooms:list"
	EvRoomJoin    = "room:join"
	EvRoomLeave   = "room:leave"
	EvRoomMessage = "room:message"
	EvTyping      = "typing"
	EvPMOpen      = "pm:open"
	EvPMSend      = "pm:send"
	EvPMTyping    = "pm:typing"
)

// 仅下行的事件名。
const (
	EvRoomHistory = "room:history"
	EvRoomSystem  = "room:system"
	EvPMHistory   = "pm:history"
	EvPMMessage   = "pm:message"
	EvError       = "error"
)

// GroupMessagePayload 是群聊消息的下发形态，取自落库后的记录。
type GroupMessagePayload struct {
	ID       uint      `json:"id"`
	Room     string    `json:"room"`
	FromUser string    `json:"from_user"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

func groupPayload(m *models.GroupMessage) GroupMessagePayload {
	return GroupMessagePayload{ID: m.ID, Room: m.Room, FromUser: m.FromUser, Message: m.Message, SentAt: m.CreatedAt}
}

// PrivateMessagePayload 是私聊消息的下发形态。
type PrivateMessagePayload struct {
	ID       uint      `json:"id"`
	FromUser string    `json:"from_user"`
	ToUser   string    `json:"to_user"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

func privatePayload(m *models.PrivateMessage) PrivateMessagePayload {
	return PrivateMessagePayload{ID: m.ID, FromUser: m.FromUser, ToUser: m.ToUser, Message: m.Message, SentAt: m.CreatedAt}
}

type RoomsListEvent struct {
	Event string   `json:"event"`
	Rooms []string `json:"rooms"`
}

type RoomHistoryEvent struct {
	Event    string                `json:"event"`
	Room     string                `json:"room"`
	Messages []GroupMessagePayload `json:"messages"`
}

type RoomSystemEvent struct {
	Event     string    `json:"event"`
	Room      string    `json:"room"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type RoomMessageEvent struct {
	Event string `json:"event"`
	GroupMessagePayload
}

type RoomTypingEvent struct {
	Event    string `json:"event"`
	Room     string `json:"room"`
	Username string `json:"username"`
}

type PMHistoryEvent struct {
	Event    string                  `json:"event"`
	WithUser string                  `json:"with_user"`
	Messages []PrivateMessagePayload `json:"messages"`
}

type PMMessageEvent struct {
	Event string `json:"event"`
	PrivateMessagePayload
}

type PMTypingEvent struct {
	Event    string `json:"event"`
	FromUser string `json:"from_user"`
}

type ErrorEvent struct {
	Event string `json:"event"`
	Text  string `json:"text"`
}

// encode 序列化下行事件。事件结构都是已知可序列化的，失败不可达。
func encode(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}
