package chat

import (
	"context"
	"strings"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/metrics"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/models"

	"github.com/rs/zerolog/log"
)

// MessageLog 是聊天核心对持久化日志的依赖面，生产实现在 store 包。
type MessageLog interface {
	AppendGroupMessage(ctx context.Context, sender, room, body string) (*models.GroupMessage, error)
	RecentGroupMessages(ctx context.Context, room string, limit int, beforeID uint) ([]models.GroupMessage, error)
	AppendPrivateMessage(ctx context.Context, from, to, body string) (*models.PrivateMessage, error)
	RecentPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]models.PrivateMessage, error)
}

// 加入房间时回放的历史条数。
const historyReplayLimit = 25

// GroupChannel 负责群聊消息的校验、落库与按房间扇出。
type GroupChannel struct {
	reg      *Registry
	presence *Presence
	rooms    *Rooms
	log      MessageLog
	timeout  time.Duration
}

func NewGroupChannel(reg *Registry, presence *Presence, rooms *Rooms, mlog MessageLog, timeout time.Duration) *GroupChannel {
	return &GroupChannel{reg: reg, presence: presence, rooms: rooms, log: mlog, timeout: timeout}
}

// PostMessage 落库并向房间全体成员（含发送者自己）广播消息。连接没有
// 宣告身份、不在任何房间、或消息去空白后为空时静默丢弃：这类状态来自
// 客户端自身的不一致，不值得为它断开会话。
func (g *GroupChannel) PostMessage(ctx context.Context, id ConnID, body string) {
	username, ok := g.presence.UsernameOf(id)
	if !ok {
		return
	}
	room, ok := g.rooms.RoomOf(id)
	if !ok {
		return
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	rec, err := g.log.AppendGroupMessage(ctx, username, room, body)
	if err != nil {
		// 广播只在落库成功后发生，不存在半截广播。
		log.Error().Err(err).Str("room", room).Str("from", username).Msg("append group message")
		return
	}
	payload := encode(RoomMessageEvent{Event: EvRoomMessage, GroupMessagePayload: groupPayload(rec)})
	g.reg.Emit(g.rooms.MembersOf(room), payload)
	metrics.GroupMessagesTotal.Inc()
}

// PostTyping 向房间内除发送者以外的成员发送打字提示，不落库。
func (g *GroupChannel) PostTyping(id ConnID) {
	username, ok := g.presence.UsernameOf(id)
	if !ok {
		return
	}
	room, ok := g.rooms.RoomOf(id)
	if !ok {
		return
	}
	payload := encode(RoomTypingEvent{Event: EvTyping, Room: room, Username: username})
	g.reg.Emit(exclude(g.rooms.MembersOf(room), id), payload)
}

// PostSystem 把加入/离开等系统通知发给房间当前全体成员，except 里的
// 连接被跳过。只供核心内部在状态变更时调用。
func (g *GroupChannel) PostSystem(room, text string, except ...ConnID) {
	payload := encode(RoomSystemEvent{Event: EvRoomSystem, Room: room, Text: text, Timestamp: time.Now()})
	members := g.rooms.MembersOf(room)
	for _, id := range except {
		members = exclude(members, id)
	}
	g.reg.Emit(members, payload)
}

// History 取房间最近的历史消息并转为回放顺序（旧在前）。
func (g *GroupChannel) History(ctx context.Context, room string) ([]GroupMessagePayload, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	msgs, err := g.log.RecentGroupMessages(ctx, room, historyReplayLimit, 0)
	if err != nil {
		return nil, err
	}
	out := make([]GroupMessagePayload, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, groupPayload(&msgs[i]))
	}
	return out, nil
}

func exclude(ids []ConnID, drop ConnID) []ConnID {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
