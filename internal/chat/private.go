package chat

import (
	"context"
	"strings"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/metrics"

	"github.com/rs/zerolog/log"
)

// 打开私聊窗口时回放的历史条数。
const privateHistoryLimit = 30

// PrivateChannel 负责私聊消息的校验、落库与按在线目录扇出。投递是尽力
// 而为：对端不在线时消息只落库，等对端下次打开会话时由历史回放补齐。
type PrivateChannel struct {
	reg      *Registry
	presence *Presence
	log      MessageLog
	timeout  time.Duration
}

func NewPrivateChannel(reg *Registry, presence *Presence, mlog MessageLog, timeout time.Duration) *PrivateChannel {
	return &PrivateChannel{reg: reg, presence: presence, log: mlog, timeout: timeout}
}

// OpenHistory 把请求者与对端之间双向的最近历史只发给发起请求的连接。
func (p *PrivateChannel) OpenHistory(ctx context.Context, id ConnID, peer string) {
	username, ok := p.presence.UsernameOf(id)
	if !ok || peer == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	msgs, err := p.log.RecentPrivateMessages(ctx, username, peer, privateHistoryLimit)
	if err != nil {
		log.Error().Err(err).Str("user", username).Str("peer", peer).Msg("load private history")
		return
	}
	out := make([]PrivateMessagePayload, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, privatePayload(&msgs[i]))
	}
	p.reg.Emit([]ConnID{id}, encode(PMHistoryEvent{Event: EvPMHistory, WithUser: peer, Messages: out}))
}

// SendMessage 落库后把消息投递给发送者和接收者双方的每一条活跃连接，
// 发送者的其他设备也因此保持同步。同一连接只会收到一次。
func (p *PrivateChannel) SendMessage(ctx context.Context, id ConnID, peer, body string) {
	username, ok := p.presence.UsernameOf(id)
	if !ok || peer == "" {
		return
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	rec, err := p.log.AppendPrivateMessage(ctx, username, peer, body)
	if err != nil {
		log.Error().Err(err).Str("from", username).Str("to", peer).Msg("append private message")
		return
	}
	payload := encode(PMMessageEvent{Event: EvPMMessage, PrivateMessagePayload: privatePayload(rec)})
	p.reg.Emit(union(p.presence.Lookup(username), p.presence.Lookup(peer)), payload)
	metrics.PrivateMessagesTotal.Inc()
}

// SendTyping 只通知对端的活跃连接，携带发送者用户名，不落库。
func (p *PrivateChannel) SendTyping(id ConnID, peer string) {
	username, ok := p.presence.UsernameOf(id)
	if !ok || peer == "" {
		return
	}
	p.reg.Emit(p.presence.Lookup(peer), encode(PMTypingEvent{Event: EvPMTyping, FromUser: username}))
}

// union 合并两个连接集合并去重，自己给自己发消息时双方集合会重叠。
func union(a, b []ConnID) []ConnID {
	seen := make(map[ConnID]struct{}, len(a)+len(b))
	out := make([]ConnID, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
