package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher 是连接生命周期的状态机：把上行事件接到各个组件上，并负责
// 断开时按固定顺序清理。必须先把“还有谁在这个房间”这类依赖查询做完，
// 才能抹掉连接自身的状态。
type Dispatcher struct {
	reg      *Registry
	presence *Presence
	rooms    *Rooms
	group    *GroupChannel
	private  *PrivateChannel
}

// New 组装整个聊天核心并返回调度器。
func New(roomNames []string, mlog MessageLog, persistTimeout time.Duration) *Dispatcher {
	reg := NewRegistry()
	presence := NewPresence()
	rooms := NewRooms(roomNames)
	return &Dispatcher{
		reg:      reg,
		presence: presence,
		rooms:    rooms,
		group:    NewGroupChannel(reg, presence, rooms, mlog, persistTimeout),
		private:  NewPrivateChannel(reg, presence, mlog, persistTimeout),
	}
}

// Connect 在会话建立时登记连接。
func (d *Dispatcher) Connect(s Sender) ConnID {
	return d.reg.Register(s)
}

// Disconnect 按序清理断开的连接：先向房间剩余成员发离开通知，再清
// 成员关系，再清在线目录，最后注销连接。重复调用是无害的空操作。
func (d *Dispatcher) Disconnect(id ConnID) {
	if room, ok := d.rooms.RoomOf(id); ok {
		if username, ok := d.presence.UsernameOf(id); ok {
			d.group.PostSystem(room, username+" left the room", id)
		}
	}
	d.rooms.Leave(id)
	d.presence.Forget(id)
	d.reg.Unregister(id)
}

// Dispatch 解析一帧上行数据并路由到对应组件。格式不对或事件未知的帧
// 直接丢弃，不向连接回报错误。
func (d *Dispatcher) Dispatch(ctx context.Context, id ConnID, raw []byte) {
	var ev InboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return
	}
	switch ev.Event {
	case EvUserOnline:
		d.announce(id, ev.Username)
	case EvRoomsList:
		d.reg.Emit([]ConnID{id}, encode(RoomsListEvent{Event: EvRoomsList, Rooms: d.rooms.Names()}))
	case EvRoomJoin:
		d.join(ctx, id, ev)
	case EvRoomLeave:
		d.leave(id)
	case EvRoomMessage:
		d.group.PostMessage(ctx, id, ev.Body)
	case EvTyping:
		d.group.PostTyping(id)
	case EvPMOpen:
		d.private.OpenHistory(ctx, id, ev.ToUser)
	case EvPMSend:
		d.private.SendMessage(ctx, id, ev.ToUser, ev.Message)
	case EvPMTyping:
		d.private.SendTyping(id, ev.ToUser)
	}
}

func (d *Dispatcher) announce(id ConnID, username string) {
	if username == "" {
		return
	}
	if err := d.presence.Announce(id, username); err != nil {
		if errors.Is(err, ErrIdentityConflict) {
			cur, _ := d.presence.UsernameOf(id)
			log.Warn().Str("conn", string(id)).Str("announced", username).Str("current", cur).Msg("identity conflict")
			d.reg.Emit([]ConnID{id}, encode(ErrorEvent{Event: EvError, Text: "connection already announced as " + cur}))
		}
	}
}

// join 处理加入房间：换房时旧房间的剩余成员先收到离开通知；加入成功
// 后先给新成员回放历史，再向房间广播加入通知。重复加入当前房间仍然回
// 放历史（客户端以此重新同步房间视图），但不再发多余的进出通知。
func (d *Dispatcher) join(ctx context.Context, id ConnID, ev InboundEvent) {
	if ev.Username != "" {
		d.announce(id, ev.Username)
	}
	prev, hadPrev := d.rooms.RoomOf(id)
	rejoin := hadPrev && prev == ev.Room
	if !rejoin {
		if err := d.rooms.Join(id, ev.Room); err != nil {
			// 未知房间来自失步的客户端，丢弃即可。
			return
		}
	}
	username, hasName := d.presence.UsernameOf(id)
	if hadPrev && !rejoin && hasName {
		d.group.PostSystem(prev, username+" left the room")
	}
	history, err := d.group.History(ctx, ev.Room)
	if err != nil {
		log.Error().Err(err).Str("room", ev.Room).Msg("room history replay")
		history = nil
	}
	d.reg.Emit([]ConnID{id}, encode(RoomHistoryEvent{Event: EvRoomHistory, Room: ev.Room, Messages: history}))
	if hasName && !rejoin {
		d.group.PostSystem(ev.Room, username+" joined the room")
	}
}

// leave 处理显式退出：先通知剩余成员，再清成员关系。
func (d *Dispatcher) leave(id ConnID) {
	room, ok := d.rooms.RoomOf(id)
	if !ok {
		return
	}
	if username, ok := d.presence.UsernameOf(id); ok {
		d.group.PostSystem(room, username+" left the room", id)
	}
	d.rooms.Leave(id)
}

// RoomNames 暴露固定房间列表，供 REST 层使用。
func (d *Dispatcher) RoomNames() []string { return d.rooms.Names() }

// Online 返回房间当前在线人数，供 REST 层使用。
func (d *Dispatcher) Online(room string) int { return d.rooms.Online(room) }
