package chat

import (
	"errors"
	"sync"
)

// ErrUnknownRoom 表示目标房间不在固定房间列表里。
var ErrUnknownRoom = errors.New("unknown room")

// Rooms 维护固定房间集合与 连接 -> 房间 的成员关系。房间本身运行期
// 不增删，成员关系是唯一的可变状态；一个连接至多属于一个房间。
type Rooms struct {
	names []string
	valid map[string]struct{}

	mu     sync.RWMutex
	byRoom map[string]map[ConnID]struct{}
	byConn map[ConnID]string
}

func NewRooms(names []string) *Rooms {
	valid := make(map[string]struct{}, len(names))
	byRoom := make(map[string]map[ConnID]struct{}, len(names))
	for _, n := range names {
		valid[n] = struct{}{}
		byRoom[n] = make(map[ConnID]struct{})
	}
	return &Rooms{
		names:  append([]string(nil), names...),
		valid:  valid,
		byRoom: byRoom,
		byConn: make(map[ConnID]string),
	}
}

// Names 按配置顺序返回房间列表。
func (r *Rooms) Names() []string {
	return append([]string(nil), r.names...)
}

// Join 把连接加入房间。连接已在其他房间时先退出旧房间，退出与加入在
// 同一把锁内完成，外部观察不到同属两房或两房皆不属的中间态。
func (r *Rooms) Join(id ConnID, room string) error {
	if _, ok := r.valid[room]; !ok {
		return ErrUnknownRoom
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byConn[id]; ok {
		delete(r.byRoom[prev], id)
	}
	r.byRoom[room][id] = struct{}{}
	r.byConn[id] = room
	return nil
}

// Leave 移除连接的房间成员关系，未加入任何房间时为空操作。
func (r *Rooms) Leave(id ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.byConn[id]; ok {
		delete(r.byRoom[room], id)
		delete(r.byConn, id)
	}
}

// MembersOf 返回房间当前成员的快照，广播方基于快照发送。
func (r *Rooms) MembersOf(room string) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byRoom[room]
	ids := make([]ConnID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// RoomOf 返回连接当前所在的房间。
func (r *Rooms) RoomOf(id ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.byConn[id]
	return room, ok
}

// Online 返回房间当前在线成员数，供 REST 接口复用。
func (r *Rooms) Online(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRoom[room])
}
