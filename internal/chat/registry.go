package chat

import (
	"sync"

	"github.com/google/uuid"
)

// ConnID 是一条活跃连接的唯一标识，其他组件只持有 ID，不持有连接本身。
type ConnID string

// Sender 是注册表对底层连接的唯一要求：非阻塞地投递一帧已编码的数据。
// 返回 false 表示连接已经跟不上（缓冲满或已关闭），该帧被丢弃。
type Sender interface {
	Send(payload []byte) bool
}

// Registry 持有全部活跃连接，是连接句柄的唯一属主。
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]Sender
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]Sender)}
}

// Register 在会话建立时登记连接并分配 ID。
func (r *Registry) Register(s Sender) ConnID {
	id := ConnID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = s
	r.mu.Unlock()
	return id
}

// Unregister 注销连接；对未知 ID 是无害的空操作。
func (r *Registry) Unregister(id ConnID) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Count 返回当前活跃连接数。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Emit 把同一份数据投递给一组连接。先在读锁内把 ID 解析成连接快照，
// 再在锁外逐个发送，避免发送耗时阻塞注册表。
func (r *Registry) Emit(ids []ConnID, payload []byte) {
	if len(ids) == 0 {
		return
	}
	r.mu.RLock()
	senders := make([]Sender, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.conns[id]; ok {
			senders = append(senders, s)
		}
	}
	r.mu.RUnlock()
	for _, s := range senders {
		s.Send(payload)
	}
}
