package chat

import (
	"errors"
	"sync"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/metrics"
)

// ErrIdentityConflict 表示连接已绑定用户名，又用另一个用户名重新宣告。
// 这种情况上报给调用方处理，不做静默覆盖。
var ErrIdentityConflict = errors.New("connection already announced a different username")

// Presence 维护 用户名 -> 连接集合 的在线目录，同时维护反查表以便
// 断开时能定位连接归属。一个连接同一时刻至多属于一个用户名。
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]map[ConnID]struct{}
	byConn map[ConnID]string
}

func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[string]map[ConnID]struct{}),
		byConn: make(map[ConnID]string),
	}
}

// Announce 把连接绑定到用户名，重复宣告同一用户名是幂等的。
func (p *Presence) Announce(id ConnID, username string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.byConn[id]; ok {
		if cur == username {
			return nil
		}
		return ErrIdentityConflict
	}
	set, ok := p.byUser[username]
	if !ok {
		set = make(map[ConnID]struct{})
		p.byUser[username] = set
		metrics.OnlineUsers.Inc()
	}
	set[id] = struct{}{}
	p.byConn[id] = username
	return nil
}

// Lookup 返回用户名当前全部活跃连接的快照，离线用户得到空切片。
func (p *Presence) Lookup(username string) []ConnID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	set := p.byUser[username]
	ids := make([]ConnID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// UsernameOf 返回连接已宣告的用户名。
func (p *Presence) UsernameOf(id ConnID) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, ok := p.byConn[id]
	return name, ok
}

// Forget 把连接从其所属的用户名集合中移除，集合清空后整条目录项删除，
// 不留空集合。对未宣告过的连接是空操作。
func (p *Presence) Forget(id ConnID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	username, ok := p.byConn[id]
	if !ok {
		return
	}
	delete(p.byConn, id)
	if set, ok := p.byUser[username]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(p.byUser, username)
			metrics.OnlineUsers.Dec()
		}
	}
}
