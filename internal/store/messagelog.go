package store

import (
	"context"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/models"

	"gorm.io/gorm"
)

// MessageLog 是聊天核心依赖的持久化消息日志。落库成功后的记录（包括服务端
// 分配的 ID 与时间戳）会被核心原样广播，所有接收方看到的内容一致。
type MessageLog struct {
	db *gorm.DB
}

func NewMessageLog(db *gorm.DB) *MessageLog {
	return &MessageLog{db: db}
}

// AppendGroupMessage 追加一条群聊消息并返回落库后的完整记录。
func (l *MessageLog) AppendGroupMessage(ctx context.Context, sender, room, body string) (*models.GroupMessage, error) {
	msg := models.GroupMessage{FromUser: sender, Room: room, Message: body}
	if err := l.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecentGroupMessages 返回房间最近 limit 条消息，按存储顺序新在前，
// 调用方需要反转后再做回放。before_id 为 0 表示从最新开始。
func (l *MessageLog) RecentGroupMessages(ctx context.Context, room string, limit int, beforeID uint) ([]models.GroupMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := l.db.WithContext(ctx).Where("room = ?", room)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []models.GroupMessage
	if err := q.Order("id desc").Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendPrivateMessage 追加一条私聊消息并返回落库后的完整记录。
func (l *MessageLog) AppendPrivateMessage(ctx context.Context, from, to, body string) (*models.PrivateMessage, error) {
	msg := models.PrivateMessage{FromUser: from, ToUser: to, Message: body}
	if err := l.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecentPrivateMessages 返回两个用户之间双向的最近 limit 条消息，新在前。
func (l *MessageLog) RecentPrivateMessages(ctx context.Context, userA, userB string, limit int) ([]models.PrivateMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 30
	}
	var msgs []models.PrivateMessage
	err := l.db.WithContext(ctx).
		Where("(from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)", userA, userB, userB, userA).
		Order("id desc").Limit(limit).Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
