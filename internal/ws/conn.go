package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/auth"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/chat"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/config"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/metrics"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	readLimit    = 1 << 20 // 1MB
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client 包装一条 websocket 连接，实现 chat.Sender。一个连接只有一个
// 读 goroutine，所有上行事件在它里面顺序处理，同一连接的操作天然串行。
// 读侧退出时关闭 done，写 goroutine 据此立即收尾，不用等到下一次心跳。
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	id   chat.ConnID
	d    *chat.Dispatcher
}

// Send 非阻塞投递一帧下行数据，缓冲满或连接已收尾时丢帧并返回 false。
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Serve 返回 websocket 升级入口。握手需要有效的 access token（header
// 或 token query 参数），通过后连接登记进聊天核心。
func Serve(d *chat.Dispatcher, db *gorm.DB, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseAccessToken(token, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{conn: conn, send: make(chan []byte, 256), done: make(chan struct{}), d: d}
		client.id = d.Connect(client)
		metrics.WsConnections.Inc()
		log.Info().Str("conn", string(client.id)).Str("username", user.Username).Msg("ws connected")

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.d.Disconnect(c.id)
		close(c.done)
		metrics.WsConnections.Dec()
		_ = c.conn.Close()
		log.Info().Str("conn", string(c.id)).Msg("ws disconnected")
	}()
	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.d.Dispatch(context.Background(), c.id, data)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
