package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/auth"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/chat"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/config"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Handler 聚合所有 HTTP handler，依赖注入 store 与聊天核心。
type Handler struct {
	cfg      config.Config
	db       *gorm.DB
	accounts *store.AccountStore
	msglog   *store.MessageLog
	chat     *chat.Dispatcher
}

func NewHandler(cfg config.Config, db *gorm.DB, accounts *store.AccountStore, msglog *store.MessageLog, d *chat.Dispatcher) *Handler {
	return &Handler{cfg: cfg, db: db, accounts: accounts, msglog: msglog, chat: d}
}

// Register 处理账号创建请求，用户名冲突返回 409 并带明确原因。
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Username  string `json:"username"`
		Firstname string `json:"firstname"`
		Lastname  string `json:"lastname"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if len(req.Username) < 2 || len(req.Username) > 64 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid username"})
		return
	}
	if len(req.Password) < 4 || len(req.Password) > 128 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid password"})
		return
	}
	user, err := h.accounts.CreateAccount(req.Username, strings.TrimSpace(req.Firstname), strings.TrimSpace(req.Lastname), req.Password)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username, "firstname": user.Firstname, "lastname": user.Lastname})
}

// Login 校验凭据并签发 token 对。
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	user, err := h.accounts.VerifyCredentials(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Error().Err(err).Str("username", req.Username).Msg("login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	at, err := auth.GenerateAccessToken(user.ID, user.Username, h.cfg.JWTSecret, h.cfg.AccessTokenTTLMinutes)
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("login generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	rt, err := auth.GenerateRefreshToken()
	if err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("login generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
	if err := auth.SaveRefreshToken(h.db, user.ID, rt, exp); err != nil {
		log.Error().Err(err).Uint("user_id", user.ID).Msg("login save refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  at,
		"refresh_token": rt,
		"user":          gin.H{"id": user.ID, "username": user.Username, "firstname": user.Firstname, "lastname": user.Lastname},
	})
}

// RefreshToken 旋转刷新 token 对。
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	var (
		accessToken  string
		refreshToken string
	)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		rec, err := auth.ValidateRefreshToken(tx, req.RefreshToken)
		if err != nil {
			return err
		}
		if err := auth.RevokeRefreshToken(tx, req.RefreshToken); err != nil {
			return err
		}
		user, err := h.accounts.FindByID(rec.UserID)
		if err != nil {
			return err
		}
		at, err := auth.GenerateAccessToken(user.ID, user.Username, h.cfg.JWTSecret, h.cfg.AccessTokenTTLMinutes)
		if err != nil {
			return err
		}
		newRT, err := auth.GenerateRefreshToken()
		if err != nil {
			return err
		}
		exp := time.Now().Add(time.Duration(h.cfg.RefreshTokenTTLDays) * 24 * time.Hour)
		if err := auth.SaveRefreshToken(tx, user.ID, newRT, exp); err != nil {
			return err
		}
		accessToken = at
		refreshToken = newRT
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("refresh token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": accessToken, "refresh_token": refreshToken})
}

// ListUsers 返回按用户名排序的注册用户目录。
func (h *Handler) ListUsers(c *gin.Context) {
	names, err := h.accounts.ListUsernames()
	if err != nil {
		log.Error().Err(err).Msg("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": names})
}

// ListRooms 返回固定房间列表及各房间在线人数。
func (h *Handler) ListRooms(c *gin.Context) {
	type roomDTO struct {
		Name   string `json:"name"`
		Online int    `json:"online"`
	}
	names := h.chat.RoomNames()
	out := make([]roomDTO, 0, len(names))
	for _, n := range names {
		out = append(out, roomDTO{Name: n, Online: h.chat.Online(n)})
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

// ListRoomMessages 分页返回房间历史消息，按时间升序。
func (h *Handler) ListRoomMessages(c *gin.Context) {
	room := c.Param("room")
	known := false
	for _, n := range h.chat.RoomNames() {
		if n == room {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown room"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	var beforeID uint
	if bid := c.Query("before_id"); bid != "" {
		if v, err := strconv.Atoi(bid); err == nil && v > 0 {
			beforeID = uint(v)
		}
	}
	msgs, err := h.msglog.RecentGroupMessages(c.Request.Context(), room, limit, beforeID)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("list room messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	type msgDTO struct {
		ID       uint      `json:"id"`
		Room     string    `json:"room"`
		FromUser string    `json:"from_user"`
		Message  string    `json:"message"`
		SentAt   time.Time `json:"sent_at"`
	}
	out := make([]msgDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, msgDTO{ID: m.ID, Room: m.Room, FromUser: m.FromUser, Message: m.Message, SentAt: m.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// ListPrivateMessages 返回当前用户与指定用户之间双向的历史消息，升序。
func (h *Handler) ListPrivateMessages(c *gin.Context) {
	me := auth.GetUsername(c)
	peer := c.Param("user")
	if peer == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	msgs, err := h.msglog.RecentPrivateMessages(c.Request.Context(), me, peer, limit)
	if err != nil {
		log.Error().Err(err).Str("user", me).Str("peer", peer).Msg("list private messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	type msgDTO struct {
		ID       uint      `json:"id"`
		FromUser string    `json:"from_user"`
		ToUser   string    `json:"to_user"`
		Message  string    `json:"message"`
		SentAt   time.Time `json:"sent_at"`
	}
	out := make([]msgDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, msgDTO{ID: m.ID, FromUser: m.FromUser, ToUser: m.ToUser, Message: m.Message, SentAt: m.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}
