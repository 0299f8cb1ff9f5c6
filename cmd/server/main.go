package main

import (
	"time"

	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/chat"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/config"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/db"
	clog "github.com/AndreiGania/101478350-lab-test1-chat-app/internal/log"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/server"
	"github.com/AndreiGania/101478350-lab-test1-chat-app/internal/store"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责加载配置、初始化日志、连接数据库、组装聊天核心并启动 Gin 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	mlog := store.NewMessageLog(gdb)
	dispatcher := chat.New(cfg.Rooms, mlog, time.Duration(cfg.PersistTimeoutSeconds)*time.Second)

	r := server.SetupRouter(cfg, gdb, dispatcher)
	log.Info().Str("port", cfg.Port).Strs("rooms", cfg.Rooms).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
