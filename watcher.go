package bttdarkmode

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 监听参数，测试中可调小。
var (
	watchBlock        = 5 * time.Second
	watchBackoff      = 5 * time.Second
	antiEntropyPeriod = time.Minute
)

// Watch 开始监听 Update Stream。
// 它是阻塞的，应在 goroutine 中运行。
func (s *Store) Watch(ctx context.Context) error {
	// 使用 $ 只读取新消息
	lastID := "$"
	streamKey := KeyUpdates()

	checkConsistency := func() {
		remoteHash, err := s.rdb.HGet(ctx, KeyVersions(), strconv.Itoa(s.version)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn("check consistency failed", zap.Error(err))
			return
		}

		local := s.Snapshot().AllHash
		if remoteHash != "" && remoteHash != local {
			s.logger.Info("version hash mismatch detected, reloading",
				zap.String("local", local),
				zap.String("remote", remoteHash),
			)
			s.reload(ctx)
		}
	}

	// 1. 启动时立即检查一次（防止 New 和 Watch 之间的 Gap 导致漏更）
	checkConsistency()

	// 定期反熵检查
	ticker := time.NewTicker(antiEntropyPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			checkConsistency()
		default:
		}

		// 阻塞读取
		streams, err := s.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{streamKey, lastID},
			Block:   watchBlock,
			Count:   1,
		}).Result()

		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("watch failed", zap.Error(err))
			// 退避等待，防止死循环刷日志
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(watchBackoff):
				continue
			}
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				data, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var update UpdateMessage
				if err := json.Unmarshal([]byte(data), &update); err != nil {
					s.logger.Warn("skip malformed update message", zap.String("id", msg.ID), zap.Error(err))
					continue
				}

				// 仅当发布的版本号与当前版本一致时才加载
				if update.Version == s.version {
					s.logger.Debug("received rule table update",
						zap.String("all_hash", update.AllHash),
						zap.Strings("changed", update.Changed),
					)
					s.reload(ctx)
				}
			}
		}
	}
}

func (s *Store) reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.Error("reload rule tables failed", zap.Int("version", s.version), zap.Error(err))
	}
}
