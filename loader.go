package bttdarkmode

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Load 从 Redis 加载当前版本的规则表。
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. 获取 Version 对应的 Hash
	allHash, err := s.rdb.HGet(ctx, KeyVersions(), strconv.Itoa(s.version)).Result()
	if errors.Is(err, redis.Nil) {
		// 初始时，版本不存在时，防止程序无法启动
		return nil
	}
	if err != nil {
		return fmt.Errorf("get version hash failed: %w", err)
	}

	old := s.Snapshot()
	if old.AllHash == allHash {
		return nil
	}

	// 2. 加载表名索引 (by Hash)
	tables, err := s.rdb.HGetAll(ctx, KeyTables(allHash)).Result()
	if err != nil {
		return fmt.Errorf("get tables failed: %w", err)
	}

	// 3. 加载文本，复用旧快照中已有的
	texts := make(map[string]string, len(tables))
	var missing []string
	for _, h := range tables {
		if _, seen := texts[h]; seen {
			continue
		}
		if text, ok := old.Texts[h]; ok {
			texts[h] = text
		} else {
			missing = append(missing, h)
		}
	}

	if len(missing) > 0 {
		// HMGet 仅获取缺失的文本
		vals, err := s.rdb.HMGet(ctx, KeyTexts(), missing...).Result()
		if err != nil {
			return fmt.Errorf("get texts failed: %w", err)
		}
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				return fmt.Errorf("text %s not found", missing[i])
			}
			texts[missing[i]] = str
		}
	}

	// 4. 解析，文本未变的表直接复用旧的解析结果
	parsed := make(map[string][]SiteRule, len(tables))
	for name, h := range tables {
		if old.Tables[name] == h {
			if rules, ok := old.Parsed[name]; ok {
				parsed[name] = rules
				continue
			}
		}
		schema, ok := SchemaByName(name)
		if !ok {
			s.logger.Warn("skip unknown rule table", zap.String("table", name))
			continue
		}
		parsed[name] = ParseRuleTable(texts[h], schema)
	}

	// 5. 构建快照并原子更新
	ss := &Snapshot{
		Version: s.version,
		AllHash: allHash,
		Tables:  tables,
		Texts:   texts,
		Parsed:  parsed,
	}
	s.snapshot.Store(ss)

	// 6. 清理 L1 缓存 (GC)
	s.resolved.Range(func(key, v any) bool {
		if v.(CacheEntry).SnapshotHash != allHash {
			s.resolved.Delete(key)
		}
		return true
	})

	s.logger.Info("load rule tables success",
		zap.Int("version", s.version),
		zap.String("all_hash", allHash),
		zap.Int("tables", len(parsed)),
	)

	if s.onReload != nil {
		s.onReload(ss)
	}
	return nil
}
