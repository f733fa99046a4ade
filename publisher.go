package bttdarkmode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher 处理（如发布）操作。
type Publisher struct {
	rdb     redis.UniversalClient
	version int
	logger  *zap.Logger
}

// NewPublisher 创建发布者。
// client: Redis 客户端实例（外部传入，DI）。
// version: 本次操作针对的目标版本。
func NewPublisher(client redis.UniversalClient, version int, opts ...Option) *Publisher {
	o := buildOptions(opts)
	return &Publisher{
		rdb:     client,
		version: version,
		logger:  o.logger,
	}
}

// PublishRequest 代表发布新规则表的请求。
type PublishRequest struct {
	// FullReplace 如果为 true，忽略当前版本已有内容，直接使用 Tables 作为该版本的全部内容。
	FullReplace bool

	// Tables 要更新或新增的 表名 -> 规则表文本。表名必须是内置 Schema 的名称。
	Tables map[string]string

	// Deletes 要删除的表名。
	Deletes []string
}

// casScript 版本 Hash 未被他人修改时才切换版本，并写历史与通知。
var casScript = redis.NewScript(`
	local versionKey = KEYS[1]
	local historyKey = KEYS[2]
	local streamKey = KEYS[3]

	local version = ARGV[1]
	local oldHash = ARGV[2]
	local newHash = ARGV[3]
	local historyJSON = ARGV[4]
	local streamData = ARGV[5]

	local currentHash = redis.call('HGET', versionKey, version)
	if currentHash == false then
		currentHash = ""
	end

	if currentHash ~= oldHash then
		return redis.error_reply('version_mismatch: ' .. currentHash .. ' != ' .. oldHash)
	end

	redis.call('HSET', versionKey, version, newHash)
	redis.call('RPUSH', historyKey, historyJSON)
	redis.call('XADD', streamKey, 'MAXLEN', '~', '1000', '*', 'data', streamData)

	return "OK"
`)

// Publish 将新版本的规则表推送到 Redis，返回新的 AllHash。
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (string, error) {
	// 1. 获取当前版本的基础 Hash (用于 CAS 和增量更新)
	version := strconv.Itoa(p.version)
	baseHash, err := p.rdb.HGet(ctx, KeyVersions(), version).Result()
	if errors.Is(err, redis.Nil) {
		baseHash = ""
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("get current version failed: %w", err)
	}

	current := make(map[string]string)
	if !req.FullReplace && baseHash != "" {
		existing, err := p.rdb.HGetAll(ctx, KeyTables(baseHash)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("load current version tables failed: %w", err)
		}
		for name, textHash := range existing {
			current[name] = textHash
		}
	}

	// 2. 应用删除
	for _, name := range req.Deletes {
		delete(current, name)
	}

	// 3. 规范化并收集新文本
	texts := make(map[string]string)
	for name, text := range req.Tables {
		canonical, err := CanonicalizeRuleTable(name, text)
		if err != nil {
			return "", err
		}
		textHash := ComputeTextHash(canonical)
		texts[textHash] = canonical
		current[name] = textHash
	}

	// 4. 计算新状态的 AllHash
	allHash := ComputeAllHash(current)

	// 5. 写入文本与表名索引 (幂等，并发写安全)
	pipe := p.rdb.Pipeline()
	for h, text := range texts {
		pipe.HSetNX(ctx, KeyTexts(), h, text)
	}
	for name, textHash := range current {
		pipe.HSet(ctx, KeyTables(allHash), name, textHash)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save tables/texts: %w", err)
	}

	// 6. CAS 更新版本并发送通知
	now := time.Now().Unix()
	histJSON, _ := json.Marshal(HistoryRecord{
		Version:   p.version,
		AllHash:   allHash,
		Timestamp: now,
	})
	msgData, _ := json.Marshal(UpdateMessage{
		Event:     EventPublish,
		Version:   p.version,
		AllHash:   allHash,
		Changed:   changedTables(req),
		Timestamp: now,
	})

	keys := []string{KeyVersions(), KeyHistory(), KeyUpdates()}
	err = casScript.Run(ctx, p.rdb, keys, version, baseHash, allHash, string(histJSON), string(msgData)).Err()
	if err != nil {
		if strings.Contains(err.Error(), "version_mismatch") {
			return "", fmt.Errorf("cas update failed: %w (%s)", ErrVersionMismatch, err.Error())
		}
		return "", fmt.Errorf("cas update failed: %w", err)
	}

	p.logger.Info("publish rule tables success",
		zap.Int("version", p.version),
		zap.String("base_hash", baseHash),
		zap.String("all_hash", allHash),
		zap.Int("tables", len(current)),
	)
	return allHash, nil
}

// changedTables 返回请求中写入与删除的表名（去重、排序）。
func changedTables(req PublishRequest) []string {
	seen := make(map[string]struct{}, len(req.Tables)+len(req.Deletes))
	for name := range req.Tables {
		seen[name] = struct{}{}
	}
	for _, name := range req.Deletes {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanonicalizeRuleTable 按表名对应的 Schema 解析、校验并重新格式化规则表文本。
func CanonicalizeRuleTable(name, text string) (string, error) {
	schema, ok := SchemaByName(name)
	if !ok {
		return "", fmt.Errorf("unknown rule table %q", name)
	}
	canonical := FormatRuleTable(ParseRuleTable(text, schema), schema)
	if err := ValidateRuleTable(ParseRuleTable(canonical, schema)); err != nil {
		return "", fmt.Errorf("validate rule table %q failed: %w", name, err)
	}
	return canonical, nil
}
