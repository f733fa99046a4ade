package bttdarkmode

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Option 配置 Store / Publisher。
type Option func(*options)

type options struct {
	logger   *zap.Logger
	onReload func(*Snapshot)
}

// WithLogger 指定日志记录器，默认使用 zap.L()。
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOnReload 每次成功加载新快照后回调。
func WithOnReload(fn func(*Snapshot)) Option {
	return func(o *options) {
		o.onReload = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.L()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store 是 Redis 中规则表的只读视图，主要入口点。
type Store struct {
	rdb      redis.UniversalClient
	version  int
	logger   *zap.Logger
	onReload func(*Snapshot)
	snapshot atomic.Value // 存储 *Snapshot
	mu       sync.Mutex   // 串行化 Load
	// 合并结果缓存 (L1)
	// Key: 表名 + url + frameURL, Value: CacheEntry
	resolved sync.Map
}

// New 创建一个新的 Store 实例并立即加载。
// client: Redis 客户端实例（外部传入，DI）。
// version: 规则表版本号。
func New(client redis.UniversalClient, version int, opts ...Option) (*Store, error) {
	o := buildOptions(opts)
	s := &Store{
		rdb:      client,
		version:  version,
		logger:   o.logger,
		onReload: o.onReload,
	}

	// 初始化空快照
	s.snapshot.Store(&Snapshot{
		Version: version,
		Tables:  make(map[string]string),
		Texts:   make(map[string]string),
		Parsed:  make(map[string][]SiteRule),
	})

	if err := s.Load(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot 返回当前快照，调用方不得修改。
func (s *Store) Snapshot() *Snapshot {
	return s.snapshot.Load().(*Snapshot)
}

// Table 返回指定表解析后的规则。
func (s *Store) Table(name string) ([]SiteRule, error) {
	rules, ok := s.Snapshot().Parsed[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	return rules, nil
}

// Resolve 在指定表中为 url（frameURL 非空时用它）解析合并后的规则。
// 返回值被缓存共享，调用方不得修改。
func (s *Store) Resolve(name, url, frameURL string) (*SiteRule, error) {
	// 1. 获取当前快照
	ss := s.Snapshot()

	// 2. L1 缓存检查
	key := name + "\x00" + url + "\x00" + frameURL
	if v, ok := s.resolved.Load(key); ok {
		if entry := v.(CacheEntry); entry.SnapshotHash == ss.AllHash {
			return entry.Rule, nil
		}
	}

	// 3. 匹配规则
	rules, ok := ss.Parsed[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	schema, _ := SchemaByName(name)
	rule := Resolve(schema, rules, url, frameURL)
	if rule == nil {
		return nil, fmt.Errorf("table %q: %w", name, &MalformedRuleTableError{Reason: "no common rule"})
	}

	// 4. 更新 L1 缓存
	s.resolved.Store(key, CacheEntry{Rule: rule, SnapshotHash: ss.AllHash})
	return rule, nil
}
