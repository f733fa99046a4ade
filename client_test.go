package bttdarkmode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func TestStore_Resolve(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetPrefix("teststore:")

	ctx := context.Background()
	if _, err := NewPublisher(rdb, 1).Publish(ctx, PublishRequest{
		FullReplace: true,
		Tables:      map[string]string{InversionFixes.Name: inversionTable},
	}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	s, err := New(rdb, 1, WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 测试用例 1: 命中站点规则，与通用规则合并
	r, err := s.Resolve(InversionFixes.Name, "https://www.example.com/page", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"img", ".logo"}, r.List(CommandInvert)); diff != "" {
		t.Errorf("INVERT mismatch (-want +got):\n%s", diff)
	}

	// 测试用例 2: L1 缓存命中返回同一结果
	r2, _ := s.Resolve(InversionFixes.Name, "https://www.example.com/page", "")
	if r2 != r {
		t.Errorf("Expected cached rule")
	}

	// 测试用例 3: 未命中返回通用规则
	r3, err := s.Resolve(InversionFixes.Name, "https://other.org/", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{UniversalPattern}, r3.URL); diff != "" {
		t.Errorf("URL mismatch (-want +got):\n%s", diff)
	}

	// 测试用例 4: 未知表
	if _, err := s.Resolve(StaticThemes.Name, "https://example.com", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := s.Table(StaticThemes.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	rules, err := s.Table(InversionFixes.Name)
	if err != nil || len(rules) != 2 {
		t.Errorf("Expected 2 rules, got %d (err: %v)", len(rules), err)
	}
}

func TestStore_EmptyVersion(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetPrefix("testempty:")

	// 版本不存在时 New 应该成功
	s, err := New(rdb, 7)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.Snapshot().AllHash != "" {
		t.Errorf("Expected empty snapshot")
	}
	if _, err := s.Table(InversionFixes.Name); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_LoadIncremental(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetPrefix("testload:")

	ctx := context.Background()

	// 1. 发布版本 1
	p := NewPublisher(rdb, 1)
	p.Publish(ctx, PublishRequest{
		FullReplace: true,
		Tables: map[string]string{
			InversionFixes.Name:    inversionTable,
			DynamicThemeFixes.Name: "*\n\nCSS\nbody { color: red }\n",
		},
	})

	s, _ := New(rdb, 1) // 内部已 Load
	ss1 := s.Snapshot()
	kept := ss1.Parsed[InversionFixes.Name]

	// 2. 发布版本 1 的变动 (inversion-fixes 没变)
	p.Publish(ctx, PublishRequest{
		Tables: map[string]string{DynamicThemeFixes.Name: "*\n\nCSS\nbody { color: blue }\n"},
	})

	// 3. 再次加载
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ss2 := s.Snapshot()
	if ss2.AllHash == ss1.AllHash {
		t.Fatal("Hash should have changed")
	}
	// 未变化的表复用旧的解析结果
	if &ss2.Parsed[InversionFixes.Name][0] != &kept[0] {
		t.Errorf("Unchanged table should reuse parsed rules")
	}
	rules, _ := s.Table(DynamicThemeFixes.Name)
	if got := rules[0].Text(CommandCSS); got != "body { color: blue }" {
		t.Errorf("CSS not updated: %q", got)
	}
}

func TestStore_Watch(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetPrefix("testwatch:")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. 初始负载
	p := NewPublisher(rdb, 1)
	p.Publish(ctx, PublishRequest{
		FullReplace: true,
		Tables:      map[string]string{InversionFixes.Name: inversionTable},
	})

	reloaded := make(chan *Snapshot, 4)
	s, _ := New(rdb, 1, WithOnReload(func(ss *Snapshot) { reloaded <- ss }))
	<-reloaded // New 中的首次加载

	// 2. 启动 Watch
	go s.Watch(ctx)

	// 给 Watcher 一点点启动时间
	time.Sleep(100 * time.Millisecond)

	// 3. 发布更新
	newHash, err := p.Publish(ctx, PublishRequest{
		Tables: map[string]string{InversionFixes.Name: "*\n\nINVERT\nvideo\n"},
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// 4. 等待自动重载
	select {
	case ss := <-reloaded:
		if ss.AllHash != newHash {
			t.Errorf("Reloaded hash %s, want %s", ss.AllHash, newHash)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watcher failed to reload in time")
	}

	r, err := s.Resolve(InversionFixes.Name, "https://example.com", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"video"}, r.List(CommandInvert)); diff != "" {
		t.Errorf("INVERT mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ResolvedCacheGC(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetPrefix("testgc:")

	ctx := context.Background()
	p := NewPublisher(rdb, 1)
	p.Publish(ctx, PublishRequest{
		FullReplace: true,
		Tables:      map[string]string{InversionFixes.Name: inversionTable},
	})

	s, _ := New(rdb, 1)
	s.Resolve(InversionFixes.Name, "https://example.com", "")

	found := false
	s.resolved.Range(func(_, _ any) bool {
		found = true
		return false
	})
	if !found {
		t.Fatal("Rule should be in L1 cache")
	}

	// 发布新内容并加载，旧快照的缓存项被清理
	p.Publish(ctx, PublishRequest{
		FullReplace: true,
		Tables:      map[string]string{InversionFixes.Name: "*\n\nINVERT\nsvg\n"},
	})
	s.Load(ctx)

	s.resolved.Range(func(_, _ any) bool {
		t.Errorf("L1 cache should be empty after reload")
		return false
	})
}
