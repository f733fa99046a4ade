package bttdarkmode

import "sync"

// Session 一次主题渲染会话：持有当前 FilterConfig 与专属 Cache。
// 不同配置的会话互不影响。
type Session struct {
	mu    sync.RWMutex
	cfg   FilterConfig
	cache *Cache
}

// NewSession 校验配置并创建会话。
func NewSession(cfg FilterConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{cfg: cfg, cache: NewCache()}, nil
}

// Config 返回当前配置。
func (s *Session) Config() FilterConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// SetConfig 替换配置；影响颜色的字段有变化时清空缓存。
// 返回是否发生了清空。
func (s *Session) SetConfig(cfg FilterConfig) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.cfg.cacheKey() != cfg.cacheKey()
	s.cfg = cfg
	if changed {
		s.cache.Clear()
	}
	return changed, nil
}

// Color 按当前配置重映射一个颜色字面量。
func (s *Session) Color(role Role, text string) (string, error) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()
	return ThemeColor(s.cache, role, text, cfg)
}

// Cache 返回会话的缓存（用于诊断）。
func (s *Session) Cache() *Cache {
	return s.cache
}
