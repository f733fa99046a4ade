package bttdarkmode

import "sync"

// Cache 颜色重映射的两级缓存，由调用方持有（通常每个主题会话一个）。
//   - hsl: 颜色字符串 -> HSLA（锚点颜色反复解析）
//   - transforms: 变换函数 -> (源颜色+配置 Key -> 输出颜色)
//
// 没有淘汰策略。配置中影响颜色的字段变化后调用 Clear，或直接换一个新的 Cache。
// 并发安全。
type Cache struct {
	mu         sync.RWMutex
	hsl        map[string]HSLA
	transforms map[transform]map[string]string
}

// NewCache 创建一个空缓存。
func NewCache() *Cache {
	return &Cache{
		hsl:        make(map[string]HSLA),
		transforms: make(map[transform]map[string]string),
	}
}

// ParseToHSL 解析颜色并缓存其 HSLA。
func (c *Cache) ParseToHSL(color string) (HSLA, error) {
	c.mu.RLock()
	v, ok := c.hsl[color]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	rgb, err := ParseColor(color)
	if err != nil {
		return HSLA{}, err
	}
	v = RGBToHSL(rgb)

	c.mu.Lock()
	c.hsl[color] = v
	c.mu.Unlock()
	return v, nil
}

func (c *Cache) lookup(t transform, id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.transforms[t][id]
	return v, ok
}

func (c *Cache) store(t transform, id, color string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fnCache, ok := c.transforms[t]
	if !ok {
		fnCache = make(map[string]string)
		c.transforms[t] = fnCache
	}
	fnCache[id] = color
}

// Clear 清空两级缓存。
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hsl = make(map[string]HSLA)
	c.transforms = make(map[transform]map[string]string)
}

// Len 返回变换缓存中的条目总数。
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.transforms {
		n += len(m)
	}
	return n
}
