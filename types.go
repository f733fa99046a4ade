package bttdarkmode

// SiteRule 规则表中的一条站点规则。
// URL 第一项约定为最通用的模板，其长度即该规则的特异度。
type SiteRule struct {
	URL   []string
	Lists map[Command][]string // 选择器等列表字段
	Texts map[Command]string   // CSS 等整段文本字段
	Flags map[Command]bool     // NO COMMON 等无参数字段
}

// List 返回列表字段。
func (r *SiteRule) List(c Command) []string {
	return r.Lists[c]
}

// Text 返回文本字段。
func (r *SiteRule) Text(c Command) string {
	return r.Texts[c]
}

// Flag 返回标志字段。
func (r *SiteRule) Flag(c Command) bool {
	return r.Flags[c]
}

// SetList 设置列表字段，空列表删除该字段。
func (r *SiteRule) SetList(c Command, v []string) {
	if len(v) == 0 {
		delete(r.Lists, c)
		return
	}
	if r.Lists == nil {
		r.Lists = make(map[Command][]string)
	}
	r.Lists[c] = v
}

// SetText 设置文本字段，空文本删除该字段。
func (r *SiteRule) SetText(c Command, v string) {
	if v == "" {
		delete(r.Texts, c)
		return
	}
	if r.Texts == nil {
		r.Texts = make(map[Command]string)
	}
	r.Texts[c] = v
}

// SetFlag 设置标志字段，false 删除该字段。
func (r *SiteRule) SetFlag(c Command, v bool) {
	if !v {
		delete(r.Flags, c)
		return
	}
	if r.Flags == nil {
		r.Flags = make(map[Command]bool)
	}
	r.Flags[c] = true
}

// Clone 深拷贝。
func (r *SiteRule) Clone() SiteRule {
	out := SiteRule{URL: append([]string(nil), r.URL...)}
	for c, v := range r.Lists {
		out.SetList(c, append([]string(nil), v...))
	}
	for c, v := range r.Texts {
		out.SetText(c, v)
	}
	for c, v := range r.Flags {
		out.SetFlag(c, v)
	}
	return out
}

// HistoryRecord 版本历史记录
type HistoryRecord struct {
	Version   int    `json:"version"`
	AllHash   string `json:"all_hash"`
	Timestamp int64  `json:"timestamp"`
}

// Snapshot 代表特定版本的规则表快照。
type Snapshot struct {
	Version int                   // 版本号 (int)
	AllHash string                // 快照内容的全局 Hash (用于缓存失效)
	Tables  map[string]string     // 表名 -> TextHash
	Texts   map[string]string     // TextHash -> 规范化后的规则表文本
	Parsed  map[string][]SiteRule // 表名 -> 解析后的规则
}

// CacheEntry 是 Store 中按 URL 缓存的合并结果。
type CacheEntry struct {
	Rule         *SiteRule
	SnapshotHash string
}

// GetText 获取规则表文本（根据 Hash）。
func (s *Snapshot) GetText(textHash string) (string, bool) {
	val, ok := s.Texts[textHash]
	return val, ok
}
