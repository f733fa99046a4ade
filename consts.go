package bttdarkmode

// prefix 目前使用的 Redis Key 前缀
var prefix = "btt-darkmode:"

// SetPrefix 设置全局 Redis Key 前缀。
// 这应该在任何其他操作之前调用。
func SetPrefix(p string) {
	prefix = p
	if len(prefix) > 0 && prefix[len(prefix)-1] != ':' {
		prefix += ":"
	}
}

// Suffix defs
const (
	SuffixTables   = "tables:"  // 表名索引
	SuffixTexts    = "texts"    // 规则表文本
	SuffixVersions = "versions" // 版本映射
	SuffixHistory  = "history"  // 版本历史
	SuffixUpdates  = "updates"  // 更新通知
)

// KeyTables 返回表名索引的 Redis Key。
// hash: 该组规则表的 AllHash。该 Hash 存储 表名 -> TextHash。
func KeyTables(hash string) string {
	return prefix + SuffixTables + hash
}

// KeyTexts 返回规则表文本存储的 Redis Key。
// 该 Hash 存储 TextHash -> 规范化文本。
func KeyTexts() string {
	return prefix + SuffixTexts
}

// KeyVersions 返回版本映射的 Redis Key。
// 该 Hash 存储 AppVersion -> AllHash。
func KeyVersions() string {
	return prefix + SuffixVersions
}

// KeyHistory 返回版本历史记录的 Redis Key。
// 该 List 存储 HistoryRecord JSON 字符串 (RPush)。
func KeyHistory() string {
	return prefix + SuffixHistory
}

// KeyUpdates 返回更新通知的 Redis Stream Key。
func KeyUpdates() string {
	return prefix + SuffixUpdates
}

// EventPublish 发布事件，目前唯一的 Stream 事件类型。
const EventPublish = "publish"

// UpdateMessage Redis Stream 消息载荷
type UpdateMessage struct {
	Event     string   `json:"event"`             // 事件类型
	Version   int      `json:"version"`           // 版本号
	AllHash   string   `json:"all_hash"`         // 全局 Hash
	Changed   []string `json:"changed,omitempty"` // 本次写入或删除的表名，已排序
	Timestamp int64    `json:"timestamp"`         // 时间戳
}
