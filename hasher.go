package bttdarkmode

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// CalculateHash8 返回 SHA256 Hex 字符串的前 8 位 (用于 AllHash)。
func CalculateHash8(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:8]
}

// CalculateHash16 返回 SHA256 Hex 字符串的前 16 位 (用于 TextHash)。
func CalculateHash16(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// ComputeTextHash 规范化文本的 TextHash。
func ComputeTextHash(text string) string {
	return CalculateHash16([]byte(text))
}

// ComputeAllHash 计算一组规则表的全局 Hash。
// 按表名排序后对 "表名=TextHash" 逐行做 Hash，与 map 遍历顺序无关。
func ComputeAllHash(tables map[string]string) string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write([]byte(tables[name]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:8]
}
