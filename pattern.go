package bttdarkmode

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Pattern 编译后的 URL 模板。
// 模板语法:
//   - 开头的 ^ 要求从协议+主机处精确匹配（不隐含子域名通配）
//   - 结尾的 $ 要求路径精确结束（仅允许可选的结尾斜杠和查询串）
//   - 协议与 :// 分隔符总是可选
//   - 主机中等于 * 的段匹配一个或多个非 . 非 / 字符
//
// IPv6 字面量模板（[...] 可带 :port）不编译为正则，按方括号主机精确比较。
type Pattern struct {
	template string
	ipv6     bool
	host     string
	re       *regexp.Regexp
}

var (
	schemePrefix  = regexp.MustCompile(`^.*?/{2,3}`)
	querySuffix   = regexp.MustCompile(`\?.*$`)
	ipv6HostMatch = regexp.MustCompile(`\[.*?\](:\d+)?`)
)

// CompilePattern 编译 URL 模板。
func CompilePattern(template string) (*Pattern, error) {
	if isIPv6(template) {
		host := ipv6HostMatch.FindString(template)
		if host == "" {
			return nil, fmt.Errorf("compile pattern %q: malformed ipv6 host", template)
		}
		return &Pattern{template: template, ipv6: true, host: host}, nil
	}

	expr := urlTemplateExpr(template)
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", template, err)
	}
	return &Pattern{template: template, re: re}, nil
}

func urlTemplateExpr(template string) string {
	t := strings.TrimSpace(template)
	exactBeginning := strings.HasPrefix(t, "^")
	exactEnding := strings.HasSuffix(t, "$")

	t = strings.TrimPrefix(t, "^")
	t = strings.TrimSuffix(t, "$")
	t = schemePrefix.ReplaceAllString(t, "")
	t = querySuffix.ReplaceAllString(t, "")
	t = strings.TrimSuffix(t, "/")

	var host, path string
	if i := strings.Index(t, "/"); i >= 0 {
		host = t[:i]
		path = strings.ReplaceAll(t[i:], "$", "")
	} else {
		host = strings.ReplaceAll(t, "$", "")
	}

	var b strings.Builder
	b.WriteString("(?i)")
	if exactBeginning {
		b.WriteString(`^(.*?:/{2,3})?`)
	} else {
		b.WriteString(`^(.*?:/{2,3})?([^/]*?\.)?`)
	}

	parts := strings.Split(host, ".")
	for i, p := range parts {
		if p == "*" {
			parts[i] = `[^./]+?`
		} else {
			parts[i] = regexp.QuoteMeta(p)
		}
	}
	b.WriteString("(")
	b.WriteString(strings.Join(parts, `\.`))
	b.WriteString(")")

	if path != "" {
		b.WriteString("(")
		b.WriteString(regexp.QuoteMeta(path))
		b.WriteString(")")
	}

	if exactEnding {
		b.WriteString(`(/?(\?[^/]*?)?)$`)
	} else {
		b.WriteString(`(/?.*?)$`)
	}
	return b.String()
}

// Template 返回原始模板。
func (p *Pattern) Template() string {
	return p.template
}

// Match 判断 url 是否匹配该模板。IPv6 形态不一致的一方永不匹配。
func (p *Pattern) Match(u string) bool {
	urlIsIPv6 := isIPv6(u)
	if p.ipv6 != urlIsIPv6 {
		return false
	}
	if p.ipv6 {
		return ipv6HostMatch.FindString(u) == p.host
	}
	return p.re.MatchString(u)
}

// isIPv6 判断 [ 是否出现在任何 ? 之前。
func isIPv6(u string) bool {
	open := strings.Index(u, "[")
	if open < 0 {
		return false
	}
	if q := strings.Index(u, "?"); q >= 0 && open > q {
		return false
	}
	return true
}

// PatternList 一组预编译模板。
type PatternList []*Pattern

// CompilePatterns 编译全部模板，遇到第一个错误即返回。
func CompilePatterns(templates []string) (PatternList, error) {
	list := make(PatternList, 0, len(templates))
	for _, t := range templates {
		p, err := CompilePattern(t)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// MatchAny 任一模板匹配即为 true。
func (l PatternList) MatchAny(u string) bool {
	for _, p := range l {
		if p.Match(u) {
			return true
		}
	}
	return false
}

// MatchesAny 判断 url 是否匹配 templates 中任意一个。无法编译的模板视为不匹配。
func MatchesAny(u string, templates []string) bool {
	for _, t := range templates {
		p, err := CompilePattern(t)
		if err != nil {
			continue
		}
		if p.Match(u) {
			return true
		}
	}
	return false
}

// CleanPatterns 过滤用户输入的模板：去掉空白、含内部空白或无法编译的项，
// 每个被跳过的模板记录一条警告。
func CleanPatterns(templates []string, logger *zap.Logger) []string {
	if logger == nil {
		logger = zap.L()
	}
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" || strings.ContainsAny(trimmed, " \t\n") {
			logger.Warn("skip malformed url pattern", zap.String("pattern", t))
			continue
		}
		if _, err := CompilePattern(trimmed); err != nil {
			logger.Warn("skip malformed url pattern", zap.String("pattern", t), zap.Error(err))
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// HostOrProtocol 返回 URL 的主机（含端口）；file: 返回路径；
// 其他没有主机的页面（about:, data: 等）返回带冒号的协议。
func HostOrProtocol(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	switch {
	case u.Host != "":
		return u.Host
	case u.Scheme == "file":
		return u.Path
	case u.Scheme != "":
		return u.Scheme + ":"
	}
	return raw
}
