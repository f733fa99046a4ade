package bttdarkmode

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	blockSeparator = regexp.MustCompile(`(?m)^\s*={2,}\s*$`)
	commandLine    = regexp.MustCompile(`^\s*[A-Z]+(\s[A-Z]+)*\s*$`)
)

// ruleSeparator 格式化输出时规则之间的分隔行。
var ruleSeparator = strings.Repeat("=", 32)

// ParseRuleTable 解析规则表文本。
// 文本按 "==" 分隔行切分为块；块内全大写的行是命令，第一个命令之前是 URL 模板（每行一个）。
// schema 不接受的命令被忽略；只有模板没有命令的块是一条无字段的规则，空块被跳过。
func ParseRuleTable(text string, schema Schema) []SiteRule {
	text = strings.ReplaceAll(text, "\r", "")
	var rules []SiteRule

	for _, block := range blockSeparator.Split(text, -1) {
		lines := strings.Split(block, "\n")

		var commands []int
		for i, ln := range lines {
			if commandLine.MatchString(ln) {
				commands = append(commands, i)
			}
		}
		head := len(lines)
		if len(commands) > 0 {
			head = commands[0]
		}
		rule := SiteRule{URL: parseArray(lines[:head])}
		if len(commands) == 0 && len(rule.URL) == 0 {
			continue
		}
		for i, at := range commands {
			end := len(lines)
			if i < len(commands)-1 {
				end = commands[i+1]
			}
			cmd, ok := LookupCommand(strings.TrimSpace(lines[at]))
			if !ok || !schema.accepts(cmd) {
				continue
			}
			value := lines[at+1 : end]
			switch cmd.Kind() {
			case ValueText:
				rule.SetText(cmd, strings.TrimSpace(strings.Join(value, "\n")))
			case ValueFlag:
				rule.SetFlag(cmd, true)
			case ValueList:
				rule.SetList(cmd, parseArray(value))
			}
		}
		rules = append(rules, rule)
	}
	return rules
}

func parseArray(lines []string) []string {
	var out []string
	for _, ln := range lines {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// FormatRuleTable 把规则格式化为文本。
// 规则按第一个 URL 模板做本地化排序，第一个通用规则固定在首位，
// 每个字段按 schema 声明的顺序输出，空字段跳过；输出以空行结尾。
func FormatRuleTable(rules []SiteRule, schema Schema) string {
	common := -1
	for i := range rules {
		if isCommonRule(&rules[i]) {
			common = i
			break
		}
	}
	sorted := make([]SiteRule, 0, len(rules))
	if common >= 0 {
		sorted = append(sorted, rules[common])
	}
	for i := range rules {
		if i != common {
			sorted = append(sorted, rules[i])
		}
	}

	rest := sorted
	if common >= 0 {
		rest = sorted[1:]
	}
	col := collate.New(language.English)
	sort.SliceStable(rest, func(i, j int) bool {
		return col.CompareString(firstPattern(&rest[i]), firstPattern(&rest[j])) < 0
	})

	var lines []string
	for i := range sorted {
		rule := &sorted[i]
		lines = append(lines, rule.URL...)
		for _, cmd := range schema.Commands {
			value, ok := formatValue(rule, cmd)
			if !ok {
				continue
			}
			lines = append(lines, "", cmd.String())
			if value != "" {
				lines = append(lines, value)
			}
		}
		if i < len(sorted)-1 {
			lines = append(lines, "", ruleSeparator, "")
		}
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func formatValue(rule *SiteRule, cmd Command) (string, bool) {
	switch cmd.Kind() {
	case ValueText:
		v := strings.TrimSpace(rule.Text(cmd))
		return v, v != ""
	case ValueFlag:
		return "", rule.Flag(cmd)
	}
	list := rule.List(cmd)
	return strings.Join(list, "\n"), len(list) > 0
}

func firstPattern(r *SiteRule) string {
	if len(r.URL) == 0 {
		return ""
	}
	return r.URL[0]
}
