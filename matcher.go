package bttdarkmode

import (
	"fmt"
	"strings"
)

// UniversalPattern 通用规则唯一的 URL 模板。
const UniversalPattern = "*"

// Resolve 为给定 URL 选出最具体的规则并与通用规则合并。
// frameURL 非空时用它代替 url 进行匹配。
// 规则表为空或首条规则不是通用规则时返回 nil。
// 特异度为命中规则第一个 URL 模板的长度；同分时表中靠前者优先。
// 没有命中时返回通用规则的副本。
func Resolve(schema Schema, table []SiteRule, url, frameURL string) *SiteRule {
	if len(table) == 0 || !isCommonRule(&table[0]) {
		return nil
	}
	target := url
	if frameURL != "" {
		target = frameURL
	}

	best, bestScore := -1, 0
	for i := 1; i < len(table); i++ {
		if score := specificity(&table[i], target); score > bestScore {
			best, bestScore = i, score
		}
	}

	common := &table[0]
	if best < 0 {
		out := common.Clone()
		return &out
	}
	return mergeRules(schema, common, &table[best])
}

// specificity 命中时返回第一个模板的长度，否则为 0。
func specificity(rule *SiteRule, target string) int {
	if len(rule.URL) == 0 || !MatchesAny(target, rule.URL) {
		return 0
	}
	return len(rule.URL[0])
}

func isCommonRule(rule *SiteRule) bool {
	return len(rule.URL) == 1 && rule.URL[0] == UniversalPattern
}

// mergeRules 把命中规则合并到通用规则上，URL 取命中规则的。
func mergeRules(schema Schema, common, found *SiteRule) *SiteRule {
	if schema.HonorNoCommon && found.Flag(CommandNoCommon) {
		out := found.Clone()
		return &out
	}

	out := SiteRule{URL: append([]string(nil), found.URL...)}
	for _, cmd := range schema.Commands {
		replace := schema.mergeMode(cmd) == MergeReplace
		switch cmd.Kind() {
		case ValueList:
			if replace {
				out.SetList(cmd, append([]string(nil), found.List(cmd)...))
				continue
			}
			merged := make([]string, 0, len(common.List(cmd))+len(found.List(cmd)))
			merged = append(merged, common.List(cmd)...)
			merged = append(merged, found.List(cmd)...)
			out.SetList(cmd, merged)
		case ValueText:
			if replace {
				out.SetText(cmd, found.Text(cmd))
				continue
			}
			var parts []string
			for _, s := range []string{common.Text(cmd), found.Text(cmd)} {
				if s != "" {
					parts = append(parts, s)
				}
			}
			out.SetText(cmd, strings.Join(parts, "\n"))
		case ValueFlag:
			out.SetFlag(cmd, found.Flag(cmd))
		}
	}
	return &out
}

// ValidateRuleTable 严格校验规则表结构：非空、首条为通用规则、其余规则都有 URL 模板。
func ValidateRuleTable(table []SiteRule) error {
	if len(table) == 0 {
		return &MalformedRuleTableError{Reason: "empty table"}
	}
	if !isCommonRule(&table[0]) {
		return &MalformedRuleTableError{
			Reason: fmt.Sprintf("first rule must have the sole pattern %q, got %q", UniversalPattern, table[0].URL),
		}
	}
	for i := 1; i < len(table); i++ {
		if len(table[i].URL) == 0 {
			return &MalformedRuleTableError{Reason: fmt.Sprintf("rule %d has no url patterns", i)}
		}
	}
	return nil
}
