package utils

import "strings"

// Label 标记一个推荐结果从哪里来、经过了什么处理，可透传到 API 输出用于解释。
// Value 与 Source 的语义由调用方约定，例如 {Value: "content", Source: "recall"}。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank ...
}

// MergeLabel 合并同名 Label，保留历史：
// - Value: 以 '|' 累积，重复值不再追加
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	if !containsPart(existing.Value, incoming.Value, "|") {
		merged.Value = existing.Value + "|" + incoming.Value
	}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "", containsPart(existing.Source, incoming.Source, ","):
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

func containsPart(joined, part, sep string) bool {
	for _, p := range strings.Split(joined, sep) {
		if p == part {
			return true
		}
	}
	return false
}
