// Package tfidf 提供商品名称的 TF-IDF 向量空间表示与余弦相似度。
//
// 行为与 scikit-learn 的 TfidfVectorizer(stop_words='english') 默认参数对齐：
//   - 预处理：转小写
//   - 分词：连续的单词字符（字母/数字/下划线）且长度 >= 2
//   - 去停用词：英文停用词表
//   - TF：原始词频
//   - IDF：平滑 idf = ln((1+n)/(1+df)) + 1
//   - 归一化：每行 L2 归一化
//
// 查询向量使用拟合时的词表，词表外的词权重为 0。
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}\p{Mn}_]+`)

// Tokenize 把文本切分为规范化后的词，已去除停用词和单字符词。
func Tokenize(text string) []string {
	raw := tokenRegex.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len([]rune(tok)) < 2 {
			continue
		}
		if englishStopWords.has(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Vector 是稀疏向量：词表下标 -> 权重。
type Vector map[int]float64

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Cosine 计算两个稀疏向量的余弦相似度；任一为零向量时返回 0。
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for k, x := range a {
		dot += x * b[k]
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}

// Model 是在一组文档上拟合出的 TF-IDF 模型。
// 拟合后只读，可被多个 goroutine 并发查询。
type Model struct {
	vocab map[string]int
	idf   []float64
	rows  []Vector
}

// Fit 在 docs 上拟合词表与 idf，并计算每篇文档的归一化向量。
func Fit(docs []string) *Model {
	tokenized := make([][]string, len(docs))
	terms := make(map[string]struct{})
	for i, doc := range docs {
		tokenized[i] = Tokenize(doc)
		for _, tok := range tokenized[i] {
			terms[tok] = struct{}{}
		}
	}

	// 词表按字典序编号，与 sklearn 的 vocabulary_ 一致
	sorted := make([]string, 0, len(terms))
	for t := range terms {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	vocab := make(map[string]int, len(sorted))
	for i, t := range sorted {
		vocab[t] = i
	}

	df := make([]int, len(sorted))
	for _, toks := range tokenized {
		seen := make(map[int]struct{}, len(toks))
		for _, tok := range toks {
			idx := vocab[tok]
			if _, ok := seen[idx]; ok {
				continue
			}
			seen[idx] = struct{}{}
			df[idx]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(sorted))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	m := &Model{vocab: vocab, idf: idf, rows: make([]Vector, len(docs))}
	for i, toks := range tokenized {
		m.rows[i] = m.weigh(toks)
	}
	return m
}

// Len 返回拟合时的文档数。
func (m *Model) Len() int {
	return len(m.rows)
}

// VocabularySize 返回词表大小。
func (m *Model) VocabularySize() int {
	return len(m.vocab)
}

// Row 返回第 i 篇文档的归一化向量。
func (m *Model) Row(i int) Vector {
	return m.rows[i]
}

// Transform 把任意文本映射到模型的向量空间（L2 归一化）。
func (m *Model) Transform(text string) Vector {
	return m.weigh(Tokenize(text))
}

// Similarities 返回 query 与每篇文档的余弦相似度，顺序与拟合文档一致。
func (m *Model) Similarities(query string) []float64 {
	q := m.Transform(query)
	out := make([]float64, len(m.rows))
	if len(q) == 0 {
		return out
	}
	for i, row := range m.rows {
		out[i] = Cosine(q, row)
	}
	return out
}

func (m *Model) weigh(tokens []string) Vector {
	v := make(Vector)
	for _, tok := range tokens {
		idx, ok := m.vocab[tok]
		if !ok {
			continue
		}
		v[idx]++
	}
	for idx, tf := range v {
		v[idx] = tf * m.idf[idx]
	}
	norm := v.Norm()
	if norm == 0 {
		return v
	}
	for idx := range v {
		v[idx] /= norm
	}
	return v
}
