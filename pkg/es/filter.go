package es

import "fmt"

// Filter 是若干 term 条件的合取。零值表示不过滤。
type Filter struct {
	terms []term
}

type term struct {
	field string
	value interface{}
}

// Eq 构造一个字段等值条件。
func Eq(field string, value interface{}) Filter {
	return Filter{terms: []term{{field: field, value: value}}}
}

// And 返回两个过滤条件同时成立的组合。
func (f Filter) And(other Filter) Filter {
	terms := make([]term, 0, len(f.terms)+len(other.terms))
	terms = append(terms, f.terms...)
	terms = append(terms, other.terms...)
	return Filter{terms: terms}
}

// IsEmpty 表示过滤条件中没有任何 term。
func (f Filter) IsEmpty() bool {
	return len(f.terms) == 0
}

// Source 渲染为 bool.filter 查询。
func (f Filter) Source() map[string]interface{} {
	if f.IsEmpty() {
		return map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	clauses := make([]map[string]interface{}, 0, len(f.terms))
	for _, t := range f.terms {
		clauses = append(clauses, map[string]interface{}{
			"term": map[string]interface{}{t.field: t.value},
		})
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": clauses},
	}
}

// Matches 判断一条 _source 是否满足所有 term 条件。
func (f Filter) Matches(source map[string]interface{}) bool {
	for _, t := range f.terms {
		v, ok := source[t.field]
		if !ok || fmt.Sprint(v) != fmt.Sprint(t.value) {
			return false
		}
	}
	return true
}
