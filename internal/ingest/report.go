package ingest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// SourceResult 单个源在一轮采集中的统计
type SourceResult struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	// Error 非空表示整个源被跳过（抓取/解析失败或没有条目）
	Error string `json:"error,omitempty"`
}

// Report 汇总一轮采集的结果
type Report struct {
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Sources    []SourceResult `json:"sources"`

	categories []string
	byCategory map[string]int
}

// NewReport categories 为本轮应覆盖的分类，用于找出没有新文章的分类
func NewReport(categories []string) *Report {
	r := &Report{
		StartedAt:  time.Now(),
		categories: append([]string(nil), categories...),
		byCategory: make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		r.byCategory[c] = 0
	}
	return r
}

func (r *Report) Add(res SourceResult) {
	r.Sources = append(r.Sources, res)
	if _, ok := r.byCategory[res.Category]; !ok {
		r.categories = append(r.categories, res.Category)
	}
	r.byCategory[res.Category] += res.Inserted
}

func (r *Report) Finish() {
	r.FinishedAt = time.Now()
}

func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Total 本轮新插入的文章数
func (r *Report) Total() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Inserted
	}
	return n
}

// CategoryCounts 各分类本轮新插入的文章数
func (r *Report) CategoryCounts() map[string]int {
	out := make(map[string]int, len(r.byCategory))
	for k, v := range r.byCategory {
		out[k] = v
	}
	return out
}

// EmptyCategories 本轮没有插入任何文章的分类（按名称排序），通常意味着需要检查对应的源或重跑
func (r *Report) EmptyCategories() []string {
	var out []string
	for _, c := range r.categories {
		if r.byCategory[c] == 0 {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// SkippedSources 整个被跳过的源
func (r *Report) SkippedSources() []SourceResult {
	var out []SourceResult
	for _, s := range r.Sources {
		if s.Error != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "collected %d new articles from %d sources in %s\n",
		r.Total(), len(r.Sources), r.Duration().Round(time.Millisecond))

	cats := append([]string(nil), r.categories...)
	sort.Strings(cats)
	for _, c := range cats {
		fmt.Fprintf(&b, "  %s %d\n", runewidth.FillRight(c, 12), r.byCategory[c])
	}
	for _, s := range r.SkippedSources() {
		fmt.Fprintf(&b, "  skipped %s: %s\n", s.Source, s.Error)
	}
	if empty := r.EmptyCategories(); len(empty) > 0 {
		fmt.Fprintf(&b, "  categories with no articles: %s (check the sources or run again)\n", strings.Join(empty, ", "))
	}
	return b.String()
}
