package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/LJTian/NewsHub/internal/metrics"
	"github.com/LJTian/NewsHub/internal/processor"
	"github.com/LJTian/NewsHub/internal/storage"
	"gorm.io/datatypes"
)

// Store 是一轮采集需要的全部存储能力
type Store interface {
	ArticleStore
	EnsureCategory(ctx context.Context, name string) (*storage.Category, error)
}

// Recorder 接收采集指标，由 metrics.Collector 实现
type Recorder interface {
	RecordSource(source, category, result string, inserted, skipped, failed int)
	RecordRun(seconds float64, finishedUnix float64, emptyCategories int)
}

const errNoEntries = "no entries found"

// Pipeline 依次采集每个源：抓取 -> 标准化 -> 去重入库。
// 单个源失败只记录并跳过，不影响其他源。
type Pipeline struct {
	Sources    []collector.Source
	Fetcher    collector.FeedFetcher
	Normalizer *processor.Normalizer
	Store      Store
	Gate       *Gate
	// Metrics 可为 nil
	Metrics Recorder
}

func New(sources []collector.Source, fetcher collector.FeedFetcher, normalizer *processor.Normalizer, store Store) *Pipeline {
	if normalizer == nil {
		normalizer = processor.NewNormalizer()
	}
	return &Pipeline{
		Sources:    sources,
		Fetcher:    fetcher,
		Normalizer: normalizer,
		Store:      store,
		Gate:       NewGate(store),
	}
}

// Run 执行一轮完整采集。ctx 取消时停在当前文章，返回已完成部分的报告。
func (p *Pipeline) Run(ctx context.Context) *Report {
	report := NewReport(collector.CategoriesOf(p.Sources))

	for _, src := range p.Sources {
		if ctx.Err() != nil {
			log.Printf("warn: collect cancelled before %s: %v", src.Name, ctx.Err())
			break
		}
		res := p.runSource(ctx, src)
		report.Add(res)
		p.recordSource(res)
		if res.Error != "" {
			log.Printf("warn: skip source %s: %s", src.Name, res.Error)
			continue
		}
		log.Printf("source %s: fetched=%d inserted=%d skipped=%d failed=%d",
			src.Name, res.Fetched, res.Inserted, res.Skipped, res.Failed)
	}

	report.Finish()
	empty := report.EmptyCategories()
	for _, c := range empty {
		log.Printf("warn: category %s got no new articles this run", c)
	}
	if p.Metrics != nil {
		p.Metrics.RecordRun(report.Duration().Seconds(), float64(report.FinishedAt.Unix()), len(empty))
	}
	return report
}

func (p *Pipeline) recordSource(res SourceResult) {
	if p.Metrics == nil {
		return
	}
	result := metrics.SourceOK
	switch {
	case res.Error == errNoEntries:
		result = metrics.SourceEmpty
	case res.Error != "":
		result = metrics.SourceError
	}
	p.Metrics.RecordSource(res.Source, res.Category, result, res.Inserted, res.Skipped, res.Failed)
}

func (p *Pipeline) runSource(ctx context.Context, src collector.Source) (res SourceResult) {
	res = SourceResult{Source: src.Name, Category: src.Category}
	defer func() {
		if r := recover(); r != nil {
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	category, err := p.Store.EnsureCategory(ctx, src.Category)
	if err != nil {
		res.Error = fmt.Sprintf("ensure category %s: %v", src.Category, err)
		return res
	}

	items, err := p.Fetcher.Fetch(ctx, src)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(items) == 0 {
		res.Error = errNoEntries
		return res
	}
	res.Fetched = len(items)

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		pa, ok := p.Normalizer.Normalize(item, src)
		if !ok {
			res.Failed++
			continue
		}

		switch p.Gate.Admit(ctx, toArticle(pa, category)) {
		case OutcomeInserted:
			res.Inserted++
			p.Gate.Breathe(ctx, res.Inserted)
		case OutcomeSkipped:
			res.Skipped++
		default:
			res.Failed++
		}
	}
	return res
}

func toArticle(pa processor.ProcessedArticle, category *storage.Category) *storage.Article {
	a := &storage.Article{
		Title:       pa.Title,
		Link:        pa.Link,
		Image:       pa.Image,
		Description: pa.Description,
		Author:      pa.Author,
		PublishedAt: pa.PublishedAt,
		Source:      pa.Source,
		ExternalID:  pa.ExternalID,
	}
	if len(pa.Extra) > 0 {
		a.ExtraData = datatypes.JSONMap(pa.Extra)
	}
	if category != nil {
		id := category.ID
		a.CategoryID = &id
		a.Category = category
	}
	return a
}
