package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LJTian/NewsHub/internal/ingest"
	"github.com/robfig/cron/v3"
)

// Runner 执行一轮采集，由 ingest.Pipeline 实现
type Runner interface {
	Run(ctx context.Context) *ingest.Report
}

type Scheduler struct {
	cron   *cron.Cron
	runner Runner

	// StartupDelay 启动后首轮采集的延迟，<0 表示不做首轮
	StartupDelay time.Duration

	running atomic.Bool
	last    atomic.Pointer[ingest.Report]

	// 后台采集共用的 context，Stop 超时后取消
	bgCtx    context.Context
	bgCancel context.CancelFunc

	mu       sync.Mutex
	stopped  bool
	startup  *time.Timer
	inFlight sync.WaitGroup
}

func New(spec string, runner Runner) (*Scheduler, error) {
	c := cron.New()

	s := &Scheduler{
		cron:         c,
		runner:       runner,
		StartupDelay: 15 * time.Second,
	}
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())

	_, err := c.AddFunc(spec, func() { s.Trigger() })
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if s.StartupDelay < 0 {
		return
	}
	// 延迟执行首轮采集，避免与用户首次打开页面的请求争抢资源
	s.mu.Lock()
	s.startup = time.AfterFunc(s.StartupDelay, func() { s.Trigger() })
	s.mu.Unlock()
}

// Stop 停止定时任务并拒绝新的 Trigger，然后等待后台正在跑的一轮结束。
// ctx 到期时取消这一轮（流水线在当前源处理完后退出），等它返回后回 ctx.Err()。
// 返回后即可安全关闭存储。
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	if s.startup != nil {
		s.startup.Stop()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.bgCancel()
		return nil
	case <-ctx.Done():
		log.Printf("warn: collect job still running at shutdown, cancelling: %v", ctx.Err())
		s.bgCancel()
		<-done
		return ctx.Err()
	}
}

// RunOnce 同步执行一轮采集并返回报告，供命令行和测试使用
func (s *Scheduler) RunOnce(ctx context.Context) *ingest.Report {
	log.Println("start collect job...")
	report := s.runner.Run(ctx)
	s.last.Store(report)
	log.Printf("collect job done: %d new articles in %s", report.Total(), report.Duration().Round(time.Millisecond))
	return report
}

// Trigger 在后台发起一轮采集后立即返回；已有一轮在跑或已 Stop 时直接忽略。
// 后台采集与请求无关，只有 Stop 超时才会被取消。
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		log.Println("collect job already running, skip trigger")
		return false
	}
	s.inFlight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inFlight.Done()
		defer s.running.Store(false)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("warn: collect job panic: %v", r)
			}
		}()
		s.RunOnce(s.bgCtx)
	}()
	return true
}

// Running 是否有一轮采集正在进行
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastReport 最近一轮完成的采集报告，尚未跑过时为 nil
func (s *Scheduler) LastReport() *ingest.Report {
	return s.last.Load()
}
