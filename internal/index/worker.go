package index

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kortex-labs/memory-enforce/internal/logger"
)

var log = logger.ForComponent("indexer")

type WorkerConfig struct {
	WorkerCount     int
	MaxQueueSize    int
	RateLimit       int
	MaxFileSize     int64
	ExcludePatterns []string
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		WorkerCount:  2,
		MaxQueueSize: 1000,
		RateLimit:    100,
		MaxFileSize:  10 * 1024 * 1024,
		ExcludePatterns: []string{
			"**/node_modules/**",
			"**/.git/**",
			"**/vendor/**",
			"**/__pycache__/**",
			"**/target/**",
			"**/build/**",
			"**/dist/**",
		},
	}
}

type WorkerStats struct {
	Indexed     int64
	Failed      int64
	Skipped     int64
	InQueue     int64
	IsRunning   bool
	StartedAt   time.Time
	LastIndexed time.Time
}

// Worker drains three priority queues with a shared rate limit.
// Watcher events land on the high queue, bulk walks on normal or low.
type Worker struct {
	store  *Store
	config WorkerConfig

	highQueue   chan Job
	normalQueue chan Job
	lowQueue    chan Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rateLimiter *time.Ticker

	stats   WorkerStats
	statsMu sync.RWMutex
}

func NewWorker(store *Store, config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		store:       store,
		config:      config,
		highQueue:   make(chan Job, 100),
		normalQueue: make(chan Job, config.MaxQueueSize),
		lowQueue:    make(chan Job, config.MaxQueueSize*2),
		ctx:         ctx,
		cancel:      cancel,
	}

	if config.RateLimit > 0 {
		interval := time.Second / time.Duration(config.RateLimit)
		w.rateLimiter = time.NewTicker(interval)
	}

	return w
}

func (w *Worker) Start() {
	w.statsMu.Lock()
	w.stats.IsRunning = true
	w.stats.StartedAt = time.Now()
	w.statsMu.Unlock()

	log.Info("index worker started", "workers", w.config.WorkerCount)

	for i := 0; i < w.config.WorkerCount; i++ {
		w.wg.Add(1)
		go w.worker(i)
	}
}

func (w *Worker) Stop() {
	log.Info("index worker stopping")

	w.cancel()
	if w.rateLimiter != nil {
		w.rateLimiter.Stop()
	}
	w.wg.Wait()

	w.statsMu.Lock()
	w.stats.IsRunning = false
	w.statsMu.Unlock()

	log.Info("index worker stopped")
}

func (w *Worker) Enqueue(job Job) bool {
	var queue chan Job
	switch job.Priority {
	case PriorityHigh:
		queue = w.highQueue
	case PriorityLow:
		queue = w.lowQueue
	default:
		queue = w.normalQueue
	}

	select {
	case queue <- job:
		atomic.AddInt64(&w.stats.InQueue, 1)
		return true
	default:
		log.Warn("job enqueue failed, queue full", "path", job.Path, "priority", job.Priority)
		return false
	}
}

func (w *Worker) EnqueueBatch(paths []string, priority JobPriority) int {
	count := 0
	for _, path := range paths {
		if w.Enqueue(Job{Path: path, Priority: priority}) {
			count++
		}
	}
	return count
}

// Drain blocks until the queues are empty or the context ends. One-shot
// index runs use this to know when the walk has been fully processed.
func (w *Worker) Drain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt64(&w.stats.InQueue) == 0 {
				return nil
			}
		}
	}
}

func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.InQueue = atomic.LoadInt64(&w.stats.InQueue)
	return stats
}

func (w *Worker) worker(id int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if w.rateLimiter != nil {
			select {
			case <-w.rateLimiter.C:
			case <-w.ctx.Done():
				return
			}
		}

		var job Job
		var ok bool

		select {
		case job, ok = <-w.highQueue:
		default:
			select {
			case job, ok = <-w.normalQueue:
			default:
				select {
				case job, ok = <-w.lowQueue:
				default:
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}
		}

		if !ok {
			continue
		}

		log.Debug("worker processing job", "worker_id", id, "path", job.Path)
		w.ProcessPath(job.Path)
		// decremented only after processing so Drain cannot return
		// while a job is still in flight
		atomic.AddInt64(&w.stats.InQueue, -1)
	}
}

// ProcessPath indexes one file: transcode, hash, skip when unchanged,
// extract symbols and store them.
func (w *Worker) ProcessPath(path string) {
	if w.shouldExclude(path) {
		w.recordSkipped()
		log.Debug("skipped file", "path", path, "reason", "excluded by pattern")
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	if info.IsDir() {
		return
	}

	if info.Size() > w.config.MaxFileSize {
		w.recordSkipped()
		w.store.UpdateFileStatus(path, StatusSkipped, "file too large")
		log.Debug("skipped file", "path", path, "reason", "file too large")
		return
	}

	existing, _ := w.store.GetFile(path)

	content, encoding, err := ReadFileAsUTF8(path)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	hashStr := HashContent(content)

	if existing != nil && existing.ContentHash == hashStr {
		log.Debug("skipped file", "path", path, "reason", "content unchanged")
		return
	}

	lang := detectLanguage(path)

	file := &IndexedFile{
		Path:        path,
		ContentHash: hashStr,
		Encoding:    encoding.Encoding,
		Language:    lang,
		Status:      StatusIndexed,
		IndexedAt:   time.Now(),
	}

	fileID, err := w.store.UpsertFile(file)
	if err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	symbols := extractSymbols(content, lang)
	if err := w.store.ReplaceSymbols(fileID, symbols); err != nil {
		w.recordFailed(path, err.Error())
		log.Warn("failed to index", "path", path, "error", err)
		return
	}

	w.recordIndexed()
	log.Debug("file indexed", "path", path, "symbols", len(symbols))

	currentIndexed := atomic.LoadInt64(&w.stats.Indexed)
	if currentIndexed%100 == 0 {
		queueSize := atomic.LoadInt64(&w.stats.InQueue)
		log.Info("indexing progress", "indexed", currentIndexed, "pending", queueSize)
	}
}

func (w *Worker) shouldExclude(path string) bool {
	for _, pattern := range w.config.ExcludePatterns {
		if matched, err := doublestar.Match(pattern, path); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Worker) recordIndexed() {
	atomic.AddInt64(&w.stats.Indexed, 1)
	w.statsMu.Lock()
	w.stats.LastIndexed = time.Now()
	w.statsMu.Unlock()
}

func (w *Worker) recordFailed(path, errMsg string) {
	atomic.AddInt64(&w.stats.Failed, 1)
	w.store.UpdateFileStatus(path, StatusFailed, errMsg)
}

func (w *Worker) recordSkipped() {
	atomic.AddInt64(&w.stats.Skipped, 1)
}
