// Package exports archives worker data exports into the blob store. Requests
// are queued and processed by a background worker; callers poll the record
// for artifacts and download URLs.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chvcore/internal/blob"
	"chvcore/internal/core"
)

// ExportStatus describes the lifecycle stage of an export request.
type ExportStatus string

const (
	ExportStatusQueued    ExportStatus = "queued"
	ExportStatusRunning   ExportStatus = "running"
	ExportStatusSucceeded ExportStatus = "succeeded"
	ExportStatusFailed    ExportStatus = "failed"
)

const (
	keyPrefix        = "exports"
	defaultQueueSize = 32
	defaultRetention = 256
)

// Exporter renders a worker's records in a format. *core.Service implements it.
type Exporter interface {
	ExportData(workerID string, format core.ExportFormat) ([]byte, error)
}

// Artifact is one stored export file.
type Artifact struct {
	Key         string            `json:"key"`
	Format      core.ExportFormat `json:"format"`
	ContentType string            `json:"content_type"`
	SizeBytes   int64             `json:"size_bytes"`
	ETag        string            `json:"etag,omitempty"`
	URL         string            `json:"url,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Record tracks an export request and its artifacts.
type Record struct {
	ID          string              `json:"id"`
	WorkerID    string              `json:"worker_id"`
	Formats     []core.ExportFormat `json:"formats"`
	Status      ExportStatus        `json:"status"`
	Error       string              `json:"error,omitempty"`
	Artifacts   []Artifact          `json:"artifacts,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

func (r Record) copy() Record {
	out := r
	out.Formats = append([]core.ExportFormat(nil), r.Formats...)
	out.Artifacts = append([]Artifact(nil), r.Artifacts...)
	if r.CompletedAt != nil {
		ts := *r.CompletedAt
		out.CompletedAt = &ts
	}
	return out
}

// Input is an enqueue request.
type Input struct {
	WorkerID string
	Formats  []core.ExportFormat
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides the time source used for keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// WithQueueSize bounds the number of pending requests.
func WithQueueSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.queueSize = n
		}
	}
}

// WithRetention caps how many finished records are kept for polling. The
// oldest finished records are dropped first; queued and running ones stay.
func WithRetention(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.retention = n
		}
	}
}

// WithPresignExpiry sets the lifetime of download URLs.
func WithPresignExpiry(d time.Duration) Option {
	return func(w *Worker) { w.presignExpiry = d }
}

// Worker executes exports asynchronously.
type Worker struct {
	exporter      Exporter
	store         blob.Store
	logger        *zap.Logger
	now           func() time.Time
	queueSize     int
	retention     int
	presignExpiry time.Duration

	queue    chan task
	mu       sync.RWMutex
	jobs     map[string]*Record
	finished []string // ids in completion order

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs an export worker. Call Start before enqueuing.
func NewWorker(exporter Exporter, store blob.Store, opts ...Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		exporter:      exporter,
		store:         store,
		logger:        zap.NewNop(),
		now:           func() time.Time { return time.Now().UTC() },
		queueSize:     defaultQueueSize,
		retention:     defaultRetention,
		presignExpiry: blob.DefaultPresignExpiry,
		jobs:          make(map[string]*Record),
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.queue = make(chan task, w.queueSize)
	return w
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for the current job.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export and returns the queued record. An empty format
// list archives JSON and CSV.
func (w *Worker) Enqueue(ctx context.Context, in Input) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if w.exporter == nil || w.store == nil {
		return Record{}, errors.New("export archive not configured")
	}
	if in.WorkerID == "" {
		return Record{}, errors.New("worker id required")
	}
	formats, err := uniqueFormats(in.Formats)
	if err != nil {
		return Record{}, err
	}

	now := w.now()
	rec := Record{
		ID:        uuid.NewString(),
		WorkerID:  in.WorkerID,
		Formats:   formats,
		Status:    ExportStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	w.mu.Lock()
	w.jobs[rec.ID] = &rec
	queued := rec.copy()
	w.mu.Unlock()

	select {
	case w.queue <- task{id: rec.ID, input: in}:
	default:
		w.mu.Lock()
		delete(w.jobs, rec.ID)
		w.mu.Unlock()
		return Record{}, errors.New("export queue full")
	}
	w.logger.Info("export queued",
		zap.String("export_id", rec.ID),
		zap.String("worker_id", rec.WorkerID))
	return queued, nil
}

// Get returns a copy of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rec, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return rec.copy(), true
}

// Archive renders and stores one export synchronously.
func (w *Worker) Archive(ctx context.Context, workerID string, format core.ExportFormat) (Artifact, error) {
	payload, err := w.exporter.ExportData(workerID, format)
	if err != nil {
		return Artifact{}, fmt.Errorf("render %s export: %w", format, err)
	}
	created := w.now()
	key := objectKey(workerID, created, format)
	info, err := w.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata:    map[string]string{"worker_id": workerID, "format": string(format)},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store %s: %w", key, err)
	}
	art := Artifact{
		Key:         key,
		Format:      format,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		ETag:        info.ETag,
		CreatedAt:   created,
	}
	if art.ContentType == "" {
		art.ContentType = format.ContentType()
	}
	if art.SizeBytes == 0 {
		art.SizeBytes = int64(len(payload))
	}
	url, err := w.store.PresignURL(ctx, key, w.presignExpiry)
	switch {
	case err == nil:
		art.URL = url
	case errors.Is(err, blob.ErrUnsupported):
		// no download URL for this backend
	default:
		w.logger.Warn("presign export failed", zap.String("key", key), zap.Error(err))
	}
	return art, nil
}

func (w *Worker) process(t task) {
	rec, ok := w.Get(t.id)
	if !ok {
		return
	}
	w.update(t.id, func(r *Record) { r.Status = ExportStatusRunning })

	artifacts := make([]Artifact, 0, len(rec.Formats))
	for _, format := range rec.Formats {
		art, err := w.Archive(w.ctx, rec.WorkerID, format)
		if err != nil {
			w.logger.Error("export failed", zap.String("export_id", t.id), zap.Error(err))
			w.finish(t.id, ExportStatusFailed, err.Error(), nil)
			return
		}
		artifacts = append(artifacts, art)
	}
	w.logger.Info("export archived",
		zap.String("export_id", t.id),
		zap.String("worker_id", rec.WorkerID),
		zap.Int("artifacts", len(artifacts)))
	w.finish(t.id, ExportStatusSucceeded, "", artifacts)
}

func (w *Worker) update(id string, fn func(*Record)) {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if r, ok := w.jobs[id]; ok {
		fn(r)
		r.UpdatedAt = now
	}
}

func (w *Worker) finish(id string, status ExportStatus, reason string, artifacts []Artifact) {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.jobs[id]
	if !ok {
		return
	}
	r.Status = status
	r.Error = reason
	r.Artifacts = artifacts
	r.CompletedAt = &now
	r.UpdatedAt = now

	w.finished = append(w.finished, id)
	for len(w.finished) > w.retention {
		delete(w.jobs, w.finished[0])
		w.finished = w.finished[1:]
	}
}

func uniqueFormats(formats []core.ExportFormat) ([]core.ExportFormat, error) {
	if len(formats) == 0 {
		return []core.ExportFormat{core.FormatJSON, core.FormatCSV}, nil
	}
	out := make([]core.ExportFormat, 0, len(formats))
	seen := make(map[core.ExportFormat]struct{}, len(formats))
	for _, f := range formats {
		parsed, err := core.ParseExportFormat(string(f))
		if err != nil {
			return nil, err
		}
		if _, dup := seen[parsed]; dup {
			continue
		}
		seen[parsed] = struct{}{}
		out = append(out, parsed)
	}
	return out, nil
}

// objectKey builds exports/<worker>/<utc timestamp>.<ext>.
func objectKey(workerID string, at time.Time, format core.ExportFormat) string {
	return path.Join(keyPrefix, workerID, at.UTC().Format("20060102T150405.000Z")+"."+format.Extension())
}
