// -----------------------------------------------------------------------
// Ingestion Pipeline - Orchestrates parse, resolve, dedup and task tracking
// -----------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/common"
	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
	"github.com/ternarybob/congrego/internal/parser"
)

// maxStoredErrors caps the per-task error list so a pathological file cannot
// balloon the task record.
const maxStoredErrors = 100

// SubmissionResult is returned synchronously from Submit; everything else is
// observed through the task store.
type SubmissionResult struct {
	TaskID       string
	TotalParsed  int
	InvalidCount int
}

// Service owns the full ingestion flow for uploaded identifier files. Submit
// validates and parses synchronously, registers a task, and hands the
// resolution work to a detached goroutine; that goroutine is the task's sole
// writer until it reaches a terminal state.
type Service struct {
	parser   *parser.LineParser
	resolver *BatchResolver
	deduper  *Deduper
	tasks    interfaces.TaskStore
	notifier interfaces.TaskNotifier
	upload   common.UploadConfig
	logger   arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the pipeline. notifier may be nil when no push channel is
// configured.
func NewService(lp *parser.LineParser, resolver *BatchResolver, deduper *Deduper, tasks interfaces.TaskStore, notifier interfaces.TaskNotifier, upload common.UploadConfig, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		parser:   lp,
		resolver: resolver,
		deduper:  deduper,
		tasks:    tasks,
		notifier: notifier,
		upload:   upload,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit validates and parses the uploaded file, creates a pending task, and
// starts asynchronous resolution. It returns as soon as the task is stored;
// the caller polls the task id for progress.
func (s *Service) Submit(ctx context.Context, filename string, size int64, r io.Reader) (*SubmissionResult, error) {
	if err := s.validateFile(filename, size); err != nil {
		return nil, err
	}

	// Guard against an understated size header.
	result, err := s.parser.ParseFile(io.LimitReader(r, s.upload.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	total := len(result.Identifiers) + len(result.Errors)
	if total == 0 {
		return nil, fmt.Errorf("file %s contains no identifiers", filename)
	}

	task := models.NewUploadTask(common.NewTaskID(), filename, total, result.InvalidCount(), result.DuplicateCount())
	for _, perr := range result.Errors {
		if len(task.Errors) >= maxStoredErrors {
			break
		}
		task.AppendError(perr.Error())
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.notify(task)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("filename", filename).
		Int("total", total).
		Int("identifiers", len(result.Identifiers)).
		Int("parse_errors", len(result.Errors)).
		Msg("Upload accepted")

	s.wg.Add(1)
	go s.run(task.ID, result.Identifiers)

	return &SubmissionResult{
		TaskID:       task.ID,
		TotalParsed:  total,
		InvalidCount: result.InvalidCount(),
	}, nil
}

// GetStatus returns a snapshot of the task
func (s *Service) GetStatus(ctx context.Context, taskID string) (*models.UploadTask, error) {
	return s.tasks.Get(ctx, taskID)
}

// Close stops accepting progress on running tasks and waits for the owning
// goroutines to finish marking their tasks.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) validateFile(filename string, size int64) error {
	if size > s.upload.MaxFileSize {
		return fmt.Errorf("file exceeds maximum size of %d bytes", s.upload.MaxFileSize)
	}
	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.upload.AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("file type %q is not allowed", ext)
}

// run is the task's owning goroutine. It drives resolution batch by batch,
// folding each batch's outcome into the task record as it lands, then settles
// the persisted/duplicate split and the terminal status.
func (s *Service) run(taskID string, identifiers []*parser.ParsedIdentifier) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			stackTrace := common.GetStackTrace()
			common.WriteCrashFile(r, stackTrace)
			s.logger.Error().
				Str("task_id", taskID).
				Str("stack", stackTrace).
				Msg(fmt.Sprintf("Pipeline panic: %v", r))
			s.updateTask(taskID, func(t *models.UploadTask) {
				t.MarkFailed(fmt.Sprintf("internal error: %v", r))
			})
		}
	}()

	ctx := s.ctx
	s.updateTask(taskID, func(t *models.UploadTask) { t.MarkProcessing() })

	res, resolveErr := s.resolver.Resolve(ctx, identifiers, func(batch *BatchOutcome) {
		s.updateTask(taskID, func(t *models.UploadTask) {
			t.AdvanceProcessed(len(batch.Resolved))
			t.AddProcessed(0, len(batch.Failed), 0)
			for _, f := range batch.Failed {
				if len(t.Errors) >= maxStoredErrors {
					break
				}
				t.AppendError(fmt.Sprintf("line %d: %s: %s", f.Identifier.Line, f.Identifier.Raw, f.Reason))
			}
		})
	})

	// Whatever resolved before a fatal error is still persisted.
	persisted, duplicates, dedupErr := s.deduper.ClassifyAndPersist(ctx, res.Resolved, taskID)
	s.updateTask(taskID, func(t *models.UploadTask) {
		t.Classify(persisted, duplicates)
	})

	switch {
	case dedupErr != nil:
		s.logger.Error().Err(dedupErr).Str("task_id", taskID).Msg("Task failed during persistence")
		s.updateTask(taskID, func(t *models.UploadTask) {
			t.MarkFailed(fmt.Sprintf("persistence failed: %v", dedupErr))
		})
	case resolveErr != nil:
		s.logger.Error().Err(resolveErr).Str("task_id", taskID).Msg("Task failed during resolution")
		s.updateTask(taskID, func(t *models.UploadTask) {
			t.MarkFailed(resolveErr.Error())
		})
	default:
		s.logger.Info().
			Str("task_id", taskID).
			Int("persisted", persisted).
			Int("duplicates", duplicates).
			Int("failed", len(res.Failed)).
			Msg("Task completed")
		s.updateTask(taskID, func(t *models.UploadTask) { t.MarkCompleted() })
	}
}

// updateTask applies mutate through the store and pushes the fresh snapshot
// to the notifier. Uses a background context so terminal transitions land
// even during shutdown.
func (s *Service) updateTask(taskID string, mutate func(*models.UploadTask)) {
	ctx := context.Background()
	if err := s.tasks.Update(ctx, taskID, mutate); err != nil {
		s.logger.Warn().Err(err).Str("task_id", taskID).Msg("Task update failed")
		return
	}
	if task, err := s.tasks.Get(ctx, taskID); err == nil {
		s.notify(task)
	}
}

func (s *Service) notify(task *models.UploadTask) {
	if s.notifier != nil {
		s.notifier.NotifyTaskUpdated(task)
	}
}
