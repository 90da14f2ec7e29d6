package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/m1moraru/Taskify/internal/models"
	"github.com/m1moraru/Taskify/pkg/logger"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type JobType string

const (
	// JobTypeDeadlineReminder notifies a task owner that a deadline falls
	// inside the reminder window.
	JobTypeDeadlineReminder JobType = "deadline_reminder"
)

const (
	ReminderQueue = "taskify:reminders"
	retryQueue    = "taskify:retry"
	deadQueue     = "taskify:dead"
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// Worker drains redis-backed job queues with a pool of goroutines. Failed
// jobs are retried with backoff and parked on a dead queue after MaxTries.
type Worker struct {
	client   *redis.Client
	handlers map[JobType]JobHandler
	queues   []string
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

type Config struct {
	RedisClient *redis.Client
	Queues      []string
}

func New(config Config) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	queues := config.Queues
	if len(queues) == 0 {
		queues = []string{ReminderQueue, retryQueue}
	}

	return &Worker{
		client:   config.RedisClient,
		handlers: make(map[JobType]JobHandler),
		queues:   queues,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	logger.Get().Info().Int("concurrency", concurrency).Msg("starting worker")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	logger.Get().Info().Msg("stopping worker")
	w.cancel()
	w.wg.Wait()
	logger.Get().Info().Msg("worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNextJob(); err != nil {
				logger.Get().Error().Err(err).Msg("failed to process job")
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, 5*time.Second, w.queues...).Result()
	if err != nil {
		if err == redis.Nil || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}
	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue, jobData := result[0], result[1]

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	// Not due yet; put it back.
	if time.Now().Before(job.ProcessAt) {
		return w.enqueueJob(queue, &job)
	}

	return w.executeJob(&job)
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.Type)
	}

	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	if err := handler(ctx, job); err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			logger.Get().Warn().
				Str("job_id", job.ID).
				Int("attempt", job.Attempts).
				Err(err).
				Msg("job failed, retrying")
			job.ProcessAt = time.Now().Add(time.Duration(1<<job.Attempts) * time.Minute)
			return w.enqueueJob(retryQueue, job)
		}

		logger.Get().Error().
			Str("job_id", job.ID).
			Int("attempts", job.Attempts).
			Err(err).
			Msg("job failed permanently")
		return w.moveToDeadQueue(job, err)
	}

	logger.Get().Debug().Str("job_id", job.ID).Msg("job completed")
	return nil
}

func (w *Worker) enqueueJob(queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return w.client.RPush(w.ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}
	return w.client.RPush(w.ctx, deadQueue, deadJobData).Err()
}

type JobQueue struct {
	client *redis.Client
}

func NewJobQueue(client *redis.Client) *JobQueue {
	return &JobQueue{client: client}
}

func (q *JobQueue) Enqueue(queue string, jobType JobType, payload map[string]interface{}) error {
	job := &Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: time.Now(),
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, queue, jobData).Err()
}

func (q *JobQueue) QueueSize(queue string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, queue).Result()
}

// EnqueueDeadlineReminders scans for live tasks whose deadline falls within
// the window and queues one reminder job per task.
func EnqueueDeadlineReminders(db *gorm.DB, queue *JobQueue, window time.Duration) (int, error) {
	var tasks []models.Task
	err := db.
		Where("archived = ? AND status <> ?", false, models.StatusCompleted).
		Where("deadline IS NOT NULL AND deadline BETWEEN ? AND ?", time.Now(), time.Now().Add(window)).
		Find(&tasks).Error
	if err != nil {
		return 0, fmt.Errorf("failed to scan deadlines: %w", err)
	}

	for _, task := range tasks {
		payload := map[string]interface{}{
			"task_id":  task.ID.String(),
			"user_id":  task.UserID.String(),
			"title":    task.Title,
			"deadline": task.Deadline,
		}
		if err := queue.Enqueue(ReminderQueue, JobTypeDeadlineReminder, payload); err != nil {
			return 0, err
		}
	}
	return len(tasks), nil
}

// LogReminderHandler is the default reminder delivery: a structured log line.
// Real notification transports plug in through RegisterHandler.
func LogReminderHandler(ctx context.Context, job *Job) error {
	logger.Get().Info().
		Interface("payload", job.Payload).
		Msg("task deadline approaching")
	return nil
}
