// services/jobs.go
package services

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"quotebuilder-backend/models"
)

// DispatchJob is one queued batch-dispatch request.
type DispatchJob struct {
	ID      uuid.UUID `json:"job_id"`
	Channel string    `json:"channel"`
	Limit   int       `json:"limit"`
}

// JobQueue is a bounded worker pool for batch dispatch. Callers submit and
// forget: the HTTP surface returns the job id immediately and completion is
// only observable through the reminder log.
type JobQueue struct {
	dispatcher *Dispatcher
	jobs       chan DispatchJob
	wg         sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewJobQueue(dispatcher *Dispatcher, buffer int) *JobQueue {
	return &JobQueue{
		dispatcher: dispatcher,
		jobs:       make(chan DispatchJob, buffer),
	}
}

// Start launches the worker goroutines.
func (q *JobQueue) Start(workers int) {
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				result, err := q.dispatcher.ProcessDue(context.Background(), job.Channel, job.Limit)
				if err != nil {
					log.Printf("dispatch job %s failed: %v", job.ID, err)
					continue
				}
				log.Printf("dispatch job %s done: channel=%s processed=%d", job.ID, result.Channel, result.Processed)
			}
		}()
	}
}

// Submit enqueues a batch job. It returns false when the queue is full or
// shutting down.
func (q *JobQueue) Submit(job DispatchJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (q *JobQueue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

// StartDispatchCron schedules a recurring whatsapp batch submission. The
// schedule comes from REMINDER_CRON, defaulting to every five minutes.
func StartDispatchCron(queue *JobQueue) *cron.Cron {
	schedule := os.Getenv("REMINDER_CRON")
	if schedule == "" {
		schedule = "*/5 * * * *"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		job := DispatchJob{ID: uuid.New(), Channel: models.ChannelWhatsApp, Limit: 100}
		if !queue.Submit(job) {
			log.Printf("scheduled dispatch skipped: job queue full")
		}
	})
	if err != nil {
		log.Printf("invalid REMINDER_CRON %q: %v", schedule, err)
		return c
	}

	c.Start()
	log.Println("Reminder dispatch scheduler started")
	return c
}
