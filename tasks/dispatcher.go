package tasks

import (
	"sort"
	"sync"
	"time"

	"github.com/Kellerman81/go_case_tables/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

var (
	ErrNotActive = errors.New("dispatcher is not active")
	ErrQueueFull = errors.New("queue is full")
)

// Job is a queued run of a named task.
type Job struct {
	Queue   string    `json:"queue"`
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Added   time.Time `json:"added"`
	Started time.Time `json:"started,omitempty"`
	Run     func()    `json:"-"`
}

// Dispatcher runs jobs on a fixed number of workers. Jobs come from
// Dispatch or from cron schedules.
type Dispatcher struct {
	name       string
	maxWorkers int
	maxQueue   int

	mu       sync.Mutex
	active   bool
	jobQueue chan Job
	queue    map[string]Job
	cron     *cron.Cron
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher with maxWorkers workers and room for
// maxQueue waiting jobs.
func NewDispatcher(name string, maxWorkers int, maxQueue int) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if maxQueue <= 0 {
		maxQueue = 1
	}
	return &Dispatcher{
		name:       name,
		maxWorkers: maxWorkers,
		maxQueue:   maxQueue,
	}
}

// Start launches the workers and the cron scheduler.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return
	}
	d.jobQueue = make(chan Job, d.maxQueue)
	d.queue = make(map[string]Job, d.maxQueue)
	d.cron = cron.New(cron.WithSeconds())
	for i := 0; i < d.maxWorkers; i++ {
		d.wg.Add(1)
		go d.work(d.jobQueue)
	}
	d.cron.Start()
	d.active = true
}

func (d *Dispatcher) work(jobs <-chan Job) {
	defer d.wg.Done()
	for job := range jobs {
		d.mu.Lock()
		job.Started = time.Now()
		d.queue[job.ID] = job
		d.mu.Unlock()

		d.run(job)

		d.mu.Lock()
		delete(d.queue, job.ID)
		d.mu.Unlock()
	}
}

func (d *Dispatcher) run(job Job) {
	defer func() {
		if e := recover(); e != nil {
			logger.Log.Errorln("Recovered from panic in job", job.Name, e)
		}
	}()
	logger.Log.Debugln("Started job", job.Name, "on queue", d.name)
	job.Run()
	logger.Log.Debugln("Ended job", job.Name, "on queue", d.name)
}

// Stop ends the cron schedules, lets the workers finish the queued jobs
// and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	c := d.cron
	d.mu.Unlock()

	<-c.Stop().Done()

	d.mu.Lock()
	close(d.jobQueue)
	d.mu.Unlock()
	d.wg.Wait()
}

// Dispatch queues run. It does not block when the queue is full.
func (d *Dispatcher) Dispatch(name string, run func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return ErrNotActive
	}
	job := Job{Queue: d.name, ID: uuid.New().String(), Added: time.Now(), Name: name, Run: run}
	select {
	case d.jobQueue <- job:
		d.queue[job.ID] = job
		return nil
	default:
		return ErrQueueFull
	}
}

// DispatchCron queues run each time cronStr (with seconds) matches.
func (d *Dispatcher) DispatchCron(name string, run func(), cronStr string) error {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return ErrNotActive
	}
	c := d.cron
	d.mu.Unlock()

	_, err := c.AddFunc(cronStr, func() {
		if err := d.Dispatch(name, run); err != nil {
			logger.Log.Warnln("Skipped job", name, "error:", err)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid cron definition %q", cronStr)
	}
	return nil
}

// Queue lists the waiting and running jobs, oldest first.
func (d *Dispatcher) Queue() []Job {
	d.mu.Lock()
	defer d.mu.Unlock()
	jobs := make([]Job, 0, len(d.queue))
	for _, job := range d.queue {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Added.Before(jobs[j].Added) })
	return jobs
}
