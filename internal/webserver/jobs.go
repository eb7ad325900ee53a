// Package webserver exposes the analysis pipeline over HTTP. Each submitted
// video becomes a job that runs in the background; clients poll its status
// and fetch the result when done.
package webserver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle phase of an analysis job.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job tracks one analysis run. Concurrent submissions never share state.
type Job struct {
	mu sync.Mutex

	ID        string
	VideoURL  string
	Language  string
	State     JobState
	Error     string
	CreatedAt time.Time

	result *ResultDoc
}

// JobStatus is the wire form of a job's current state.
type JobStatus struct {
	ID        string   `json:"job_id"`
	State     JobState `json:"state"`
	Error     string   `json:"error,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func (j *Job) setRunning() {
	j.mu.Lock()
	j.State = JobRunning
	j.mu.Unlock()
}

func (j *Job) complete(doc *ResultDoc) {
	j.mu.Lock()
	j.State = JobDone
	j.result = doc
	j.mu.Unlock()
}

func (j *Job) fail(err error) {
	j.mu.Lock()
	j.State = JobFailed
	j.Error = err.Error()
	j.mu.Unlock()
}

// Status returns a snapshot safe to serialize.
func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		ID:        j.ID,
		State:     j.State,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Result returns the job's result once done.
func (j *Job) Result() (*ResultDoc, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.State == JobDone
}

// Registry holds all jobs created during this process lifetime.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job for the given request.
func (r *Registry) Create(videoURL, language string) *Job {
	j := &Job{
		ID:        uuid.NewString(),
		VideoURL:  videoURL,
		Language:  language,
		State:     JobPending,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return j
}

// Get looks a job up by id.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}
