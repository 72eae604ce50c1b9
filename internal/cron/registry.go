package cron

import (
	"context"
	"fmt"
)

// Job is one maintenance task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry keeps jobs in registration order, unique by name.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs are skipped and a
// repeated name panics, since that is a wiring bug.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			panic(err)
		}
	}
	return registry
}

// Register adds job. A nil job is ignored.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, dup := r.names[job.Name()]; dup {
		return fmt.Errorf("cron job %q already registered", job.Name())
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
