// Package jobqueue defines the contract for durable, storage-backed
// execution of skill tool calls. It is interface-only: no storage backend
// and no worker loop ship in this module, per spec.md's explicit "job queue
// persistence backend; job queue workers" Non-goals. A caller wanting
// durable execution implements Queue against their own store (SQL table,
// Redis stream, SQS, ...) and drives it with their own worker, using this
// package only for the shared Job/Queue vocabulary.
package jobqueue

import (
	"context"
	"time"
)

// Status is the closed set of states a Job moves through. A Job only ever
// moves forward: Pending -> Running -> (Succeeded | Failed).
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one durable execute request: enough to replay the call (skill,
// instance, tool, args) plus enough to report its outcome (status, result,
// error) without the caller having to keep the original request around.
type Job struct {
	ID       string
	Skill    string
	Instance string
	Tool     string
	Args     map[string]string

	Status Status
	Output string
	Error  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Queue is the storage-backed durable-execution contract: Enqueue admits a
// new Job, Dequeue hands a worker the next Pending Job and marks it Running,
// Ack records a Dequeued Job's terminal outcome. Implementations own their
// own visibility-timeout, retry, and dead-letter policy -- none of that is
// specified here.
type Queue interface {
	// Enqueue admits job (Status and the two timestamps are set by the
	// implementation, not the caller) and returns its assigned ID.
	Enqueue(ctx context.Context, job Job) (string, error)

	// Dequeue blocks until a Pending Job is available or ctx is cancelled,
	// then returns it with Status already advanced to Running.
	Dequeue(ctx context.Context) (Job, error)

	// Ack records a Dequeued Job's terminal outcome (Succeeded or Failed,
	// with Output or Error populated accordingly).
	Ack(ctx context.Context, job Job) error
}
