package events

import "time"

const WorkerRegisteredTopic = "idcard.worker.registered.v1"

const WorkerRegisteredEventType = "worker_registered"

type WorkerRegisteredEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	WorkerID   string    `json:"worker_id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	OccurredAt time.Time `json:"occurred_at"`
}
