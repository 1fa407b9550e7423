package domain

import "time"

// Tasks a job can run.
const (
	TaskTopology     = "topology"
	TaskServiceTypes = "service-types"
)

// Snapshot is everything one successful run produced. It is what sinks
// publish and what the ops API serves.
type Snapshot struct {
	Customer     string           `json:"customer"`
	Job          string           `json:"job"`
	Task         string           `json:"task"`
	Date         string           `json:"date"` // YYYY-MM-DD
	RunID        string           `json:"run_id"`
	At           time.Time        `json:"at"`
	Groups       []GroupRecord    `json:"groups,omitempty"`
	Endpoints    []EndpointRecord `json:"endpoints,omitempty"`
	ServiceTypes []ServiceType    `json:"service_types,omitempty"`
	Contacts     []ContactRecord  `json:"contacts,omitempty"`
}

// Key identifies the snapshot slot of a customer job task.
func (s *Snapshot) Key() string {
	return SnapshotKey(s.Customer, s.Job, s.Task)
}

func SnapshotKey(customer, job, task string) string {
	return customer + "/" + job + "/" + task
}

// State is the outcome marker of one run.
type State struct {
	Customer string    `json:"customer"`
	Job      string    `json:"job"`
	Task     string    `json:"task"`
	Date     string    `json:"date"`
	OK       bool      `json:"ok"`
	RunID    string    `json:"run_id"`
	At       time.Time `json:"at"`
	Error    string    `json:"error,omitempty"`
}

func (s State) Key() string {
	return SnapshotKey(s.Customer, s.Job, s.Task)
}
