package models

import "time"

// Worker is a sponsored worker owned by a tenant. Identity fields
// (name, SOC code, CoS reference, assignment date) are immutable after
// HR intake creates the row.
type Worker struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Name           string    `json:"name"`
	JobTitle       string    `json:"jobTitle"`
	SOCCode        string    `json:"socCode"`
	CoSReference   string    `json:"cosReference"`
	AssignmentDate time.Time `json:"assignmentDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CreateWorkerRequest is the HR intake payload
type CreateWorkerRequest struct {
	Name           string `json:"name"`
	JobTitle       string `json:"jobTitle"`
	SOCCode        string `json:"socCode"`
	CoSReference   string `json:"cosReference"`
	AssignmentDate string `json:"assignmentDate"` // YYYY-MM-DD
}

// WorkerFacts is the slice of worker identity handed to the narrative
// generator (and into the cache fingerprint). Kept separate from Worker so
// two workers with identical facts can share cache entries.
type WorkerFacts struct {
	Name           string `json:"name"`
	JobTitle       string `json:"jobTitle"`
	SOCCode        string `json:"socCode"`
	CoSReference   string `json:"cosReference"`
	AssignmentDate string `json:"assignmentDate"`
}

// Facts projects the fingerprint-relevant fields of a worker
func (w *Worker) Facts() WorkerFacts {
	return WorkerFacts{
		Name:           w.Name,
		JobTitle:       w.JobTitle,
		SOCCode:        w.SOCCode,
		CoSReference:   w.CoSReference,
		AssignmentDate: w.AssignmentDate.Format("2006-01-02"),
	}
}
