package model

import (
	"fmt"
	"time"
)

// Normalized application status constants used across views.
const (
	AppStatusSubmitted   = "submitted"
	AppStatusShortlisted = "shortlisted"
	AppStatusTestPending = "test_pending"
	AppStatusTestTaken   = "test_taken"
	AppStatusInterview   = "interview"
	AppStatusOffered     = "offered"
	AppStatusRejected    = "rejected"
)

// Job is a posting fetched from the portal.
type Job struct {
	// ID is the backend identifier for the posting.
	ID string `json:"id"`

	// Title is the position name.
	Title string `json:"title"`

	// Company is the recruiter's organization name.
	Company string `json:"company"`

	// Location is the advertised work location.
	Location string `json:"location"`

	// Description is the full posting body.
	Description string `json:"description"`

	// SalaryMin and SalaryMax bound the advertised range; zero means
	// undisclosed.
	SalaryMin int `json:"salary_min"`
	SalaryMax int `json:"salary_max"`

	// Skills lists the required skills.
	Skills []string `json:"skills"`

	// PostedAt is when the recruiter published the posting.
	PostedAt time.Time `json:"posted_at"`

	// Saved marks a local bookmark; never sent to the backend.
	Saved bool `json:"-"`
}

// SalaryRange formats the advertised salary bounds for display. It
// returns "" when the posting discloses no salary.
func (j Job) SalaryRange() string {
	switch {
	case j.SalaryMin > 0 && j.SalaryMax > 0:
		return fmt.Sprintf("$%d-%d", j.SalaryMin, j.SalaryMax)
	case j.SalaryMin > 0:
		return fmt.Sprintf("from $%d", j.SalaryMin)
	case j.SalaryMax > 0:
		return fmt.Sprintf("up to $%d", j.SalaryMax)
	default:
		return ""
	}
}

// Application is the candidate's application to one job.
type Application struct {
	ID     string `json:"id"`
	JobID  string `json:"job_id"`
	Job    string `json:"job_title"`
	Status string `json:"status"`

	// TestRequired reports whether the recruiter attached a skill test.
	TestRequired bool `json:"test_required"`

	// TestSubmitted reports the authoritative server-side test state. It
	// overrides any local test lock hint.
	TestSubmitted bool `json:"test_submitted"`

	AppliedAt time.Time `json:"applied_at"`
}

// TestQuestion is a single question of a timed skill test.
type TestQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

// TestResult is the graded outcome of a submitted skill test.
type TestResult struct {
	ApplicationID string           `json:"application_id"`
	Score         float64          `json:"score"`
	MaxScore      float64          `json:"max_score"`
	Breakdown     []QuestionResult `json:"breakdown"`
	SubmittedAt   time.Time        `json:"submitted_at"`
}

// QuestionResult is the per-question portion of a test result.
type QuestionResult struct {
	QuestionID string `json:"question_id"`
	Correct    bool   `json:"correct"`
	Answer     string `json:"answer"`
}
