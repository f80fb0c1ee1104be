package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ErrorResponse is the portal's error payload shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// flexID accepts either a JSON number or a JSON string, since the portal
// serializes notification ids inconsistently across feeds.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}

// loginRequest and loginResponse form the auth/login exchange.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// userResponse is the auth/me payload.
type userResponse struct {
	Username        string `json:"username"`
	Role            string `json:"role"`
	ProfileComplete bool   `json:"profile_complete"`
}

// jobNotificationDTO is one entry of alerts/job-notifications/.
type jobNotificationDTO struct {
	ID        flexID    `json:"id"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
	JobID     flexID    `json:"job_id"`
	JobTitle  string    `json:"job_title"`
}

// appNotificationDTO is one entry of
// alerts/application-status-notifications/.
type appNotificationDTO struct {
	ID            flexID    `json:"id"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
	Message       string    `json:"message"`
	ApplicationID flexID    `json:"application_id"`
}

// jobDTO is one posting of jobs/.
type jobDTO struct {
	ID          flexID    `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	SalaryMin   int       `json:"salary_min"`
	SalaryMax   int       `json:"salary_max"`
	Skills      []string  `json:"skills"`
	PostedAt    time.Time `json:"posted_at"`
}

// jobListResponse is the paginated jobs/ payload.
type jobListResponse struct {
	Results []jobDTO `json:"results"`
	Total   int      `json:"count"`
}

// applicationDTO is one entry of applications/.
type applicationDTO struct {
	ID            flexID    `json:"id"`
	JobID         flexID    `json:"job_id"`
	JobTitle      string    `json:"job_title"`
	Status        string    `json:"status"`
	TestRequired  bool      `json:"test_required"`
	TestSubmitted bool      `json:"test_submitted"`
	AppliedAt     time.Time `json:"applied_at"`
}

// applyRequest is the jobs/{id}/apply/ body.
type applyRequest struct {
	CoverLetter    string `json:"cover_letter"`
	ExpectedSalary int    `json:"expected_salary,omitempty"`
}

// testQuestionDTO is one question of applications/{id}/test/.
type testQuestionDTO struct {
	ID      flexID   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type testResponse struct {
	DurationMinutes int               `json:"duration_minutes"`
	Questions       []testQuestionDTO `json:"questions"`
}

// testSubmitRequest is the applications/{id}/test/submit/ body.
type testSubmitRequest struct {
	Answers map[string]string `json:"answers"`
}

// testResultDTO is the applications/{id}/test-results/ payload.
type testResultDTO struct {
	ApplicationID flexID  `json:"application_id"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Breakdown     []struct {
		QuestionID flexID `json:"question_id"`
		Correct    bool   `json:"correct"`
		Answer     string `json:"answer"`
	} `json:"breakdown"`
	SubmittedAt time.Time `json:"submitted_at"`
}
