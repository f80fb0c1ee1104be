package portal

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jobdeck/jobdeck/internal/model"
)

// Login exchanges credentials for a session token. The token is returned
// to the caller (the session manager owns persistence) and also set on
// the client for subsequent requests.
func (c *Client) Login(
	ctx context.Context, username, password string,
) (string, error) {
	var resp loginResponse
	err := c.Post(ctx, "/auth/login/", loginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}

	c.SetToken(resp.Token)
	return resp.Token, nil
}

// Me fetches the current authenticated user.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var resp userResponse
	if err := c.Get(ctx, "/auth/me/", &resp); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}

	return &model.User{
		Username:        resp.Username,
		Role:            resp.Role,
		ProfileComplete: resp.ProfileComplete,
	}, nil
}

// JobNotifications fetches the job-match notification feed.
func (c *Client) JobNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	var dtos []jobNotificationDTO
	err := c.Get(ctx, "/alerts/job-notifications/", &dtos)
	if err != nil {
		return nil, fmt.Errorf("fetching job notifications: %w", err)
	}

	ns := make([]model.Notification, 0, len(dtos))
	for _, d := range dtos {
		ns = append(ns, model.Notification{
			ID:        string(d.ID),
			Kind:      model.KindJobMatch,
			Read:      d.IsRead,
			CreatedAt: d.CreatedAt,
			JobID:     string(d.JobID),
			JobTitle:  d.JobTitle,
		})
	}
	return ns, nil
}

// ApplicationNotifications fetches the application-status notification feed.
func (c *Client) ApplicationNotifications(
	ctx context.Context,
) ([]model.Notification, error) {
	var dtos []appNotificationDTO
	err := c.Get(ctx, "/alerts/application-status-notifications/", &dtos)
	if err != nil {
		return nil, fmt.Errorf("fetching application notifications: %w", err)
	}

	ns := make([]model.Notification, 0, len(dtos))
	for _, d := range dtos {
		ns = append(ns, model.Notification{
			ID:            string(d.ID),
			Kind:          model.KindAppStatus,
			Read:          d.IsRead,
			CreatedAt:     d.CreatedAt,
			Message:       d.Message,
			ApplicationID: string(d.ApplicationID),
		})
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification of the given kind as
// read. Marking an already-read notification succeeds without effect.
func (c *Client) MarkNotificationRead(
	ctx context.Context, kind model.NotificationKind, id string,
) error {
	var path string
	switch kind {
	case model.KindJobMatch:
		path = fmt.Sprintf("/alerts/job-notifications/%s/mark-read/", id)
	case model.KindAppStatus:
		path = fmt.Sprintf(
			"/alerts/application-status-notifications/%s/mark-read/", id,
		)
	default:
		return fmt.Errorf("unknown notification kind %q", kind)
	}

	if err := c.Post(ctx, path, nil, nil); err != nil {
		return fmt.Errorf("marking %s notification %s read: %w", kind, id, err)
	}
	return nil
}

// Jobs searches postings with the given filter.
func (c *Client) Jobs(
	ctx context.Context, filter JobFilter,
) ([]model.Job, int, error) {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.Location != "" {
		q.Set("location", filter.Location)
	}
	if filter.Ordering != "" {
		q.Set("ordering", filter.Ordering)
	}
	if filter.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", filter.Page))
	}
	if filter.PageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", filter.PageSize))
	}

	path := "/jobs/"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp jobListResponse
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, 0, fmt.Errorf("fetching jobs: %w", err)
	}

	jobs := make([]model.Job, 0, len(resp.Results))
	for _, d := range resp.Results {
		jobs = append(jobs, jobFromDTO(d))
	}
	return jobs, resp.Total, nil
}

// Job fetches a single posting by id.
func (c *Client) Job(ctx context.Context, id string) (*model.Job, error) {
	var d jobDTO
	if err := c.Get(ctx, "/jobs/"+id+"/", &d); err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	job := jobFromDTO(d)
	return &job, nil
}

// Apply submits an application to a posting.
func (c *Client) Apply(
	ctx context.Context, jobID, coverLetter string, expectedSalary int,
) error {
	err := c.Post(ctx, "/jobs/"+jobID+"/apply/", applyRequest{
		CoverLetter:    coverLetter,
		ExpectedSalary: expectedSalary,
	}, nil)
	if err != nil {
		return fmt.Errorf("applying to job %s: %w", jobID, err)
	}
	return nil
}

// Applications fetches the candidate's applications.
func (c *Client) Applications(
	ctx context.Context,
) ([]model.Application, error) {
	var dtos []applicationDTO
	if err := c.Get(ctx, "/applications/", &dtos); err != nil {
		return nil, fmt.Errorf("fetching applications: %w", err)
	}

	apps := make([]model.Application, 0, len(dtos))
	for _, d := range dtos {
		apps = append(apps, model.Application{
			ID:            string(d.ID),
			JobID:         string(d.JobID),
			Job:           d.JobTitle,
			Status:        d.Status,
			TestRequired:  d.TestRequired,
			TestSubmitted: d.TestSubmitted,
			AppliedAt:     d.AppliedAt,
		})
	}
	return apps, nil
}

// Test fetches the skill-test questions for an application along with the
// server's test duration in minutes.
func (c *Client) Test(
	ctx context.Context, applicationID string,
) ([]model.TestQuestion, int, error) {
	var resp testResponse
	path := "/applications/" + applicationID + "/test/"
	if err := c.Get(ctx, path, &resp); err != nil {
		return nil, 0, fmt.Errorf(
			"fetching test for application %s: %w", applicationID, err,
		)
	}

	questions := make([]model.TestQuestion, 0, len(resp.Questions))
	for _, d := range resp.Questions {
		questions = append(questions, model.TestQuestion{
			ID:      string(d.ID),
			Prompt:  d.Prompt,
			Options: d.Options,
		})
	}
	return questions, resp.DurationMinutes, nil
}

// SubmitTest submits the candidate's answers for grading.
func (c *Client) SubmitTest(
	ctx context.Context, applicationID string, answers map[string]string,
) error {
	path := "/applications/" + applicationID + "/test/submit/"
	err := c.Post(ctx, path, testSubmitRequest{Answers: answers}, nil)
	if err != nil {
		return fmt.Errorf(
			"submitting test for application %s: %w", applicationID, err,
		)
	}
	return nil
}

// TestResult fetches the graded test outcome for an application.
func (c *Client) TestResult(
	ctx context.Context, applicationID string,
) (*model.TestResult, error) {
	var d testResultDTO
	path := "/applications/" + applicationID + "/test-results/"
	if err := c.Get(ctx, path, &d); err != nil {
		return nil, fmt.Errorf(
			"fetching test results for application %s: %w",
			applicationID, err,
		)
	}

	result := &model.TestResult{
		ApplicationID: string(d.ApplicationID),
		Score:         d.Score,
		MaxScore:      d.MaxScore,
		SubmittedAt:   d.SubmittedAt,
	}
	for _, b := range d.Breakdown {
		result.Breakdown = append(result.Breakdown, model.QuestionResult{
			QuestionID: string(b.QuestionID),
			Correct:    b.Correct,
			Answer:     b.Answer,
		})
	}
	return result, nil
}

// jobFromDTO converts a wire posting to the model representation.
func jobFromDTO(d jobDTO) model.Job {
	return model.Job{
		ID:          string(d.ID),
		Title:       d.Title,
		Company:     d.Company,
		Location:    d.Location,
		Description: d.Description,
		SalaryMin:   d.SalaryMin,
		SalaryMax:   d.SalaryMax,
		Skills:      d.Skills,
		PostedAt:    d.PostedAt,
	}
}
