package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			attempts++
			if attempts <= 2 {
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
		}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var result map[string]string
	err := c.Get(context.Background(), "/ping/", &result)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "yes", result["ok"])
}

func TestRateLimitExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
	defer srv.Close()

	c := NewClient(srv.URL)

	err := c.Get(context.Background(), "/ping/", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestUnauthorizedReturnsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
	defer srv.Close()

	c := NewClient(srv.URL)

	err := c.Get(context.Background(), "/auth/me/", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{
				Detail: "cover letter is required",
			})
		}))
	defer srv.Close()

	c := NewClient(srv.URL)

	err := c.Post(context.Background(), "/jobs/1/apply/", struct{}{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cover letter is required")
	assert.False(t, IsAuthError(err))
}

func TestBearerTokenHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte("{}"))
		}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.SetToken("tok-123")

	require.NoError(t, c.Get(context.Background(), "/auth/me/", nil))
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestJobsBuildsQuery(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			json.NewEncoder(w).Encode(jobListResponse{
				Results: []jobDTO{{ID: "1", Title: "Go Engineer"}},
				Total:   42,
			})
		}))
	defer srv.Close()

	c := NewClient(srv.URL)

	jobs, total, err := c.Jobs(context.Background(), JobFilter{
		Query:    "golang",
		Ordering: "-posted_at",
		Page:     2,
		PageSize: 25,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"golang"}, gotQuery["q"])
	assert.Equal(t, []string{"-posted_at"}, gotQuery["ordering"])
	assert.Equal(t, []string{"2"}, gotQuery["page"])
	assert.Equal(t, []string{"25"}, gotQuery["page_size"])

	require.Len(t, jobs, 1)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, 42, total)
}

func TestFlexIDAcceptsStringAndNumber(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "string id", payload: `"abc-1"`, want: "abc-1"},
		{name: "numeric id", payload: `123`, want: "123"},
		{name: "large numeric id", payload: `9007199254740993`, want: "9007199254740993"},
		{name: "boolean rejected", payload: `true`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id flexID
			err := json.Unmarshal([]byte(tt.payload), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(id))
		})
	}
}

func TestNotificationFeedsMapKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/alerts/job-notifications/":
				w.Write([]byte(`[
					{"id": 7, "is_read": false,
					 "created_at": "2026-03-01T12:00:00Z",
					 "job_id": "42", "job_title": "Go Engineer"}
				]`))
			case "/alerts/application-status-notifications/":
				w.Write([]byte(`[
					{"id": "n-1", "is_read": true,
					 "created_at": "2026-03-01T11:00:00Z",
					 "message": "Shortlisted", "application_id": 9}
				]`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	jobs, err := c.JobNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "7", jobs[0].ID)
	assert.Equal(t, "Go Engineer", jobs[0].JobTitle)
	assert.False(t, jobs[0].Read)

	apps, err := c.ApplicationNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "n-1", apps[0].ID)
	assert.Equal(t, "9", apps[0].ApplicationID)
	assert.True(t, apps[0].Read)
}
