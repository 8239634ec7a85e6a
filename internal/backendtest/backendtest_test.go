package backendtest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citizen-portal/internal/domain"
)

func do(t *testing.T, s *Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func TestAuthFlow(t *testing.T) {
	s := New(t)

	resp, _ := do(t, s, http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Asha", "mobile": "9876543210", "password": "Secret@1"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := do(t, s, http.MethodPost, "/api/auth/signup", "", map[string]string{"name": "Asha", "mobile": "9876543210", "password": "Secret@1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Mobile already registered", body["message"])

	resp, body = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{"mobile": "9876543210", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", body["message"])

	resp, body = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{"mobile": "9876543210", "password": "Secret@1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, _ = do(t, s, http.MethodPost, "/api/auth/send-otp", "", map[string]string{"mobile": "9876543210"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"mobile": "9876543210", "otp": "000000", "newPassword": "Other@22"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, s, http.MethodPost, "/api/auth/reset-password", "", map[string]string{"mobile": "9876543210", "otp": FixedOTP, "newPassword": "Other@22"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{"mobile": "9876543210", "password": "Other@22"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoleGuards(t *testing.T) {
	s := New(t)
	citizen := s.AddUser("Ravi", "9000000001", "pw", domain.RoleUser, "General")
	admin := s.AddUser("Root", "9000000002", "pw", domain.RoleAdmin, "")

	resp, body := do(t, s, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No token provided", body["message"])

	resp, _ = do(t, s, http.MethodGet, "/api/users", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, s, http.MethodGet, "/api/users", s.Token(citizen), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, s, http.MethodGet, "/api/users", s.Token(admin), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, s, http.MethodGet, "/api/users/"+admin+"/profile", s.Token(citizen), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestApplicationLifecycle(t *testing.T) {
	s := New(t)
	citizen := s.AddUser("Ravi", "9000000001", "pw", domain.RoleUser, "General")
	operator := s.AddUser("Op", "9000000003", "pw", domain.RoleOperator, "")
	svc := s.AddService("Income Certificate", map[string]float64{"General": 50})

	resp, body := do(t, s, http.MethodPost, "/api/applications", s.Token(citizen), map[string]string{"serviceId": svc, "userId": citizen})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["_id"].(string)
	assert.Equal(t, "Income Certificate", body["service"].(map[string]any)["name"])

	resp, _ = do(t, s, http.MethodPut, "/api/applications/"+id+"/confirm", s.Token(citizen), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "confirm needs Pending Confirmation")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("formPdf", "form.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n"))
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPut, s.URL+"/api/applications/"+id+"/upload-pdf", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token(operator))
	up, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	up.Body.Close()
	require.Equal(t, http.StatusOK, up.StatusCode)

	st, _ := s.ApplicationStatus(id)
	assert.Equal(t, domain.StatusPendingConfirmation, st)

	resp, _ = do(t, s, http.MethodPut, "/api/applications/"+id+"/confirm", s.Token(citizen), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st, _ = s.ApplicationStatus(id)
	assert.Equal(t, domain.StatusConfirmed, st)

	resp, _ = do(t, s, http.MethodPut, "/api/applications/"+id+"/reject", s.Token(operator), map[string]string{"reason": "Missing domicile"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = do(t, s, http.MethodPut, "/api/applications/"+id+"/reject", s.Token(operator), map[string]string{"reason": "again"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Application is already closed", body["message"])

	assert.Equal(t, []string{
		"newApplication",
		"formPdfUploaded", "applicationStatusUpdated",
		"applicationUpdated", "applicationStatusUpdated",
		"applicationRejected", "applicationStatusUpdated",
	}, s.Published())
}

func TestEventsStreamFiltersByName(t *testing.T) {
	s := New(t)
	u := s.AddUser("Ravi", "9000000001", "pw", domain.RoleUser, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/api/events?events=newApplication", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.Token(u))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return s.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	s.Publish("certificateUploaded", "a1")
	s.Publish("newApplication", "a2")

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		if line := sc.Text(); strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "data:") {
			lines = append(lines, line)
		}
		if len(lines) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"event: newApplication", `data: {"id":"a2"}`}, lines)

	cancel()
	assert.Eventually(t, func() bool { return s.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestProfileDocuments(t *testing.T) {
	s := New(t)
	u := s.AddUser("Ravi", "9000000001", "pw", domain.RoleUser, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ravi Kumar"))
	part, err := mw.CreateFormFile("domicile", "dom.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n"))
	require.NoError(t, mw.Close())
	req, err := http.NewRequest(http.MethodPut, s.URL+"/api/users/profile", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token(u))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var env struct {
		User domain.Profile `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	resp.Body.Close()
	assert.Equal(t, "Ravi Kumar", env.User.Name)
	require.Contains(t, env.User.Documents, domain.DocDomicile)

	file, err := http.Get(s.URL + "/api/files/" + env.User.Documents[domain.DocDomicile].Filename)
	require.NoError(t, err)
	data, _ := io.ReadAll(file.Body)
	file.Body.Close()
	assert.Equal(t, "%PDF-1.4\n", string(data))

	r, body := do(t, s, http.MethodDelete, "/api/users/profile/document/domicile", s.Token(u), nil)
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.NotContains(t, body["user"], "domicile")

	r, _ = do(t, s, http.MethodDelete, "/api/users/profile/document/domicile", s.Token(u), nil)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}
