package backendtest

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"

	"citizen-portal/internal/domain"
)

type handlers struct{ s *Server }

// --- auth ---

func (h *handlers) signup(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		DOB      string `json:"dob"`
		Mobile   string `json:"mobile"`
		Gender   string `json:"gender"`
		Caste    string `json:"caste"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil || req.Mobile == "" || req.Password == "" {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.state.userByMobile(req.Mobile) != nil {
		return message(c, http.StatusBadRequest, "Mobile already registered")
	}
	h.s.state.users = append(h.s.state.users, &user{
		ID: newID(), Name: req.Name, Mobile: req.Mobile, Password: req.Password,
		Gender: req.Gender, DOB: req.DOB, Caste: req.Caste, Role: domain.RoleUser,
		Documents: map[string]string{},
	})
	return message(c, http.StatusCreated, "User registered successfully")
}

func (h *handlers) login(c echo.Context) error {
	var req struct {
		Mobile   string `json:"mobile"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	h.s.mu.Lock()
	u := h.s.state.userByMobile(req.Mobile)
	h.s.mu.Unlock()
	if u == nil || u.Password != req.Password {
		return message(c, http.StatusBadRequest, "Invalid credentials")
	}
	return c.JSON(http.StatusOK, map[string]any{"token": h.s.mint(u), "user": u.summary()})
}

func (h *handlers) sendOTP(c echo.Context) error {
	var req struct {
		Mobile string `json:"mobile"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.state.userByMobile(req.Mobile) == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	h.s.state.otps[req.Mobile] = FixedOTP
	return message(c, http.StatusOK, "OTP sent")
}

func (h *handlers) resetPassword(c echo.Context) error {
	var req struct {
		Mobile      string `json:"mobile"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if otp, ok := h.s.state.otps[req.Mobile]; !ok || otp != req.OTP {
		return message(c, http.StatusBadRequest, "Invalid or expired OTP")
	}
	u := h.s.state.userByMobile(req.Mobile)
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	u.Password = req.NewPassword
	delete(h.s.state.otps, req.Mobile)
	return message(c, http.StatusOK, "Password reset successful")
}

// --- users ---

func (h *handlers) me(c echo.Context) error {
	return h.profileOf(c, callerID(c))
}

func (h *handlers) profile(c echo.Context) error {
	id := c.Param("id")
	if id != callerID(c) && callerRole(c) == domain.RoleUser {
		return message(c, http.StatusForbidden, "Access denied")
	}
	return h.profileOf(c, id)
}

func (h *handlers) profileOf(c echo.Context, id string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	u := h.s.state.userByID(id)
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, u.profile())
}

func (h *handlers) listUsers(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	out := make([]map[string]any, 0, len(h.s.state.users))
	for _, u := range h.s.state.users {
		out = append(out, u.summary())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) changeRole(c echo.Context) error {
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil || !req.Role.Valid() {
		return message(c, http.StatusBadRequest, "Invalid role")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	u := h.s.state.userByID(c.Param("id"))
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	u.Role = req.Role
	return message(c, http.StatusOK, "Role updated")
}

func (h *handlers) updateProfile(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return message(c, http.StatusBadRequest, "Expected multipart form")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	u := h.s.state.userByID(callerID(c))
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	if v := first(form.Value["name"]); v != "" {
		u.Name = v
	}
	if v := first(form.Value["gender"]); v != "" {
		u.Gender = v
	}
	if v := first(form.Value["dob"]); v != "" {
		u.DOB = v
	}
	for field, headers := range form.File {
		if field != "profilePic" && !domain.DocumentField(field).Valid() {
			return message(c, http.StatusBadRequest, "Unknown document "+field)
		}
		name, err := h.s.saveLocked(headers[0])
		if err != nil {
			return message(c, http.StatusBadRequest, err.Error())
		}
		u.Documents[field] = name
	}
	return c.JSON(http.StatusOK, map[string]any{"user": u.profile()})
}

func (h *handlers) deleteOwnDocument(c echo.Context) error {
	return h.deleteDocument(c, callerID(c), c.Param("field"))
}

func (h *handlers) deleteUserDocument(c echo.Context) error {
	return h.deleteDocument(c, c.Param("userId"), c.Param("field"))
}

func (h *handlers) deleteDocument(c echo.Context, userID, field string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	u := h.s.state.userByID(userID)
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	if _, ok := u.Documents[field]; !ok {
		return message(c, http.StatusNotFound, "Document not found")
	}
	delete(h.s.state.files, u.Documents[field])
	delete(u.Documents, field)
	return c.JSON(http.StatusOK, map[string]any{"message": "Document deleted", "user": u.profile()})
}

// --- services ---

func (h *handlers) listServices(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]domain.Service{}, h.s.state.services...))
}

func (h *handlers) createService(c echo.Context) error {
	var svc domain.Service
	if err := c.Bind(&svc); err != nil || strings.TrimSpace(svc.Name) == "" {
		return message(c, http.StatusBadRequest, "Service name is required")
	}
	svc.ID = newID()
	h.s.mu.Lock()
	h.s.state.services = append(h.s.state.services, svc)
	h.s.mu.Unlock()
	return c.JSON(http.StatusCreated, svc)
}

func (h *handlers) updateService(c echo.Context) error {
	var svc domain.Service
	if err := c.Bind(&svc); err != nil {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	i := h.s.state.serviceIndex(c.Param("id"))
	if i < 0 {
		return message(c, http.StatusNotFound, "Service not found")
	}
	svc.ID = c.Param("id")
	h.s.state.services[i] = svc
	return c.JSON(http.StatusOK, svc)
}

func (h *handlers) deleteService(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	i := h.s.state.serviceIndex(c.Param("id"))
	if i < 0 {
		return message(c, http.StatusNotFound, "Service not found")
	}
	h.s.state.services = slices.Delete(h.s.state.services, i, i+1)
	return message(c, http.StatusOK, "Service deleted")
}

// --- applications ---

func (h *handlers) listApplications(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	out := make([]map[string]any, 0, len(h.s.state.apps))
	for _, a := range h.s.state.apps {
		out = append(out, h.s.state.appJSON(a))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) myApplications(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	out := []map[string]any{}
	for _, a := range h.s.state.apps {
		if a.UserID == callerID(c) {
			out = append(out, h.s.state.appJSON(a))
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handlers) submitApplication(c echo.Context) error {
	var req struct {
		ServiceID string `json:"serviceId"`
		UserID    string `json:"userId"`
	}
	if err := c.Bind(&req); err != nil || req.ServiceID == "" {
		return message(c, http.StatusBadRequest, "Service is required")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.s.state.serviceIndex(req.ServiceID) < 0 {
		return message(c, http.StatusNotFound, "Service not found")
	}
	now := h.s.now()
	a := &application{ID: newID(), UserID: callerID(c), ServiceID: req.ServiceID, Status: domain.StatusSubmitted, CreatedAt: now, UpdatedAt: now}
	h.s.state.apps = append(h.s.state.apps, a)
	h.s.publishLocked("newApplication", a.ID)
	return c.JSON(http.StatusCreated, h.s.state.appJSON(a))
}

// transition applies fn to the application under the lock and publishes
// the given events when fn succeeds.
func (h *handlers) transition(c echo.Context, fn func(a *application) (int, string), events ...string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	a := h.s.state.appByID(c.Param("id"))
	if a == nil {
		return message(c, http.StatusNotFound, "Application not found")
	}
	if status, msg := fn(a); status != http.StatusOK {
		return message(c, status, msg)
	}
	a.UpdatedAt = h.s.now()
	for _, ev := range events {
		h.s.publishLocked(ev, a.ID)
	}
	return c.JSON(http.StatusOK, h.s.state.appJSON(a))
}

func (h *handlers) confirm(c echo.Context) error {
	return h.transition(c, func(a *application) (int, string) {
		if a.UserID != callerID(c) {
			return http.StatusForbidden, "Access denied"
		}
		if a.Status != domain.StatusPendingConfirmation {
			return http.StatusBadRequest, "Application is not awaiting confirmation"
		}
		a.Status = domain.StatusConfirmed
		return http.StatusOK, ""
	}, "applicationUpdated", "applicationStatusUpdated")
}

func (h *handlers) correction(c echo.Context) error {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Comment) == "" {
		return message(c, http.StatusBadRequest, "Comment is required")
	}
	return h.transition(c, func(a *application) (int, string) {
		if a.Status != domain.StatusPendingConfirmation {
			return http.StatusBadRequest, "Application is not awaiting confirmation"
		}
		a.CorrectionComment = req.Comment
		a.Status = domain.StatusInReview
		return http.StatusOK, ""
	}, "applicationUpdated", "applicationStatusUpdated")
}

func (h *handlers) reject(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		return message(c, http.StatusBadRequest, "Reason is required")
	}
	return h.transition(c, func(a *application) (int, string) {
		if a.Status.Terminal() {
			return http.StatusBadRequest, "Application is already closed"
		}
		a.RejectReason = req.Reason
		a.Status = domain.StatusRejected
		return http.StatusOK, ""
	}, "applicationRejected", "applicationStatusUpdated")
}

func (h *handlers) setStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid payload")
	}
	st, ok := domain.ParseStatus(req.Status)
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid status")
	}
	return h.transition(c, func(a *application) (int, string) {
		a.Status = st
		return http.StatusOK, ""
	}, "applicationUpdated", "applicationStatusUpdated")
}

func (h *handlers) uploadFormPDF(c echo.Context) error {
	fh, err := c.FormFile("formPdf")
	if err != nil {
		return message(c, http.StatusBadRequest, "No file uploaded")
	}
	return h.transition(c, func(a *application) (int, string) {
		name, err := h.s.saveLocked(fh)
		if err != nil {
			return http.StatusBadRequest, err.Error()
		}
		a.FormPDF = name
		a.Status = domain.StatusPendingConfirmation
		return http.StatusOK, ""
	}, "formPdfUploaded", "applicationStatusUpdated")
}

func (h *handlers) uploadCertificate(c echo.Context) error {
	fh, err := c.FormFile("certificate")
	if err != nil {
		return message(c, http.StatusBadRequest, "No file uploaded")
	}
	return h.transition(c, func(a *application) (int, string) {
		name, err := h.s.saveLocked(fh)
		if err != nil {
			return http.StatusBadRequest, err.Error()
		}
		a.Certificate = name
		a.Status = domain.StatusCompleted
		return http.StatusOK, ""
	}, "certificateUploaded", "applicationStatusUpdated")
}

func (h *handlers) downloadAll(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	u := h.s.state.userByID(c.Param("id"))
	if u == nil {
		return message(c, http.StatusNotFound, "User not found")
	}
	if len(u.Documents) == 0 {
		return message(c, http.StatusNotFound, "No documents found")
	}
	return message(c, http.StatusOK, fmt.Sprintf("%d documents of %s downloaded", len(u.Documents), u.Name))
}

// --- notices and hero slides ---

func (h *handlers) listNotices(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]domain.Notice{}, h.s.state.notices...))
}

func (h *handlers) createNotice(c echo.Context) error {
	var n domain.Notice
	if err := c.Bind(&n); err != nil || strings.TrimSpace(n.Title) == "" {
		return message(c, http.StatusBadRequest, "Title is required")
	}
	n.ID, n.CreatedAt = newID(), h.s.now()
	h.s.mu.Lock()
	h.s.state.notices = append(h.s.state.notices, n)
	h.s.mu.Unlock()
	return c.JSON(http.StatusCreated, n)
}

func (h *handlers) updateNotice(c echo.Context) error {
	var req domain.Notice
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return message(c, http.StatusBadRequest, "Title is required")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	for i := range h.s.state.notices {
		if h.s.state.notices[i].ID == c.Param("id") {
			h.s.state.notices[i].Title = req.Title
			return c.JSON(http.StatusOK, h.s.state.notices[i])
		}
	}
	return message(c, http.StatusNotFound, "Notice not found")
}

func (h *handlers) deleteNotice(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	before := len(h.s.state.notices)
	h.s.state.notices = slices.DeleteFunc(h.s.state.notices, func(n domain.Notice) bool { return n.ID == c.Param("id") })
	if len(h.s.state.notices) == before {
		return message(c, http.StatusNotFound, "Notice not found")
	}
	return message(c, http.StatusOK, "Notice deleted")
}

func (h *handlers) listSlides(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]domain.HeroSlide{}, h.s.state.slides...))
}

func (h *handlers) createSlide(c echo.Context) error {
	title, subtitle := c.FormValue("title"), c.FormValue("subtitle")
	fh, err := c.FormFile("image")
	if err != nil || title == "" || subtitle == "" {
		return message(c, http.StatusBadRequest, "Title, subtitle and image are required")
	}
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	name, err := h.s.saveLocked(fh)
	if err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	slide := domain.HeroSlide{ID: newID(), Title: title, Subtitle: subtitle, Image: &domain.FileRef{Filename: name}}
	h.s.state.slides = append(h.s.state.slides, slide)
	return c.JSON(http.StatusCreated, slide)
}

func (h *handlers) deleteSlide(c echo.Context) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	before := len(h.s.state.slides)
	h.s.state.slides = slices.DeleteFunc(h.s.state.slides, func(s domain.HeroSlide) bool { return s.ID == c.Param("id") })
	if len(h.s.state.slides) == before {
		return message(c, http.StatusNotFound, "Slide not found")
	}
	return message(c, http.StatusOK, "Slide deleted")
}

// --- files and events ---

func (h *handlers) file(c echo.Context) error {
	h.s.mu.Lock()
	data, ok := h.s.state.files[c.Param("name")]
	h.s.mu.Unlock()
	if !ok {
		return message(c, http.StatusNotFound, "File not found")
	}
	return c.Blob(http.StatusOK, http.DetectContentType(data), data)
}

// events streams pushes as text/event-stream until the client leaves.
func (h *handlers) events(c echo.Context) error {
	want := splitNames(c.QueryParam("events"))
	ch := h.s.subscribe()
	defer h.s.unsubscribe(ch)

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if want != nil && !want[ev.name] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: {\"id\":%q}\n\n", ev.name, ev.data)
			w.Flush()
		}
	}
}

// saveLocked stores an uploaded file under a fresh name.
func (s *Server) saveLocked(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	name := newID() + strings.ToLower(filepath.Ext(fh.Filename))
	s.state.files[name] = data
	return name, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
