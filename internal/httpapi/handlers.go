package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"guardianpaws/internal/blob"
	"guardianpaws/internal/core"
	"guardianpaws/pkg/domain"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Role     domain.Role `json:"role" binding:"required"`
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password"`
	Location string      `json:"location"`
}

type loginRequest struct {
	Role     domain.Role `json:"role" binding:"required"`
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password"`
}

type sessionResponse struct {
	Actor     domain.Actor `json:"actor"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	actor, err := s.svc.Register(c.Request.Context(), core.RegisterInput{
		Role:     req.Role,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Location: req.Location,
	})
	if err != nil {
		failWith(c, err)
		return
	}
	session, err := s.session(actor)
	if err != nil {
		failWith(c, err)
		return
	}
	created(c, session)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	actor, err := s.svc.Authenticate(c.Request.Context(), req.Role, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrForbidden) {
			fail(c, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
			return
		}
		failWith(c, err)
		return
	}
	session, err := s.session(actor)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, session)
}

func (s *Server) session(actor domain.Actor) (sessionResponse, error) {
	token, expires, err := s.tokens.Issue(actor)
	if err != nil {
		return sessionResponse{}, err
	}
	return sessionResponse{Actor: actor, Token: token, ExpiresAt: expires}, nil
}

func (s *Server) me(c *gin.Context) {
	success(c, currentActor(c))
}

func (s *Server) dashboard(c *gin.Context) {
	reports, err := s.svc.Dashboard(c.Request.Context(), currentActor(c))
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, reports)
}

func (s *Server) submitReport(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, "photo is too large", "PHOTO_TOO_LARGE")
			return
		}
		fail(c, http.StatusBadRequest, "expected a multipart form: "+err.Error(), "INVALID_INPUT")
		return
	}
	actor := currentActor(c)

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(c.PostForm("latitude")), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(c.PostForm("longitude")), 64)
	if latErr != nil || lngErr != nil {
		fail(c, http.StatusBadRequest, "latitude and longitude are required numbers", "INVALID_INPUT")
		return
	}
	in := core.SubmitReportInput{
		ReporterID:  actor.ID,
		Description: c.PostForm("description"),
		Location:    domain.Location{Latitude: lat, Longitude: lng},
		PhotoURL:    c.PostForm("photoUrl"),
	}

	file, err := c.FormFile("photo")
	switch {
	case err == nil:
		f, err := file.Open()
		if err != nil {
			failWith(c, fmt.Errorf("open upload: %w", err))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			failWith(c, fmt.Errorf("read upload: %w", err))
			return
		}
		in.Photo = data
		in.PhotoContentType = file.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		fail(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}

	report, err := s.svc.SubmitReport(c.Request.Context(), in)
	if err != nil {
		failWith(c, err)
		return
	}
	created(c, report)
}

func (s *Server) pendingReports(c *gin.Context) {
	success(c, s.svc.ListPendingReports(c.Request.Context()))
}

func (s *Server) myReports(c *gin.Context) {
	actor := currentActor(c)
	switch actor.Role {
	case domain.RoleNGO:
		success(c, s.svc.ListReportsByNGO(c.Request.Context(), actor.ID))
	case domain.RoleReporter:
		success(c, s.svc.ListReportsByReporter(c.Request.Context(), actor.ID))
	default:
		fail(c, http.StatusForbidden, "no reports for this account", "FORBIDDEN")
	}
}

// visibleReport loads the :id report if the current actor may see it.
// Reporters see their own reports; NGOs see pending ones and their own.
func (s *Server) visibleReport(c *gin.Context) (domain.RescueReport, bool) {
	report, err := s.svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return domain.RescueReport{}, false
	}
	actor := currentActor(c)
	allowed := false
	switch actor.Role {
	case domain.RoleReporter:
		allowed = report.ReporterID == actor.ID
	case domain.RoleNGO:
		allowed = report.Status == domain.StatusPending || report.AssignedTo(actor.ID)
	case domain.RoleAdmin:
		allowed = true
	}
	if !allowed {
		fail(c, http.StatusForbidden, "report is not visible to this account", "FORBIDDEN")
		return domain.RescueReport{}, false
	}
	return report, true
}

func (s *Server) getReport(c *gin.Context) {
	if report, ok := s.visibleReport(c); ok {
		success(c, report)
	}
}

func (s *Server) reportPhoto(c *gin.Context) {
	report, ok := s.visibleReport(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	url, err := s.svc.PhotoURL(ctx, report.ID, s.photoURLExpiry)
	if err == nil {
		c.Redirect(http.StatusFound, url)
		return
	}
	if !errors.Is(err, blob.ErrUnsupported) {
		failWith(c, err)
		return
	}
	info, rc, err := s.svc.OpenPhoto(ctx, report.ID)
	if err != nil {
		failWith(c, err)
		return
	}
	defer rc.Close()
	contentType := info.ContentType
	if contentType == "" {
		contentType = report.Photo.ContentType
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Cache-Control": "private, max-age=300",
	})
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	status, ok := domain.ParseReportStatus(req.Status)
	if !ok {
		// Unknown labels are rejected by the lifecycle like any other bad pair.
		status = domain.ReportStatus(req.Status)
	}
	report, err := s.svc.UpdateStatus(c.Request.Context(), c.Param("id"), status, currentActor(c))
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, report)
}

func (s *Server) listMessages(c *gin.Context) {
	report, ok := s.visibleReport(c)
	if !ok {
		return
	}
	success(c, report.Conversation)
}

func (s *Server) appendMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
		return
	}
	msg, err := s.svc.AppendMessage(c.Request.Context(), c.Param("id"), currentActor(c).ID, req.Text)
	if err != nil {
		failWith(c, err)
		return
	}
	created(c, msg)
}

func (s *Server) closeReport(c *gin.Context) {
	report, err := s.svc.CloseReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, report)
}
