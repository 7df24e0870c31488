package server

import (
	"camera-ingest/constant"
	"camera-ingest/dto"
	"camera-ingest/entities"
	"camera-ingest/pkg/traffic"
	"camera-ingest/service"
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"net/http"
)

// Notifier delivers a composed alert.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, message string) error
}

type API struct {
	Directory *service.Directory
	Sessions  *service.SessionStore
	Ingest    service.Service
	Composer  *service.Composer
	Notifier  Notifier
}

// NewRouter registers every route on a fresh engine. Handlers log through the
// zerolog logger carried by base.
func NewRouter(base context.Context, api *API) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), withLogger(base))
	addHealth(r)

	cameras := r.Group("/cameras")
	cameras.GET("", api.searchCameras)
	cameras.GET("/:id", api.getCamera)
	cameras.GET("/:id/signs", api.getCameraSigns)

	sessions := r.Group("/sessions")
	sessions.POST("", api.createSession)
	sessions.GET("/:id", api.getSession)
	sessions.POST("/:id/search", api.searchSession)
	sessions.PUT("/:id/camera", api.selectCamera)
	sessions.GET("/:id/signs", api.getSessionSigns)
	sessions.POST("/:id/recordings", api.startRecording)

	r.GET("/jobs/:id", api.getJob)
	r.POST("/notifications/compose", api.compose)
	return r
}

func withLogger(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		l := logger.With().Str("method", c.Request.Method).Str("path", c.FullPath()).Logger()
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
		c.Next()
	}
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

func statusFor(err error) int {
	var dateErr *service.DateParseError
	switch {
	case errors.Is(err, service.ErrCameraNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoCameraSelected), errors.Is(err, service.ErrRecordingInProgress):
		return http.StatusConflict
	case errors.Is(err, traffic.ErrUnavailable), errors.Is(err, traffic.ErrUnauthorized):
		return http.StatusBadGateway
	case errors.As(err, &dateErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (a *API) searchCameras(c *gin.Context) {
	cameras, err := a.Directory.Search(c.Request.Context(), c.Query("road"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, cameras)
}

func (a *API) getCamera(c *gin.Context) {
	camera, err := a.Directory.Camera(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, camera)
}

func (a *API) getCameraSigns(c *gin.Context) {
	camera, err := a.Directory.Camera(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	a.respondSigns(c, &camera)
}

func (a *API) respondSigns(c *gin.Context, camera *entities.Camera) {
	signs, err := a.Directory.AssociatedSigns(c.Request.Context(), camera)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"signs":  signs,
		"report": service.FormatSigns(camera, signs),
	})
}

func (a *API) session(c *gin.Context) (*service.Session, bool) {
	session, found := a.Sessions.Get(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}

func (a *API) createSession(c *gin.Context) {
	session := a.Sessions.Create()
	c.JSON(http.StatusCreated, session.View())
}

func (a *API) getSession(c *gin.Context) {
	session, ok := a.session(c)
	if !ok {
		return
	}

	view := session.View()
	if view.LastJobId != nil && !view.Uploaded {
		job, err := a.Ingest.FindJob(c.Request.Context(), *view.LastJobId)
		if err == nil && job.Status == constant.JobStatusCompleted {
			session.MarkUploaded()
			view = session.View()
		}
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) searchSession(c *gin.Context) {
	session, ok := a.session(c)
	if !ok {
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cameras, err := a.Directory.Search(c.Request.Context(), req.Road)
	if err != nil {
		abort(c, err)
		return
	}
	session.SetCameras(cameras)
	c.JSON(http.StatusOK, session.View())
}

func (a *API) selectCamera(c *gin.Context) {
	session, ok := a.session(c)
	if !ok {
		return
	}

	var req dto.SelectCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	camera, err := session.Select(req.Index)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"camera": camera,
		"detail": service.FormatCamera(camera),
	})
}

func (a *API) getSessionSigns(c *gin.Context) {
	session, ok := a.session(c)
	if !ok {
		return
	}

	camera, err := session.Selected()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"signs":  []entities.Sign{},
			"report": service.FormatSigns(nil, nil),
		})
		return
	}
	a.respondSigns(c, camera)
}

func (a *API) startRecording(c *gin.Context) {
	session, ok := a.session(c)
	if !ok {
		return
	}

	var req dto.StartRecordingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}

	camera, err := session.Selected()
	if err != nil {
		abort(c, err)
		return
	}

	job, err := a.Ingest.Submit(c.Request.Context(), camera.ID, req.DurationSeconds, req.ExtractFPS)
	if err != nil {
		abort(c, err)
		return
	}
	session.MarkJob(job.ID)

	c.JSON(http.StatusAccepted, dto.StartRecordingResponse{
		JobId:  job.ID,
		Status: string(job.Status),
	})
}

func (a *API) getJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return
	}

	detail, err := a.Ingest.JobDetail(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (a *API) compose(c *gin.Context) {
	var req dto.ComposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	message, err := a.Composer.Compose(c.Request.Context(), req.Row)
	if err != nil {
		abort(c, err)
		return
	}

	resp := dto.ComposeResponse{Message: message}
	if req.Send && a.Notifier != nil && a.Notifier.Enabled() {
		if err := a.Notifier.Send(c.Request.Context(), message); err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to send alert")
		} else {
			resp.Sent = true
		}
	}
	c.JSON(http.StatusOK, resp)
}
