package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"diagram2terraform/internal/session"
	"diagram2terraform/internal/terraform"
	"diagram2terraform/internal/workflow"
)

type sessionResponse struct {
	ID    string                 `json:"id"`
	State workflow.State         `json:"state"`
	Theme terraform.ProviderInfo `json:"theme"`
}

type providerRequest struct {
	Provider string `json:"provider"`
}

type tagRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	return stateResponse(sess.ID, sess.Workflow.State())
}

func stateResponse(id string, st workflow.State) sessionResponse {
	return sessionResponse{
		ID:    id,
		State: st,
		Theme: terraform.Describe(st.Provider),
	}
}

func (s *Server) lookup(c echo.Context) (*session.Session, error) {
	id := c.Param("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return sess, nil
}

func (s *Server) handleCreateSession(c echo.Context) error {
	sess := s.sessions.Create()
	s.logger.Info("session created", "session", sess.ID)
	return c.JSON(http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	s.sessions.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleSetImage(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, s.maxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		return NewBadRequestError("missing image", err)
	}

	img, err := readImage(header)
	if err != nil {
		return NewValidationError(err.Error())
	}

	if err := sess.Workflow.SetImage(img); err != nil {
		st := sess.Workflow.State()
		return fromWorkflowError(err, &st)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleClearImage(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	sess.Workflow.ClearImage()
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleSetProvider(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req providerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	provider, ok := terraform.ParseProvider(req.Provider)
	if !ok {
		return NewValidationError("provider must be one of AWS, GCP, Azure")
	}

	if err := sess.Workflow.SetProvider(provider); err != nil {
		st := sess.Workflow.State()
		return fromWorkflowError(err, &st)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleAddTag(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if err := sess.Workflow.AddTag(req.Key, req.Value); err != nil {
		st := sess.Workflow.State()
		return fromWorkflowError(err, &st)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleRemoveTag(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	key := c.Param("key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		key = unescaped
	}

	sess.Workflow.RemoveTag(key)
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleGenerate(c echo.Context) error {
	sess, err := s.lookup(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	st, err := sess.Workflow.Generate(ctx)
	if err != nil {
		return fromWorkflowError(err, &st)
	}
	return c.JSON(http.StatusOK, stateResponse(sess.ID, st))
}
