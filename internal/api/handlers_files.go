package api

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"diagram2terraform/internal/session"
	"diagram2terraform/internal/terraform"
)

func (s *Server) lookupFile(c echo.Context) (*session.Session, terraform.GeneratedFile, error) {
	sess, err := s.lookup(c)
	if err != nil {
		return nil, terraform.GeneratedFile{}, err
	}

	raw := c.Param("index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		return nil, terraform.GeneratedFile{}, NewBadRequestError("file index must be a number", err)
	}

	file, ok := sess.Workflow.State().File(index)
	if !ok {
		return nil, terraform.GeneratedFile{}, NewNotFoundError("file", raw)
	}
	return sess, file, nil
}

func (s *Server) handleDownloadFile(c echo.Context) error {
	_, file, err := s.lookupFile(c)
	if err != nil {
		return err
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=%q", terraform.FallbackFileName)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(file.Content))
}

func (s *Server) handleFileCopied(c echo.Context) error {
	sess, file, err := s.lookupFile(c)
	if err != nil {
		return err
	}

	if err := sess.Workflow.MarkCopied(file.FileName); err != nil {
		st := sess.Workflow.State()
		return fromWorkflowError(err, &st)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleFileCopyFailed(c echo.Context) error {
	sess, file, err := s.lookupFile(c)
	if err != nil {
		return err
	}

	sess.Workflow.ReportClipboardError(file.FileName)
	return c.JSON(http.StatusOK, newSessionResponse(sess))
}
