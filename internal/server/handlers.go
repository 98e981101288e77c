package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/Tiliavir/litt/internal/app"
	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/ledger"
	"github.com/Tiliavir/litt/internal/model"
	"github.com/Tiliavir/litt/internal/query"
)

// execute runs one command under the server lock and writes its output, or
// the classified error, as the response.
func (s *Server) execute(c *gin.Context, csv bool, run func(out app.Output) error) {
	format := c.Query("output_format")

	var buf bytes.Buffer
	s.mu.Lock()
	err := run(app.Output{W: &buf, Format: format})
	s.mu.Unlock()

	if err != nil && !failure.IsKind(err, failure.DryRun) {
		s.fail(c, err)
		return
	}
	c.Header(ExitCodeHeader, exitCodeString(failure.ExitCode(err)))
	c.Data(failure.HTTPStatus(err), contentType(format, csv), buf.Bytes())
}

func (s *Server) fail(c *gin.Context, err error) {
	c.Header(ExitCodeHeader, exitCodeString(failure.ExitCode(err)))
	c.JSON(failure.HTTPStatus(err), gin.H{
		"error":     err.Error(),
		"kind":      failure.KindOf(err).String(),
		"exit_code": failure.ExitCode(err),
	})
}

func contentType(format string, csv bool) string {
	switch {
	case csv:
		return "text/csv; charset=utf-8"
	case format == model.FormatJSON || format == model.FormatJSONCompact:
		return "application/json; charset=utf-8"
	case format == model.FormatYAML:
		return "application/yaml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	s.execute(c, false, func(out app.Output) error {
		return s.app.Status(c.Request.Context(), out)
	})
}

func (s *Server) handleList(c *gin.Context) {
	req, err := listRequest(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, req.CSV, func(out app.Output) error {
		return s.app.List(c.Request.Context(), req, out)
	})
}

type inputCommand func(ctx context.Context, in ledger.Input, out app.Output) error

func (s *Server) withInput(c *gin.Context, cmd inputCommand) {
	in, err := recordInput(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.execute(c, false, func(out app.Output) error {
		return cmd(c.Request.Context(), in, out)
	})
}

func (s *Server) handleToggle(c *gin.Context)    { s.withInput(c, s.app.Toggle) }
func (s *Server) handleStart(c *gin.Context)     { s.withInput(c, s.app.Start) }
func (s *Server) handleStop(c *gin.Context)      { s.withInput(c, s.app.Stop) }
func (s *Server) handleInterrupt(c *gin.Context) { s.withInput(c, s.app.Interrupt) }
func (s *Server) handleResume(c *gin.Context)    { s.withInput(c, s.app.Resume) }
func (s *Server) handleTrack(c *gin.Context)     { s.withInput(c, s.app.Track) }
func (s *Server) handleAmend(c *gin.Context)     { s.withInput(c, s.app.Amend) }

func (s *Server) handleCancel(c *gin.Context) {
	s.execute(c, false, func(out app.Output) error {
		return s.app.Cancel(c.Request.Context(), out)
	})
}

// listRequest reads the ls parameters. List-valued and boolean parameters
// are JSON encoded, e.g. ?id=["a","b"]&csv=true.
func listRequest(c *gin.Context) (app.ListRequest, error) {
	var req app.ListRequest
	var err error
	if req.IDs, err = jsonList(c, "id"); err != nil {
		return req, err
	}
	if id := c.Param("id"); id != "" {
		req.IDs = append(req.IDs, id)
	}
	if raw, ok := c.GetQuery("filter"); ok {
		var sieves []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &sieves); err != nil {
			return req, failure.Wrap(failure.InvalidFilter, err, "filter must be a JSON list of filter objects")
		}
		for _, data := range sieves {
			sieve, err := query.ParseSieve(data)
			if err != nil {
				return req, err
			}
			req.Sieves = append(req.Sieves, sieve)
		}
	}
	req.SortBy = c.DefaultQuery("sort_by", query.DefaultSortKey)
	if req.CSV, err = jsonBool(c, "csv"); err != nil {
		return req, err
	}
	if req.WithStructuredData, err = jsonBool(c, "with_structured_data"); err != nil {
		return req, err
	}
	if req.WithoutDetail, err = jsonBool(c, "without_detail"); err != nil {
		return req, err
	}
	return req, nil
}

// recordInput reads the parameters shared by the record commands. A :q path
// segment takes precedence over the quicktext parameter.
func recordInput(c *gin.Context) (ledger.Input, error) {
	in := ledger.Input{
		QuickText:      optional(c, "quicktext"),
		Alias:          optional(c, "alias"),
		Description:    optional(c, "description"),
		Detail:         optional(c, "detail"),
		StructuredData: optional(c, "structured_data"),
		StartTime:      optional(c, "start_time"),
		EndTime:        optional(c, "end_time"),
		ID:             c.Query("id"),
	}
	if q := c.Param("q"); q != "" {
		in.QuickText = &q
	}
	var err error
	if in.Tags, err = jsonList(c, "tag"); err != nil {
		return in, err
	}
	if in.Untag, err = jsonList(c, "untag"); err != nil {
		return in, err
	}
	if in.DryRun, err = jsonBool(c, "dryrun"); err != nil {
		return in, err
	}
	return in, nil
}

func optional(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok {
		return &v
	}
	return nil
}

func jsonList(c *gin.Context, key string) ([]string, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, failure.Wrap(failure.InvalidArgument, err, "%s must be a JSON list of strings", key)
	}
	return out, nil
}

func jsonBool(c *gin.Context, key string) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return false, nil
	}
	var out bool
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return false, failure.Wrap(failure.InvalidArgument, err, "%s must be true or false", key)
	}
	return out, nil
}
