package ui

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vardrill/adapters/excel"
	"vardrill/domain/core"
	"vardrill/domain/drill"
	"vardrill/internal/errors"
	"vardrill/internal/filterstack"
	"vardrill/internal/metrics"
	"vardrill/internal/navigation"
	"vardrill/internal/report"
	"vardrill/internal/session"
	"vardrill/internal/variation"
	"vardrill/ui/middleware"
)

// ============================================================================
// REQUESTS
// ============================================================================

// CreateSessionRequest optionally seeds filters from a URL query.
type CreateSessionRequest struct {
	Query string `json:"query"`
}

// DrillRequest is a chart click.
type DrillRequest struct {
	Source   drill.Source  `json:"source"`
	Factor   string        `json:"factor" binding:"required"`
	Values   []drill.Value `json:"values" binding:"required,min=1"`
	Label    string        `json:"label"`
	RowIndex *int          `json:"row_index" binding:"omitempty,min=0"`
}

// HighlightRequest marks a point without filtering.
type HighlightRequest struct {
	Source   drill.Source  `json:"source"`
	Factor   string        `json:"factor"`
	Values   []drill.Value `json:"values"`
	Label    string        `json:"label"`
	RowIndex *int          `json:"row_index" binding:"omitempty,min=0"`
}

// NavigateRequest truncates the path at a breadcrumb.
type NavigateRequest struct {
	ID string `json:"id" binding:"required"`
}

// FilterValuesRequest replaces a factor's selection.
type FilterValuesRequest struct {
	Values []drill.Value `json:"values"`
}

// SettingsRequest switches what a session analyses.
type SettingsRequest struct {
	Outcome     string   `json:"outcome" binding:"required"`
	Factors     []string `json:"factors"`
	StageColumn *string  `json:"stage_column"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleDataset(c *gin.Context) {
	ds := s.manager.Dataset()
	settings := s.manager.Settings()
	c.JSON(http.StatusOK, gin.H{
		"source":            ds.Source,
		"version":           ds.Version.String(),
		"rows":              ds.Len(),
		"columns":           ds.Columns,
		"column_types":      excel.InferColumnTypes(ds),
		"suggested_factors": excel.SuggestFactors(ds, settings.Outcome),
		"outcome":           settings.Outcome,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
			return
		}
	}
	if req.Query == "" {
		req.Query = c.Request.URL.RawQuery
	}

	sess, err := s.manager.Create(c.Request.Context(), strings.TrimPrefix(req.Query, "?"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess.Analyze())
}

func (s *Server) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.Session(c).Analyze())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	sess := middleware.Session(c)
	if err := s.manager.Delete(c.Request.Context(), sess.ID()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDrill(c *gin.Context) {
	var req DrillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	if req.Source == "" {
		req.Source = drill.SourceManual
	}

	sess := middleware.Session(c)
	removed, err := sess.Navigator().Drill(drill.FilterParams{
		Kind:     drill.ActionFilter,
		Source:   req.Source,
		Factor:   req.Factor,
		Values:   req.Values,
		Label:    req.Label,
		RowIndex: req.RowIndex,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAction("drill")
	s.afterTransition(c, sess, gin.H{"removed": removed})
}

func (s *Server) handleHighlight(c *gin.Context) {
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	sess := middleware.Session(c)
	action, err := sess.Navigator().Highlight(drill.FilterParams{
		Source:   req.Source,
		Factor:   req.Factor,
		Values:   req.Values,
		Label:    req.Label,
		RowIndex: req.RowIndex,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAction("highlight")
	s.afterTransition(c, sess, gin.H{"action": action})
}

func (s *Server) handleBack(c *gin.Context) {
	sess := middleware.Session(c)
	sess.Navigator().Back()
	metrics.RecordAction("back")
	s.afterTransition(c, sess, nil)
}

func (s *Server) handleNavigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	id, err := core.ParseActionID(req.ID)
	if err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	sess := middleware.Session(c)
	if err := sess.Navigator().NavigateTo(id); err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAction("navigate")
	s.afterTransition(c, sess, nil)
}

func (s *Server) handleClear(c *gin.Context) {
	sess := middleware.Session(c)
	sess.Navigator().Clear()
	metrics.RecordAction("clear")
	s.afterTransition(c, sess, nil)
}

// stepper is implemented by history adapters that can move themselves.
type stepper interface {
	Back() bool
	Forward() bool
}

func (s *Server) handleHistory(c *gin.Context) {
	sess := middleware.Session(c)
	h, ok := sess.History().(stepper)
	if !ok {
		respondError(c, errors.InvalidInput("session has no history"))
		return
	}

	var moved bool
	switch c.Param("direction") {
	case "back":
		moved = h.Back()
	case "forward":
		moved = h.Forward()
	default:
		respondError(c, errors.InvalidInput("direction must be back or forward"))
		return
	}
	metrics.RecordAction("history_" + c.Param("direction"))
	s.afterTransition(c, sess, gin.H{"moved": moved})
}

func (s *Server) handleSetFilterValues(c *gin.Context) {
	var req FilterValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	sess := middleware.Session(c)
	if err := sess.Navigator().SetFilterValues(c.Param("factor"), req.Values); err != nil {
		respondError(c, err)
		return
	}
	metrics.RecordAction("set_values")
	s.afterTransition(c, sess, nil)
}

func (s *Server) handleRemoveFactor(c *gin.Context) {
	sess := middleware.Session(c)
	sess.Navigator().RemoveFactor(c.Param("factor"))
	metrics.RecordAction("remove")
	s.afterTransition(c, sess, nil)
}

func (s *Server) handleShare(c *gin.Context) {
	sess := middleware.Session(c)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID(),
		"url":        s.shareURL(c, sess),
		"query":      navigation.EncodeQuery(sess.Navigator().OrderedFilters()),
	})
}

func (s *Server) handleReport(c *gin.Context) {
	sess := middleware.Session(c)
	md := report.Markdown(sess.Analyze(), report.Options{
		Title:    c.Query("title"),
		ShareURL: s.shareURL(c, sess),
	})
	if c.DefaultQuery("format", "md") == "html" {
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(md))
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// handleFactor returns the full variance split of one factor within the
// current drill scope.
func (s *Server) handleFactor(c *gin.Context) {
	sess := middleware.Session(c)
	factor := c.Param("factor")
	ds := sess.Dataset()
	if !ds.HasColumn(factor) {
		respondError(c, errors.Wrapf(core.ErrColumnNotFound, "factor %s", factor))
		return
	}

	outcome := sess.Settings().Outcome
	rows := filterstack.ApplyFilters(ds.Rows, sess.Navigator().Filters())
	d, ok := variation.Decompose(rows, factor, outcome)
	resp := gin.H{
		"factor":      factor,
		"outcome":     outcome,
		"rows":        len(rows),
		"group_means": variation.GroupMeans(rows, factor, outcome),
	}
	if ok {
		resp["decomposition"] = d
	} else {
		resp["note"] = core.ErrInsufficientData.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	sess := middleware.Session(c)
	ds := sess.Dataset()
	if !ds.HasColumn(req.Outcome) {
		respondError(c, errors.Wrapf(core.ErrColumnNotFound, "outcome %s", req.Outcome))
		return
	}
	if excel.InferColumnTypes(ds)[req.Outcome] != excel.ColumnNumeric {
		respondError(c, errors.Wrapf(core.ErrInvalidOutcome, "outcome %s", req.Outcome))
		return
	}
	for _, f := range req.Factors {
		if !ds.HasColumn(f) {
			respondError(c, errors.Wrapf(core.ErrColumnNotFound, "factor %s", f))
			return
		}
	}

	settings := sess.Settings()
	settings.Outcome = req.Outcome
	if req.Factors != nil {
		settings.Factors = req.Factors
	}
	if req.StageColumn != nil {
		settings.StageColumn = *req.StageColumn
	}
	sess.UpdateSettings(settings)
	metrics.RecordAction("settings")
	s.afterTransition(c, sess, nil)
}

// afterTransition persists the session and answers with the fresh analysis.
func (s *Server) afterTransition(c *gin.Context, sess *session.Session, extra gin.H) {
	if err := s.manager.Persist(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{"analysis": sess.Analyze()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) shareURL(c *gin.Context, sess *session.Session) string {
	base := s.opts.PublicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return navigation.BuildURL(strings.TrimRight(base, "/")+"/view", sess.Navigator().OrderedFilters(), nil)
}
