// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/dnegrid/internal/api/middleware"
	"github.com/ManuGH/dnegrid/internal/api/problem"
	"github.com/ManuGH/dnegrid/internal/config"
	"github.com/ManuGH/dnegrid/internal/cronexpr"
	"github.com/ManuGH/dnegrid/internal/history"
	"github.com/ManuGH/dnegrid/internal/log"
	"github.com/ManuGH/dnegrid/internal/schema"
	"github.com/ManuGH/dnegrid/internal/selection"
	"github.com/ManuGH/dnegrid/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// HeaderConfigEpoch carries the epoch of the snapshot a response was built from.
const HeaderConfigEpoch = "X-DNE-Config-Epoch"

type reloadResponse struct {
	Epoch  uint64 `json:"epoch"`
	Source string `json:"source"`
}

type schedulerEntry struct {
	Scheduler    schema.Scheduler `json:"scheduler"`
	NextRun      *time.Time       `json:"next_run"`
	NextForceRun *time.Time       `json:"next_force_run"`
}

type schedulersResponse struct {
	Tag        string           `json:"tag"`
	Schedulers []schedulerEntry `json:"schedulers"`
}

type revisionsResponse struct {
	Revisions []history.Revision `json:"revisions"`
}

// handleGetConfig serves the current tree. The ETag is the document digest,
// so it survives restarts and epoch resets.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Current()
	middleware.AddSpanAttributes(r, telemetry.ConfigAttributes(
		snap.Epoch, snap.Source, len(snap.App.DNE.Projects), len(snap.App.DNE.Schedulers))...)

	sum, doc, err := history.Digest(snap.App.DNE)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("failed to encode configuration")
		problem.Internal(w, r)
		return
	}

	etag := `"` + sum + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(HeaderConfigEpoch, strconv.FormatUint(snap.Epoch, 10))
	if etagMatches(r.Header.Values("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeRaw(w, "application/json", doc)
}

// etagMatches applies the weak comparison If-None-Match calls for: any
// listed tag, with or without the W/ prefix, or "*" matches.
func etagMatches(headers []string, etag string) bool {
	for _, h := range headers {
		for _, tag := range strings.Split(h, ",") {
			tag = strings.TrimSpace(tag)
			if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
				return true
			}
		}
	}
	return false
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.Reload(r.Context(), config.SourceAPI)
	if err != nil {
		middleware.AddSpanAttributes(r, telemetry.ErrorAttributes(err, "config_rejected")...)

		var extra map[string]any
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			extra = map[string]any{"issues": verr.Issues}
		}
		problem.Write(w, r, http.StatusUnprocessableEntity, problem.TypeConfigRejected, "Configuration Rejected",
			problem.CodeConfigRejected, err.Error(), extra)
		return
	}

	middleware.AddSpanAttributes(r, telemetry.ConfigAttributes(
		snap.Epoch, snap.Source, len(snap.App.DNE.Projects), len(snap.App.DNE.Schedulers))...)
	w.Header().Set(HeaderConfigEpoch, strconv.FormatUint(snap.Epoch, 10))
	writeJSON(w, r, http.StatusOK, reloadResponse{Epoch: snap.Epoch, Source: snap.Source})
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	q, ok := bindSelectionQuery(w, r)
	if !ok {
		return
	}

	snap := s.source.Current()
	sel, err := selection.Resolve(snap.App.DNE, q, snap.App.BuildFetchLimit)
	if errors.Is(err, selection.ErrNoProject) {
		problem.NotFound(w, r, err.Error())
		return
	}
	if err != nil {
		problem.Internal(w, r)
		return
	}

	middleware.AddSpanAttributes(r, telemetry.SelectionAttributes(sel.Project, sel.Branch, sel.View, sel.Tag)...)
	w.Header().Set(HeaderConfigEpoch, strconv.FormatUint(snap.Epoch, 10))
	writeJSON(w, r, http.StatusOK, sel)
}

func (s *Server) handleSchedulers(w http.ResponseWriter, r *http.Request) {
	q, ok := bindSelectionQuery(w, r)
	if !ok {
		return
	}

	snap := s.source.Current()
	sel, err := selection.Resolve(snap.App.DNE, q, snap.App.BuildFetchLimit)
	if errors.Is(err, selection.ErrNoProject) {
		problem.NotFound(w, r, err.Error())
		return
	}
	if err != nil {
		problem.Internal(w, r)
		return
	}
	middleware.AddSpanAttributes(r, telemetry.SelectionAttributes(sel.Project, sel.Branch, sel.View, sel.Tag)...)

	now := s.now()
	matched := selection.SchedulersFor(snap.App.DNE, sel.Tag)
	resp := schedulersResponse{Tag: sel.Tag, Schedulers: make([]schedulerEntry, 0, len(matched))}
	for _, sched := range matched {
		resp.Schedulers = append(resp.Schedulers, schedulerEntry{
			Scheduler:    sched,
			NextRun:      s.nextRun(r, sched.Name, sched.Cron, now),
			NextForceRun: s.nextRun(r, sched.Name, sched.ForceCron, now),
		})
	}

	w.Header().Set(HeaderConfigEpoch, strconv.FormatUint(snap.Epoch, 10))
	writeJSON(w, r, http.StatusOK, resp)
}

// nextRun returns nil for absent or unparsable expressions. The loader
// rejects bad cron strings, so a parse failure here means the tree was
// swapped in without validation.
func (s *Server) nextRun(r *http.Request, scheduler string, expr *string, from time.Time) *time.Time {
	if expr == nil {
		return nil
	}
	next, err := cronexpr.Next(*expr, from)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Warn().
			Err(err).
			Str(log.FieldScheduler, scheduler).
			Msg("cannot compute next run")
		return nil
	}
	next = next.UTC()
	return &next
}

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeHistoryDisabled(w, r)
		return
	}

	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		problem.InvalidInput(w, r, "limit", err.Error())
		return
	}
	n := history.DefaultListLimit
	if limit != nil {
		if *limit < 1 || *limit > history.MaxListLimit {
			problem.InvalidInput(w, r, "limit", "limit must be between 1 and "+strconv.Itoa(history.MaxListLimit))
			return
		}
		n = *limit
	}

	revs, err := s.history.List(r.Context(), n)
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Msg("failed to list revisions")
		problem.Internal(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, revisionsResponse{Revisions: revs})
}

func (s *Server) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeHistoryDisabled(w, r)
		return
	}

	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		problem.InvalidInput(w, r, "id", err.Error())
		return
	}

	rev, err := s.history.Get(r.Context(), id)
	if errors.Is(err, history.ErrNotFound) {
		problem.NotFound(w, r, "revision "+strconv.FormatInt(id, 10)+" does not exist")
		return
	}
	if err != nil {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).Int64("revision", id).Msg("failed to read revision")
		problem.Internal(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, rev)
}

func writeHistoryDisabled(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusNotFound, problem.TypeHistoryDisabled, "History Disabled",
		problem.CodeHistoryDisabled, history.ErrDisabled.Error()+"; set historyPath to enable it", nil)
}

// bindSelectionQuery reads project, branch, view and length. Length stays
// text so a malformed value falls back to the default instead of failing.
func bindSelectionQuery(w http.ResponseWriter, r *http.Request) (selection.Query, bool) {
	var (
		q                     selection.Query
		project, branch, view *string
	)
	params := r.URL.Query()
	for name, dest := range map[string]**string{
		"project": &project,
		"branch":  &branch,
		"view":    &view,
		"length":  &q.Length,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, params, dest); err != nil {
			problem.InvalidInput(w, r, name, err.Error())
			return selection.Query{}, false
		}
	}
	q.Project = deref(project)
	q.Branch = deref(branch)
	q.View = deref(view)
	return q, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
