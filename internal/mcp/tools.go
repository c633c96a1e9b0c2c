package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/progression"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// unitArg reads the optional "unit" argument.
func (h *handlers) unitArg(req mcp.CallToolRequest) (progression.Unit, error) {
	raw := req.GetString("unit", "")
	if raw == "" {
		return h.units, nil
	}
	return progression.ParseUnit(raw)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// --- Tool definitions ---

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Return the training program: plans, days, and per-exercise prescriptions (scheme, set and rep ranges, current phase). Use prescription ids from here with the other tools."),
)

var toolGetLastPerformance = mcp.NewTool("get_last_performance",
	mcp.WithDescription("Sets logged for a prescription in the most recent session it was trained, ordered by set number."),
	mcp.WithNumber("prescription_id", mcp.Required(), mcp.Description("Prescription id")),
)

var toolSuggestProgression = mcp.NewTool("suggest_progression",
	mcp.WithDescription("Progression suggestions for the next session of a prescription, based on its last performance and baselines. Each suggestion has a type (add_reps, improve_quality, add_weight, maintain, establish_baseline), targets, confidence and rationale."),
	mcp.WithNumber("prescription_id", mcp.Required(), mcp.Description("Prescription id")),
	mcp.WithString("unit", mcp.Description("Weight unit for target weights. Defaults to the server setting."), mcp.Enum("kg", "lb")),
)

var toolGetSessionStats = mcp.NewTool("get_session_stats",
	mcp.WithDescription("Volume, working sets, best set and estimated one-rep max for a session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id (UUID)")),
	mcp.WithString("unit", mcp.Description("Weight unit. Defaults to the server setting."), mcp.Enum("kg", "lb")),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("List training sessions started in a time range, newest first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
)

var toolGetTrainingSummary = mcp.NewTool("get_training_summary",
	mcp.WithDescription("Weekly or monthly training volume: sessions, working sets, reps and volume (net load x reps, warmups excluded)."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 6 months ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("bucket", mcp.Description("Aggregation period. Defaults to '1 week'."), mcp.Enum("1 week", "1 month")),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate a one-rep max from a weight and rep count using the Epley formula."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight lifted")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Reps performed")),
)

// --- Tool handlers ---

func (h *handlers) getProgram(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.ListPrograms(ctx)
	if err != nil {
		h.log.Error("mcp get_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func (h *handlers) getLastPerformance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("prescription_id")
	if err != nil {
		return mcp.NewToolResultError("prescription_id parameter is required"), nil
	}
	sets, err := h.ds.LastPerformance(ctx, id, uuid.Nil)
	if err != nil {
		h.log.Error("mcp get_last_performance", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sets == nil {
		sets = []models.SetLog{}
	}
	return jsonResult(sets)
}

func (h *handlers) suggestProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("prescription_id")
	if err != nil {
		return mcp.NewToolResultError("prescription_id parameter is required"), nil
	}
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rx, err := h.ds.GetPrescription(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("prescription lookup failed: " + err.Error()), nil
	}
	last, err := h.ds.LastPerformance(ctx, id, uuid.Nil)
	if err != nil {
		h.log.Error("mcp suggest_progression", "step", "last_performance", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	baselines, err := h.ds.ListBaselines(ctx, id, rx.CurrentPhaseReps)
	if err != nil {
		h.log.Error("mcp suggest_progression", "step", "baselines", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	suggestions := progression.Suggest(rx.Scheme, last, *rx, progression.Baselines(baselines))
	return jsonResult(map[string]any{
		"prescription": rx,
		"unit":         unit,
		"last_session": len(last) > 0,
		"suggestions":  progression.InUnit(suggestions, unit),
	})
}

func (h *handlers) getSessionStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError("invalid session_id"), nil
	}
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := h.ds.GetSession(ctx, id)
	if err != nil {
		return mcp.NewToolResultError("session lookup failed: " + err.Error()), nil
	}

	byRx := make(map[int][]models.SetLog)
	for _, set := range session.Sets {
		byRx[set.PrescriptionID] = append(byRx[set.PrescriptionID], set)
	}
	perRx := make(map[int]progression.Summary, len(byRx))
	for rxID, sets := range byRx {
		perRx[rxID] = progression.Summarize(sets).InUnit(unit)
	}
	return jsonResult(map[string]any{
		"session":       session.Name,
		"started_at":    session.StartedAt,
		"unit":          unit,
		"total":         progression.Summarize(session.Sets).InUnit(unit),
		"prescriptions": perRx,
	})
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	sessions, err := h.ds.ListSessions(ctx, start, end)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	return jsonResult(sessions)
}

func (h *handlers) getTrainingSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	endStr := req.GetString("end", "")
	startStr := req.GetString("start", "")

	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
		}
	} else {
		start = end.AddDate(0, -6, 0)
	}

	bucket := req.GetString("bucket", "1 week")
	summary, err := h.ds.GetTrainingSummary(ctx, start, end, bucket)
	if err != nil {
		h.log.Error("mcp get_training_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) estimateOneRepMax(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	if weight < 0 || reps < 0 {
		return mcp.NewToolResultError("weight and reps must not be negative"), nil
	}
	return jsonResult(map[string]any{
		"weight": weight,
		"reps":   reps,
		"e1rm":   progression.E1RM(weight, reps),
	})
}
