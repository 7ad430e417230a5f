package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/goal"
)

type GoalHandler struct {
	goals *goal.Service
}

func NewGoalHandler(goals *goal.Service) *GoalHandler {
	return &GoalHandler{goals: goals}
}

type CreateGoalRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	// Deadline is a YYYY-MM-DD date; empty means no deadline.
	Deadline string `json:"deadline"`
}

// HandleGoals handles GET and POST /api/goals
func (h *GoalHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r, userID)
	case http.MethodPost:
		h.handleCreate(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *GoalHandler) handleList(w http.ResponseWriter, r *http.Request, userID int64) {
	goals, err := h.goals.ListByUserID(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err, "list goals")
		return
	}
	if goals == nil {
		goals = []*goal.Goal{}
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) handleCreate(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateGoalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	params := goal.CreateParams{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse(time.DateOnly, req.Deadline)
		if err != nil {
			writeError(w, http.StatusBadRequest, "deadline must be a YYYY-MM-DD date")
			return
		}
		params.Deadline = &deadline
	}

	g, err := h.goals.Create(r.Context(), params)
	if err != nil {
		writeDomainError(w, err, "create goal")
		return
	}

	writeJSON(w, http.StatusCreated, g)
}
