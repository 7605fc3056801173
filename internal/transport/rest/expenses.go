package rest

import (
	"net/http"
	"strconv"
)

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Expenses == nil {
		unavailable(w)
		return
	}
	expenseID, err := pathID(r, "expense_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.Expenses.Get(r.Context(), ownerID, expenseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toExpenseResponse(view))
}

func (h *Handler) expenseSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Expenses == nil {
		unavailable(w)
		return
	}

	year := h.today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			ErrorBadRequest(w, "year must be a four digit year")
			return
		}
		year = y
	}

	sum, err := h.Expenses.Summary(r.Context(), ownerID, year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", sum)
}

func (h *Handler) dashboardStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Dashboard == nil {
		unavailable(w)
		return
	}

	stats, err := h.Dashboard.Stats(r.Context(), ownerID, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toDashboardResponse(stats))
}
