package rest

import (
	"net/http"

	"locagest/internal/service"
)

func (h *Handler) indexationRequest(w http.ResponseWriter, r *http.Request) (int64, int64, service.IndexationInput, bool) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return 0, 0, service.IndexationInput{}, false
	}
	if h.Indexation == nil {
		unavailable(w)
		return 0, 0, service.IndexationInput{}, false
	}
	leaseID, err := pathID(r, "lease_id")
	if err != nil {
		h.fail(w, r, err)
		return 0, 0, service.IndexationInput{}, false
	}
	in, err := ValidateIndexationRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return 0, 0, service.IndexationInput{}, false
	}
	return ownerID, leaseID, in, true
}

func (h *Handler) previewIndexation(w http.ResponseWriter, r *http.Request) {
	ownerID, leaseID, in, ok := h.indexationRequest(w, r)
	if !ok {
		return
	}
	rev, err := h.Indexation.Preview(r.Context(), ownerID, leaseID, in, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toRevisionResponse(rev))
}

func (h *Handler) applyIndexation(w http.ResponseWriter, r *http.Request) {
	ownerID, leaseID, in, ok := h.indexationRequest(w, r)
	if !ok {
		return
	}
	rev, err := h.Indexation.Apply(r.Context(), ownerID, leaseID, in, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	SuccessCreated(w, "rent revision applied", toRevisionResponse(rev))
}

func (h *Handler) listRevisions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Indexation == nil {
		unavailable(w)
		return
	}
	leaseID, err := pathID(r, "lease_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	revs, err := h.Indexation.ListRevisions(r.Context(), ownerID, leaseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]revisionResponse, 0, len(revs))
	for _, rev := range revs {
		out = append(out, toRevisionResponse(rev))
	}
	Success(w, "", out)
}

func (h *Handler) changeLeaseStatus(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Leases == nil {
		unavailable(w)
		return
	}
	leaseID, err := pathID(r, "lease_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := ValidateStatusRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lease, err := h.Leases.Transition(r.Context(), ownerID, leaseID, t, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "lease status updated", toLeaseResponse(lease))
}
