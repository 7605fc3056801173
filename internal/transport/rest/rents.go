package rest

import (
	"net/http"
)

func (h *Handler) getRent(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Rents == nil {
		unavailable(w)
		return
	}
	rentID, err := pathID(r, "rent_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.Rents.GetRent(r.Context(), ownerID, rentID, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toRentResponse(view))
}

func (h *Handler) listLeaseRents(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Rents == nil {
		unavailable(w)
		return
	}
	leaseID, err := pathID(r, "lease_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views, err := h.Rents.ListLeaseRents(r.Context(), ownerID, leaseID, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]rentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toRentResponse(v))
	}
	Success(w, "", out)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Rents == nil {
		unavailable(w)
		return
	}
	rentID, err := pathID(r, "rent_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := ValidatePaymentRequest(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in.CreatedBy = &ownerID

	view, payment, err := h.Rents.RecordPayment(r.Context(), ownerID, rentID, in, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	SuccessCreated(w, "payment recorded", map[string]interface{}{
		"rent":    toRentResponse(view),
		"payment": toPaymentResponse(payment),
	})
}

func (h *Handler) cancelRent(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Rents == nil {
		unavailable(w)
		return
	}
	rentID, err := pathID(r, "rent_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rent, err := h.Rents.CancelRent(r.Context(), ownerID, rentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "rent cancelled", map[string]interface{}{"id": rent.ID, "status": rent.Status})
}
