package rest

import "net/http"

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Properties == nil {
		unavailable(w)
		return
	}

	props, err := h.Properties.List(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toPropertyResponses(props))
}

func (h *Handler) createProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Properties == nil {
		unavailable(w)
		return
	}
	in, err := ValidatePropertyRequest(r, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.Properties.Create(r.Context(), ownerID, in, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	SuccessCreated(w, "property created", toPropertyResponse(p))
}

func (h *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Properties == nil {
		unavailable(w)
		return
	}
	propertyID, err := pathID(r, "property_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.Properties.Get(r.Context(), ownerID, propertyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toPropertyResponse(p))
}

func (h *Handler) updateProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Properties == nil {
		unavailable(w)
		return
	}
	propertyID, err := pathID(r, "property_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := ValidatePropertyRequest(r, false)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	p, err := h.Properties.Update(r.Context(), ownerID, propertyID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "property updated", toPropertyResponse(p))
}

func (h *Handler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Properties == nil {
		unavailable(w)
		return
	}
	propertyID, err := pathID(r, "property_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Properties.Delete(r.Context(), ownerID, propertyID); err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "property deleted", nil)
}
