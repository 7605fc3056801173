package rest

import "net/http"

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Tenants == nil {
		unavailable(w)
		return
	}

	tenants, err := h.Tenants.List(r.Context(), ownerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toTenantResponses(tenants))
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Tenants == nil {
		unavailable(w)
		return
	}
	in, err := ValidateTenantRequest(r, true, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.Tenants.Create(r.Context(), ownerID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	SuccessCreated(w, "tenant created", toTenantResponse(t))
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Tenants == nil {
		unavailable(w)
		return
	}
	tenantID, err := pathID(r, "tenant_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.Tenants.Get(r.Context(), ownerID, tenantID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "", toTenantResponse(t))
}

func (h *Handler) updateTenant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Tenants == nil {
		unavailable(w)
		return
	}
	tenantID, err := pathID(r, "tenant_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	in, err := ValidateTenantRequest(r, false, h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	t, err := h.Tenants.Update(r.Context(), ownerID, tenantID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "tenant updated", toTenantResponse(t))
}

func (h *Handler) deleteTenant(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}
	if h.Tenants == nil {
		unavailable(w)
		return
	}
	tenantID, err := pathID(r, "tenant_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.Tenants.Delete(r.Context(), ownerID, tenantID); err != nil {
		h.fail(w, r, err)
		return
	}
	Success(w, "tenant deleted", nil)
}
