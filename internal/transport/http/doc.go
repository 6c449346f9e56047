// Package http implements the HTTP handlers of the opsdash API. Handlers are
// thin: they decode and validate query parameters, call a service and render
// the result.
//
// # Envelope
//
// Every /api route except the health probes answers with
//
//	{"success": true, "data": ...}
//
// on success and
//
//	{"success": false, "error": "...", "code": "...", "traceId": "..."}
//
// on failure. Query parameters that fail validation are 400s, unknown
// datasets 404s and service failures 500s carrying the error text.
//
// # Handler Structure
//
//	func (h *Handler) Something(w http.ResponseWriter, r *http.Request) {
//	    req, err := h.validator.AnalysisRequest(r)
//	    if err != nil {
//	        h.errorHandler.HandleError(w, r, err)
//	        return
//	    }
//	    result, err := h.service.Something(r.Context(), req)
//	    h.respond(w, r, result, err)
//	}
//
// # Testing
//
// Handlers are tested with httptest against a chi router built from the
// handler's Routes, using testify mocks for failure paths and fixture
// datasets for the happy path.
package http
