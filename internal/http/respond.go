package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/admin"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error         string `json:"error"`
	Field         string `json:"field,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

var errBadBody = errors.New("invalid request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, resp errorResponse) {
	resp.CorrelationID = middleware.GetCorrelationID(r.Context())
	writeJSON(w, status, resp)
}

// writeError maps domain and upstream errors to a status and a user-facing message.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	var cerr *clients.Error

	switch {
	case errors.As(err, &verr):
		writeMessage(w, r, http.StatusUnprocessableEntity, errorResponse{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, admin.ErrNotConfirmed):
		writeMessage(w, r, http.StatusPreconditionRequired, errorResponse{Error: "confirm this action by repeating it with confirm=true"})
	case errors.Is(err, clients.ErrUnauthorized):
		writeMessage(w, r, http.StatusUnauthorized, errorResponse{Error: clients.MessageOf(err), Redirect: "/admin/login"})
	case errors.Is(err, checkout.ErrNothingSelected), errors.Is(err, checkout.ErrEmptySelection):
		writeMessage(w, r, http.StatusConflict, errorResponse{Error: err.Error(), Redirect: "/cart"})
	case errors.Is(err, checkout.ErrNoConfirmation):
		writeMessage(w, r, http.StatusNotFound, errorResponse{Error: err.Error(), Redirect: "/"})
	case errors.Is(err, errBadBody),
		errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, admin.ErrMissingCredentials),
		errors.Is(err, admin.ErrUnknownStatus),
		errors.Is(err, admin.ErrNoImages):
		writeMessage(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, admin.ErrNoToken):
		writeMessage(w, r, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.As(err, &cerr):
		status := http.StatusBadGateway
		if cerr.Kind == clients.KindServer && cerr.Status >= 400 && cerr.Status < 500 {
			status = cerr.Status
		}
		writeMessage(w, r, status, errorResponse{Error: cerr.Message})
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeMessage(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		return errBadBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errBadBody
	}
	return nil
}

func isForm(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}
