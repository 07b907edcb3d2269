package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/posa/jerseyapp/internal/api/response"
	"github.com/posa/jerseyapp/internal/services/ingest"
)

// MaxEmailBytes caps the size of an inbound email
const MaxEmailBytes = 10 << 20

// EmailHandler handles the inbound email webhook
type EmailHandler struct {
	ingest *ingest.Service
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(ingestService *ingest.Service) *EmailHandler {
	return &EmailHandler{
		ingest: ingestService,
	}
}

// Receive handles POST /api/v1/email/receive
func (h *EmailHandler) Receive(w http.ResponseWriter, r *http.Request) {
	raw, err := readEmail(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, NewInvalidRequestError("email is too large"))
			return
		}
		WriteError(w, NewInvalidRequestError("could not read request body"))
		return
	}

	report, err := h.ingest.Process(r.Context(), raw)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.EmailReceivedFromReport(report))
}

// readEmail takes the email from the "email" form field when the request is
// a form post, otherwise from the raw body
func readEmail(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxEmailBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostFormValue("email"), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(MaxEmailBytes); err != nil {
			return "", err
		}
		return r.PostFormValue("email"), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
