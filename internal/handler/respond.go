package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/jx"
)

// encoder is a response body.
type encoder interface {
	Encode(e *jx.Encoder)
}

// decoder is a request body.
type decoder interface {
	Decode(d *jx.Decoder) error
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Encode implements encoder.
func (r ErrorResponse) Encode(e *jx.Encoder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("error", func(e *jx.Encoder) { e.Str(r.Error) })
	})
}

func respondJSON(w http.ResponseWriter, status int, v encoder) {
	var e jx.Encoder
	v.Encode(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst decoder) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = dst.Decode(jx.DecodeBytes(data))
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
