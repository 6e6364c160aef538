package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/notable/internal/models"
	"github.com/starford/notable/internal/pipeline"
	"github.com/starford/notable/internal/provider/stt"
)

const (
	audioField       = "audioFile"
	correctionsField = "corrections"
	maxUploadBytes   = 25 << 20 // 25 MB, the hosted Whisper limit
)

// Transcribe handles POST /api/transcribe (multipart/form-data).
//
// The optional corrections field holds a JSON array of {original, corrected}
// pairs that replaces the stored corrections for this run. A malformed value
// is treated as an empty list.
//
//	@Summary		Transcribe audio and extract proper nouns
//	@Tags			extraction
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			audioFile	formData	file	true	"Recorded audio"
//	@Param			corrections	formData	string	false	"JSON array of corrections"
//	@Param			X-Session-ID	header	string	false	"Session whose previous run is superseded"
//	@Success		200			{object}	TranscribeResponse
//	@Failure		400			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Failure		502			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transcribe [post]
func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(audioField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'audioFile' field in multipart form"))
		return
	}
	defer file.Close()

	res, err := h.svc.Transcribe(r.Context(), pipeline.Request{
		Audio: stt.Audio{
			Data:        file,
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
		},
		Corrections: formCorrections(r),
		Session:     sessionID(r),
	})
	if err != nil {
		writeError(w, "transcribe", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// formCorrections returns nil when the field is absent so the stored list
// is used.
func formCorrections(r *http.Request) []models.CorrectionPair {
	values, ok := r.MultipartForm.Value[correctionsField]
	if !ok || len(values) == 0 || values[0] == "" {
		return nil
	}
	var pairs []models.CorrectionPair
	if err := json.Unmarshal([]byte(values[0]), &pairs); err != nil {
		slog.Debug("ignoring malformed corrections field", slog.String("error", err.Error()))
		return []models.CorrectionPair{}
	}
	valid := make([]models.CorrectionPair, 0, len(pairs))
	for _, p := range pairs {
		if p.Validate() == nil {
			valid = append(valid, p)
		}
	}
	return valid
}
