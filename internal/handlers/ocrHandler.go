package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/ymatsuda/cardforge/internal/adapter"
	"github.com/ymatsuda/cardforge/internal/api"
	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/metrics"
	"github.com/ymatsuda/cardforge/internal/ocr"
)

// BatchOCRHandler godoc
// @Summary      Extract text from page images
// @Description  Uploads page images to the provider in batches and returns the extracted text per page. Partial extraction still reports success.
// @Tags         OCR
// @Accept       json
// @Produce      json
// @Param        request  body      api.BatchOCRRequest   true  "Page images and optional batch size"
// @Success      200      {object}  api.BatchOCRResponse  "Extraction result, possibly partial"
// @Failure      400      {object}  api.JobResponse       "Invalid request data"
// @Failure      429      {object}  api.JobResponse       "Daily quota exhausted"
// @Failure      503      {object}  api.JobResponse       "Provider cannot take image input"
// @Router       /batch/ocr [post]
func (h *Handler) BatchOCRHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	if h.OCR == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Configured provider does not support image input")
		return
	}

	var requestData api.BatchOCRRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}

	images := make([]ocr.PageImage, len(requestData.Pages))
	for i, img := range requestData.Pages {
		images[i] = ocr.PageImage{PageNumber: img.PageNumber, ImageURL: img.ImageURL}
	}

	result, err := h.OCR.Run(r.Context(), images, requestData.BatchSize)
	if err != nil {
		h.writeOCRError(w, err)
		return
	}

	response := api.BatchOCRResponse{
		Success:        result.ProcessedCount > 0,
		ExtractedPages: result.Pages,
		ProcessedCount: result.ProcessedCount,
		SkippedCount:   result.SkippedCount,
	}
	if !response.Success {
		response.Message = "no pages could be extracted"
	} else if result.SkippedCount > 0 {
		response.Message = "some pages could not be extracted"
	}
	writeJsonResponse(w, http.StatusOK, response)
}

// DualOCRHandler godoc
// @Summary      Align question pages with answer pages
// @Description  Takes a question document and an answer document as page images, pairs every question with its answer in one model pass, and returns the generated cards.
// @Tags         OCR
// @Accept       multipart/form-data
// @Produce      json
// @Param        source_ref      formData  string  true   "Source reference recorded on the cards"
// @Param        question_pages  formData  file    true   "Question page images, in page order"
// @Param        answer_pages    formData  file    false  "Answer page images, in page order"
// @Success      200  {object}  api.DualOCRResponse  "Aligned cards; success is false when nothing usable came back"
// @Failure      400  {object}  api.JobResponse      "Invalid request data"
// @Failure      429  {object}  api.JobResponse      "Daily quota exhausted"
// @Failure      503  {object}  api.JobResponse      "Provider cannot take image input"
// @Router       /batch/dual-ocr [post]
func (h *Handler) DualOCRHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	if h.Aligner == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Configured provider does not support image input")
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	sourceRef := r.FormValue("source_ref")
	if sourceRef == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "source_ref is required")
		return
	}

	questions, err := readPageFiles(r.MultipartForm.File["question_pages"])
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sourceRef, "Could not read question pages")
		return
	}
	answers, err := readPageFiles(r.MultipartForm.File["answer_pages"])
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sourceRef, "Could not read answer pages")
		return
	}

	result, err := h.Aligner.Align(r.Context(), questions, answers)
	if err != nil {
		h.writeOCRError(w, err)
		return
	}

	generated := h.Cards.FromAligned(result.Entries, sourceRef)
	metrics.AddCardsGenerated(string(cards.ProcessingDualOCR), len(generated))

	response := api.DualOCRResponse{
		Success:          len(result.Entries) > 0,
		Cards:            generated,
		ExtractedText:    result.Entries,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}
	if !response.Success {
		response.Message = "no aligned questions could be extracted"
	}
	writeJsonResponse(w, http.StatusOK, response)
}

func (h *Handler) writeOCRError(w http.ResponseWriter, err error) {
	var validationErr *ocr.ValidationError
	if errors.As(err, &validationErr) {
		WriteErrorResponse(w, http.StatusBadRequest, "", validationErr.Message)
		return
	}
	var quotaErr *ocr.QuotaDeniedError
	if errors.As(err, &quotaErr) {
		writeJsonResponse(w, http.StatusTooManyRequests, adapter.QuotaDenied(quotaErr.Decision, http.StatusTooManyRequests))
		return
	}
	if llm.IsQuotaExceeded(err) {
		WriteErrorResponse(w, http.StatusTooManyRequests, "", "Daily quota exhausted")
		return
	}
	h.logger.Error("ocr run failed", "error", err)
	WriteErrorResponse(w, http.StatusInternalServerError, "", "Extraction failed")
}

// readPageFiles loads multipart page images in submission order; page
// numbers are positional.
func readPageFiles(files []*multipart.FileHeader) ([]ocr.PagePayload, error) {
	pages := make([]ocr.PagePayload, 0, len(files))
	for i, header := range files {
		f, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, config.MaxUploadSize))
		f.Close()
		if err != nil {
			return nil, err
		}

		mime := header.Header.Get("Content-Type")
		if mime == "" {
			mime = "image/png"
		}
		pages = append(pages, ocr.PagePayload{
			PageNumber: i + 1,
			Data:       data,
			MimeType:   mime,
		})
	}
	return pages, nil
}
