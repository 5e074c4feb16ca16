package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ymatsuda/cardforge/internal/adapter"
	"github.com/ymatsuda/cardforge/internal/adapter/utils"
	"github.com/ymatsuda/cardforge/internal/api"
	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/ingest"
	"github.com/ymatsuda/cardforge/internal/job"
)

func (h *Handler) GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ProcessTextHandler godoc
// @Summary      Queue a text extraction job
// @Description  Accepts per-page text, queues a card extraction job, and returns a job ID to track status.
// @Tags         Processing
// @Accept       json
// @Produce      json
// @Param        request  body      api.ProcessTextRequest  true  "Source reference and page text"
// @Success      202      {object}  api.InitJobResponse     "Job successfully created"
// @Failure      400      {object}  api.JobResponse         "Invalid request data"
// @Failure      503      {object}  api.JobResponse         "Job queue is full"
// @Router       /process/text [post]
func (h *Handler) ProcessTextHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logH.Warn("invalid context by request", "remote", r.RemoteAddr)
		return
	}

	var requestData api.ProcessTextRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	if msg := validateTextRequest(requestData); msg != "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", msg)
		return
	}

	pages := make([]cards.PageText, len(requestData.Pages))
	for i, p := range requestData.Pages {
		pages[i] = cards.PageText{PageNumber: p.PageNumber, Text: p.Text}
	}

	newJob := jobModel.Job{
		Id:      utils.GetNewUUID(),
		TraceId: traceFrom(r.Context()),
		JobType: jobModel.JobTypeText,
		JobPayload: jobModel.JobPayload{
			SourceRef: requestData.SourceRef,
			Pages:     pages,
		},
	}
	h.enqueue(w, r, newJob)
}

// ProcessDocumentHandler godoc
// @Summary      Upload a document for card extraction
// @Description  Receives a PDF, DOCX or text file via multipart/form-data, stages it, and queues an extraction job.
// @Tags         Processing
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The document file to upload"
// @Success      202  {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400  {object}  api.JobResponse      "Missing fields, unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse      "Storage or write error"
// @Router       /process/document [post]
func (h *Handler) ProcessDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logH.Warn("invalid context by request", "remote", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	if ingest.DetectDocType(fileMetadata.Filename) == ingest.DocUnknown {
		WriteErrorResponse(w, http.StatusBadRequest, docName, "Unsupported document type")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, docName, "Write error")
		return
	}

	newJob := jobModel.Job{
		Id:      utils.GetNewUUID(),
		TraceId: traceFrom(r.Context()),
		JobType: jobModel.JobTypeDocument,
		JobPayload: jobModel.JobPayload{
			SourceRef:    docName,
			DocumentName: docName,
			DocumentPath: tempFilePath,
		},
	}
	h.enqueue(w, r, newJob)
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status and, once complete, the generated cards for a job.
// @Tags         Jobs
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse  "The current status of the job"
// @Failure      404  {object}  api.JobResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}

	idString := utils.GetChiURLParam(r, "id")
	if idString == "" {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	result, isFound := h.Jobs.JobStore.GetJob(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// GetQuotaHandler godoc
// @Summary      Get remaining daily quota
// @Description  Reports how much of today's provider request budget is left.
// @Tags         Quota
// @Produce      json
// @Success      200  {object}  api.QuotaResponse
// @Router       /quota [get]
func (h *Handler) GetQuotaHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToQuotaResponse(h.Quota.Status(r.Context())))
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, newJob jobModel.Job) {
	if err := h.Jobs.Enqueue(r.Context(), newJob); err != nil {
		if errors.Is(err, job.ErrQueueFull) {
			WriteErrorResponse(w, http.StatusServiceUnavailable, newJob.Id, "Server is busy, try again later")
			return
		}
		h.logger.Error("failed to enqueue job", "jobId", newJob.Id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, newJob.Id, "Could not create job")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

func validateTextRequest(req api.ProcessTextRequest) string {
	if strings.TrimSpace(req.SourceRef) == "" {
		return "source_ref is required"
	}
	if len(req.Pages) == 0 {
		return "pages must not be empty"
	}
	for i, p := range req.Pages {
		if p.PageNumber < 1 {
			return fmt.Sprintf("page %d: pageNumber must be positive", i)
		}
	}
	return ""
}
