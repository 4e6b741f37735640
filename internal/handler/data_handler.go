package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-billing/internal/codec"
	"github.com/noah-isme/tutor-billing/internal/dto"
	"github.com/noah-isme/tutor-billing/internal/models"
	"github.com/noah-isme/tutor-billing/internal/service"
	appErrors "github.com/noah-isme/tutor-billing/pkg/errors"
	"github.com/noah-isme/tutor-billing/pkg/response"
)

const maxImportBytes = 32 << 20

type bundleImporter interface {
	Import(ctx context.Context, bundle models.Bundle) (models.SyncOutcome, error)
	Status() models.SyncStatus
}

type bundleExporter interface {
	BundleJSON() ([]byte, string, error)
}

type backupQueue interface {
	Enqueue(filename string) (string, error)
	Last() *service.BackupRecord
}

// DataHandler covers bundle import, export and Drive backups.
type DataHandler struct {
	importer bundleImporter
	exporter bundleExporter
	backups  backupQueue
	codec    *codec.Codec
}

// NewDataHandler constructs DataHandler.
func NewDataHandler(importer bundleImporter, exporter bundleExporter, backups backupQueue, c *codec.Codec) *DataHandler {
	if c == nil {
		c = codec.New(nil)
	}
	return &DataHandler{importer: importer, exporter: exporter, backups: backups, codec: c}
}

// ImportBundle godoc
// @Summary Import a bundle file
// @Description Replaces all local data with the uploaded bundle and saves it to Drive when connected.
// @Tags Data
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import/bundle [post]
func (h *DataHandler) ImportBundle(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, "failed to read bundle"))
		return
	}
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) || len(trimmed) == 0 || trimmed[0] != '{' {
		response.Error(c, appErrors.Clone(appErrors.ErrImportFailed, "bundle must be a JSON object"))
		return
	}
	h.apply(c, h.codec.Decode(trimmed))
}

// ImportLegacy godoc
// @Summary Import the three-file legacy export
// @Tags Data
// @Accept multipart/form-data
// @Produce json
// @Param students formData file false "Students file"
// @Param parents formData file false "Parents file"
// @Param schedules formData file false "Schedules file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /import/legacy [post]
func (h *DataHandler) ImportLegacy(c *gin.Context) {
	var files codec.LegacyFiles
	for _, field := range []struct {
		name string
		dst  *[]byte
	}{{"students", &files.Students}, {"parents", &files.Parents}, {"schedules", &files.Schedules}} {
		header, err := c.FormFile(field.name)
		if err != nil {
			continue
		}
		content, err := readUpload(header)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrImportFailed.Code, appErrors.ErrImportFailed.Status, "failed to read "+field.name+" file"))
			return
		}
		*field.dst = content
	}
	if files.Students == nil && files.Parents == nil && files.Schedules == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one of students, parents or schedules is required"))
		return
	}
	bundle, err := h.codec.FromLegacyFiles(files)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.apply(c, bundle)
}

// ExportBundle godoc
// @Summary Download the current bundle
// @Tags Data
// @Produce json
// @Success 200
// @Router /export/bundle [get]
func (h *DataHandler) ExportBundle(c *gin.Context) {
	payload, name, err := h.exporter.BundleJSON()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, name, "application/json", payload)
}

// Backup godoc
// @Summary Queue a visible backup on Drive
// @Tags Data
// @Accept json
// @Produce json
// @Param payload body dto.BackupRequest false "Backup name"
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /backups [post]
func (h *DataHandler) Backup(c *gin.Context) {
	var req dto.BackupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	id, err := h.backups.Enqueue(req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.BackupJobResponse{JobID: id})
}

// LastBackup godoc
// @Summary Most recent backup attempt
// @Tags Data
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /backups/last [get]
func (h *DataHandler) LastBackup(c *gin.Context) {
	last := h.backups.Last()
	if last == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no backup attempted yet"))
		return
	}
	response.JSON(c, http.StatusOK, last, nil)
}

func (h *DataHandler) apply(c *gin.Context, bundle models.Bundle) {
	outcome, err := h.importer.Import(c.Request.Context(), bundle)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ImportResponse{
		Outcome:  outcome,
		Students: len(bundle.StudentsData),
		Archived: len(bundle.ArchivedStudentsData),
		Parents:  len(bundle.ParentsData),
		Months:   len(bundle.Months),
		Status:   h.importer.Status(),
	}, nil)
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(io.LimitReader(src, maxImportBytes))
}
