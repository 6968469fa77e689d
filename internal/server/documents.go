package server

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docsentry/internal/ingest"
)

type documentHandlers struct {
	deps Deps
}

func (h *documentHandlers) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer f.Close()

	res, err := h.deps.Ingest.Upload(c.UserContext(), ingest.UploadRequest{
		Filename:      fh.Filename,
		ContentType:   fh.Header.Get("Content-Type"),
		UploaderEmail: c.FormValue("uploader_email"),
		Source:        "api",
		Content:       f,
	})
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusCreated
	if res.Deduplicated {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"document":     res.Document,
		"deduplicated": res.Deduplicated,
	})
}

func (h *documentHandlers) list(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
	}

	docs, err := h.deps.Docs.List(c.UserContext(), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"documents": docs, "limit": limit, "offset": offset})
}

func (h *documentHandlers) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	doc, err := h.deps.Docs.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *documentHandlers) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	doc, err := h.deps.Docs.GetByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.deps.Docs.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	if doc.ObjectKey != "" && h.deps.Blobs != nil {
		if err := h.deps.Blobs.Delete(c.UserContext(), doc.ObjectKey); err != nil {
			h.deps.Logger.Warn("server.delete.blob_error", "document_id", id, "object_key", doc.ObjectKey, "error", err)
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *documentHandlers) reanalyze(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	status, items, err := h.deps.Processor.Reanalyze(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": status, "items": items})
}

func (h *documentHandlers) exportFindings(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	}

	data, err := h.deps.Export.ExportFindingsXLSX(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="findings-%s.xlsx"`, id))
	return c.Send(data)
}
