package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-requester/internal/models"
)

// ListHistory returns recorded requests newest first, filtered by ?q= or ?url=
func (h *Handler) ListHistory(c *gin.Context) {
	var (
		entries []*models.HistoryEntry
		err     error
	)
	if url, ok := c.GetQuery("url"); ok {
		entries, err = h.history.ByURL(url)
	} else {
		entries, err = h.history.List(c.Query("q"))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]entryView, len(entries))
	for i, e := range entries {
		result[i] = newEntryView(e)
	}
	c.JSON(http.StatusOK, result)
}

// GetHistoryEntry returns a single recorded request
func (h *Handler) GetHistoryEntry(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}

	entry, err := h.history.Get(key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newEntryView(entry))
}

// ReopenHistoryEntry opens a draft from a recorded request
func (h *Handler) ReopenHistoryEntry(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}

	entry, err := h.history.Get(key)
	if err != nil {
		respondError(c, err)
		return
	}

	draft := h.drafts.Open("", entry.Request)
	h.respondDraft(c, draft.ID, http.StatusCreated)
}

// DeleteHistoryEntry removes a single recorded request
func (h *Handler) DeleteHistoryEntry(c *gin.Context) {
	key, ok := parseKey(c)
	if !ok {
		return
	}

	if err := h.history.Delete(key); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearHistory removes every recorded request
func (h *Handler) ClearHistory(c *gin.Context) {
	if err := h.history.Clear(); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportHAR downloads the history as an HTTP Archive
func (h *Handler) ExportHAR(c *gin.Context) {
	har, err := h.history.ExportHAR()
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("history-%s.har", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, har)
}

func parseKey(c *gin.Context) (int64, bool) {
	key, err := strconv.ParseInt(c.Param("key"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history key"})
		return 0, false
	}
	return key, true
}
