package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prasenjit/go-requester/internal/models"
)

type queryInput struct {
	Query string `json:"query"`
}

type bodyInput struct {
	Body string `json:"body"`
}

type headerInput struct {
	Header string `json:"header"`
}

type parameterInput struct {
	In    models.InType `json:"in"` // Optional, narrows the match when names repeat
	Value any           `json:"value"`
}

// withDraft runs fn on a draft and responds with the rendered draft
func (h *Handler) withDraft(c *gin.Context, status int, fn func(req *models.RequestData) error) {
	id := c.Param("id")

	var view requestView
	err := h.drafts.With(id, func(req *models.RequestData) error {
		if fn != nil {
			if err := fn(req); err != nil {
				return err
			}
		}
		view = newRequestView(id, req)
		return nil
	})
	if err != nil {
		var inputErr *inputError
		if errors.As(err, &inputErr) {
			c.JSON(inputErr.status, gin.H{"error": inputErr.Error()})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(status, view)
}

type inputError struct {
	status int
	msg    string
}

func (e *inputError) Error() string { return e.msg }

// OpenDraft starts editing a copy of an operation's request
func (h *Handler) OpenDraft(c *gin.Context) {
	op, err := h.store.GetOperation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	draft := h.drafts.Open(op.ID, op.Request)
	h.respondDraft(c, draft.ID, http.StatusCreated)
}

// OpenBlankDraft starts editing an empty request whose URL can be typed freely
func (h *Handler) OpenBlankDraft(c *gin.Context) {
	draft := h.drafts.Open("", nil)
	h.respondDraft(c, draft.ID, http.StatusCreated)
}

func (h *Handler) respondDraft(c *gin.Context, id string, status int) {
	var view requestView
	err := h.drafts.With(id, func(req *models.RequestData) error {
		view = newRequestView(id, req)
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}

// ListDrafts returns every open draft
func (h *Handler) ListDrafts(c *gin.Context) {
	c.JSON(http.StatusOK, h.drafts.List())
}

// GetDraft returns a rendered draft
func (h *Handler) GetDraft(c *gin.Context) {
	h.withDraft(c, http.StatusOK, nil)
}

// CloseDraft discards a draft
func (h *Handler) CloseDraft(c *gin.Context) {
	if err := h.drafts.Close(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetDraftQuery applies an edited "path?k=v" string
func (h *Handler) SetDraftQuery(c *gin.Context) {
	var input queryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		req.SetQuery(input.Query)
		return nil
	})
}

// SetDraftBody replaces the body. Text that is not a JSON object or array leaves the body unchanged.
func (h *Handler) SetDraftBody(c *gin.Context) {
	var input bodyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		req.SetBodyStr(input.Body)
		return nil
	})
}

// ResetDraftBody drops the edited body so the example is generated again
func (h *Handler) ResetDraftBody(c *gin.Context) {
	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		req.Raw = nil
		return nil
	})
}

// SetDraftParameter sets the value of a named parameter
func (h *Handler) SetDraftParameter(c *gin.Context) {
	var input parameterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := c.Param("name")

	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		for _, p := range req.Parameters {
			if p.Common().Name != name || (input.In != "" && p.In() != input.In) {
				continue
			}
			p.Common().Value = input.Value
			return nil
		}
		return &inputError{status: http.StatusNotFound, msg: fmt.Sprintf("parameter %s not found", name)}
	})
}

// SetDraftHeader replaces the free-form header text
func (h *Handler) SetDraftHeader(c *gin.Context) {
	var input headerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		req.Header = input.Header
		return nil
	})
}

// SetDraftBinary attaches or, with an empty name, detaches a raw file body
func (h *Handler) SetDraftBinary(c *gin.Context) {
	var input models.FileRef
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.withDraft(c, http.StatusOK, func(req *models.RequestData) error {
		if input.Name == "" {
			req.Binary = nil
			return nil
		}
		ref := input
		req.Binary = &ref
		return nil
	})
}

// SubmitDraft records the draft in history
func (h *Handler) SubmitDraft(c *gin.Context) {
	var entry *models.HistoryEntry
	err := h.drafts.With(c.Param("id"), func(req *models.RequestData) error {
		var err error
		entry, err = h.history.Record(req)
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newEntryView(entry))
}
