package api

import (
	"github.com/prasenjit/go-requester/internal/models"
)

// requestView is the editor's rendering of a request
type requestView struct {
	ID          string          `json:"id,omitempty"`
	HashID      int32           `json:"hashId,omitempty"`    // Set once submitted
	Timestamp   int64           `json:"timestamp,omitempty"` // Unix millis of the last submission
	Type        string          `json:"type"`
	Host        string          `json:"host"`
	URL         string          `json:"url"`
	Query       string          `json:"query"`
	FullURL     string          `json:"fullURL"`
	Body        string          `json:"body"`
	SupportBody bool            `json:"supportBody"`
	ContainBody bool            `json:"containBody"`
	Editable    bool            `json:"editable"`
	Header      string          `json:"header"`
	Consumes    []string        `json:"consumes,omitempty"`
	Produces    []string        `json:"produces,omitempty"`
	Binary      *models.FileRef `json:"binary,omitempty"`
	Parameters  []parameterView `json:"parameters"`
}

type parameterView struct {
	Name        string          `json:"name"`
	In          models.InType   `json:"in"`
	Value       any             `json:"value"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required"`
	Type        string          `json:"type,omitempty"`
	Format      string          `json:"format,omitempty"`
	FileType    models.FileType `json:"fileType,omitempty"`
}

// newRequestView renders req. BodyStr may fill req.Raw, so callers pass a
// request they own or hold the lock for.
func newRequestView(id string, req *models.RequestData) requestView {
	params := make([]parameterView, 0, len(req.Parameters))
	for _, p := range req.Parameters {
		c := p.Common()
		pv := parameterView{
			Name:        c.Name,
			In:          p.In(),
			Value:       c.Value,
			Description: c.Description,
			Required:    c.Required,
			Type:        c.Type,
			Format:      c.Format,
		}
		if fd, ok := p.(*models.FormDataParameter); ok {
			pv.FileType = fd.FileType()
		}
		params = append(params, pv)
	}

	return requestView{
		ID:          id,
		HashID:      req.ID,
		Timestamp:   req.Timestamp,
		Type:        req.Type,
		Host:        req.Host,
		URL:         req.URL,
		Query:       req.Query(),
		FullURL:     req.FullURL(),
		Body:        req.BodyStr(),
		SupportBody: req.SupportBody(),
		ContainBody: req.ContainBody(),
		Editable:    req.Editable,
		Header:      req.Header,
		Consumes:    req.Consumes,
		Produces:    req.Produces,
		Binary:      req.Binary,
		Parameters:  params,
	}
}

type entryView struct {
	Key       int64       `json:"key"`
	ID        int32       `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Request   requestView `json:"request"`
}

func newEntryView(entry *models.HistoryEntry) entryView {
	req := entry.Request.Clone()
	return entryView{
		Key:       entry.Key,
		ID:        req.ID,
		Timestamp: req.Timestamp,
		Request:   newRequestView("", req),
	}
}

type operationView struct {
	models.OperationSummary
	Description string      `json:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Request     requestView `json:"request"`
}

func newOperationView(op *models.Operation) operationView {
	return operationView{
		OperationSummary: op.ToSummary(),
		Description:      op.Description,
		Tags:             op.Tags,
		Request:          newRequestView("", op.Request.Clone()),
	}
}
