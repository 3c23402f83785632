package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goliatone/go-cardgen/pkg/card"
	"github.com/goliatone/go-cardgen/pkg/orchestrator"
	"github.com/goliatone/go-cardgen/pkg/render"
	"github.com/goliatone/go-cardgen/pkg/schema"
	"github.com/goliatone/go-cardgen/pkg/store"
)

type apiIssue struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

func apiIssues(issues []schema.Issue) []apiIssue {
	out := make([]apiIssue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, apiIssue{Path: issue.Path, Message: issue.Message, Severity: issue.Severity})
	}
	return out
}

type cardSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title,omitempty"`
	Type     string    `json:"type,omitempty"`
	Revision string    `json:"revision"`
	SavedAt  time.Time `json:"savedAt"`
	Stale    bool      `json:"stale,omitempty"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"liveClients": s.hub.clientCount(),
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	summaries, err := s.store.List(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "list cards: %v\n", err)
		return
	}

	entries := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		title := summary.Title
		if title == "" {
			title = summary.ID
		}
		entries = append(entries, map[string]any{
			"id":    summary.ID,
			"title": title,
			"type":  string(summary.Type),
			"stale": summary.Stale,
			"saved": summary.SavedAt.Local().Format("Jan 2, 2006 15:04"),
		})
	}

	page, err := s.pages.RenderTemplate("index", map[string]any{"cards": entries})
	if err != nil {
		c.String(http.StatusInternalServerError, "render index: %v\n", err)
		return
	}
	out := []byte(page)
	if s.watch != nil {
		out = injectReload(out)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}

func (s *Server) handleCardPage(c *gin.Context) {
	id := c.Param("id")
	doc, _, err := s.store.Load(c.Request.Context(), id)
	stale := false
	if err != nil {
		var schemaErr *store.SchemaVersionError
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.String(http.StatusNotFound, "card %q not found\n", id)
			return
		case errors.As(err, &schemaErr):
			stale = true
		default:
			c.String(http.StatusInternalServerError, "load card: %v\n", err)
			return
		}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		c.String(http.StatusInternalServerError, "encode card: %v\n", err)
		return
	}
	document, err := card.NewDocument(card.SourceFromBytes("store:"+id, raw), raw)
	if err != nil {
		c.String(http.StatusInternalServerError, "wrap card: %v\n", err)
		return
	}

	result, err := s.pipeline.Generate(c.Request.Context(), orchestrator.Request{
		Document:     &document,
		Renderer:     c.Query("renderer"),
		ThemeVariant: s.variantFor(c),
	})
	if err != nil {
		var invalid *orchestrator.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "document failed validation",
				"issues": apiIssues(invalid.Issues),
			})
			return
		}
		c.String(http.StatusInternalServerError, "render card: %v\n", err)
		return
	}

	output := result.Output
	if s.watch != nil && strings.HasPrefix(result.ContentType, "text/html") {
		output = injectReload(output)
	}
	if stale {
		c.Header("X-Card-Stale", "true")
	}
	c.Data(http.StatusOK, result.ContentType, output)
}

func (s *Server) handleListCards(c *gin.Context) {
	summaries, err := s.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cards failed"})
		return
	}

	data := make([]cardSummary, 0, len(summaries))
	for _, summary := range summaries {
		data = append(data, cardSummary{
			ID:       summary.ID,
			Title:    summary.Title,
			Type:     string(summary.Type),
			Revision: summary.Revision,
			SavedAt:  summary.SavedAt,
			Stale:    summary.Stale,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (s *Server) handleGetCard(c *gin.Context) {
	id := c.Param("id")
	doc, meta, err := s.store.Load(c.Request.Context(), id)
	stale := false
	if err != nil {
		var schemaErr *store.SchemaVersionError
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		case errors.As(err, &schemaErr):
			stale = true
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "load card failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"card":     doc,
		"revision": meta.Revision,
		"savedAt":  meta.SavedAt,
		"stale":    stale,
	})
}

func (s *Server) handleCreateCard(c *gin.Context) {
	doc, ok := s.bindCard(c)
	if !ok {
		return
	}
	if doc.ID == "" {
		doc.ID = card.NewID("card")
	}

	meta, err := s.store.Save(c.Request.Context(), doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save card failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       doc.ID,
		"revision": meta.Revision,
		"savedAt":  meta.SavedAt,
	})
}

func (s *Server) handleUpdateCard(c *gin.Context) {
	id := c.Param("id")
	doc, ok := s.bindCard(c)
	if !ok {
		return
	}
	if doc.ID != "" && doc.ID != id {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "document id " + strconv.Quote(doc.ID) + " does not match path id " + strconv.Quote(id),
		})
		return
	}
	doc.ID = id

	meta, err := s.store.Save(c.Request.Context(), doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save card failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        doc.ID,
		"revision":  meta.Revision,
		"savedAt":   meta.SavedAt,
		"unchanged": meta.Unchanged,
	})
}

func (s *Server) handleDeleteCard(c *gin.Context) {
	id := c.Param("id")
	if err := s.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete card failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRender(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body: " + err.Error()})
		return
	}

	document, err := card.NewDocument(card.SourceFromBytes("request", raw), raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var opts render.RenderOptions
	if v := c.Query("fragment"); v != "" {
		if fragment, err := strconv.ParseBool(v); err == nil {
			opts.Fragment = fragment
		}
	}

	result, err := s.pipeline.Generate(c.Request.Context(), orchestrator.Request{
		Document:     &document,
		Renderer:     c.Query("renderer"),
		ThemeVariant: s.variantFor(c),
		Options:      opts,
	})
	if err != nil {
		var invalid *orchestrator.ValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  "document failed validation",
				"issues": apiIssues(invalid.Issues),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, result.ContentType, result.Output)
}

// bindCard validates the request body against the card schema and decodes
// it. Schema errors answer 422 with the issue list; malformed JSON answers
// 400. A false return means the response is already written.
func (s *Server) bindCard(c *gin.Context) (*card.Card, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read request body: " + err.Error()})
		return nil, false
	}

	result, err := schema.Validate(raw, schema.WithSectionRegistry(s.sections))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if !result.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "document failed validation",
			"issues": apiIssues(result.Errors()),
		})
		return nil, false
	}

	doc, err := card.ParseCard(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return doc, true
}

func (s *Server) variantFor(c *gin.Context) string {
	if v := c.Query("variant"); v != "" {
		return v
	}
	return s.cfg.ThemeVariant
}

const reloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var sock = new WebSocket(proto + location.host + "/live");
  sock.onmessage = function (ev) {
    if (ev.data === "reload") {
      location.reload();
    }
  };
})();
</script>`

// injectReload splices the live-reload script into an HTML document, before
// </body> when present and appended otherwise.
func injectReload(doc []byte) []byte {
	marker := []byte("</body>")
	if idx := bytes.LastIndex(doc, marker); idx >= 0 {
		out := make([]byte, 0, len(doc)+len(reloadScript)+1)
		out = append(out, doc[:idx]...)
		out = append(out, reloadScript...)
		out = append(out, '\n')
		out = append(out, doc[idx:]...)
		return out
	}
	out := make([]byte, 0, len(doc)+len(reloadScript)+1)
	out = append(out, doc...)
	out = append(out, '\n')
	out = append(out, reloadScript...)
	return out
}
