package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/CiteGuard/internal/application/analysis"
	"github.com/turtacn/CiteGuard/internal/domain/citation"
	"github.com/turtacn/CiteGuard/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/CiteGuard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CiteGuard/pkg/errors"
)

// CitationHandler serves synchronous analysis and verification requests,
// plus asynchronous document submission when a queue is configured.
type CitationHandler struct {
	service  analysis.Service
	store    citation.VerificationStore // optional
	producer *kafka.Producer            // optional
	topic    string
	logger   logging.Logger
}

// NewCitationHandler wires the handler.  store and producer may be nil;
// the corresponding endpoints then degrade with 503.
func NewCitationHandler(service analysis.Service, store citation.VerificationStore,
	producer *kafka.Producer, topic string, log logging.Logger) *CitationHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if topic == "" {
		topic = kafka.TopicDocumentVerify
	}
	return &CitationHandler{
		service:  service,
		store:    store,
		producer: producer,
		topic:    topic,
		logger:   log,
	}
}

type analyzeRequest struct {
	Text   string `json:"text"`
	Verify bool   `json:"verify"`
}

// Analyze runs the full extraction pipeline on a document body.
// POST /api/v1/citations/analyze
func (h *CitationHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("request body must be JSON with a text field"))
		return
	}

	result, err := h.service.AnalyzeText(c.Request.Context(), &analysis.AnalyzeInput{
		Text:   req.Text,
		Verify: req.Verify,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type verifyRequest struct {
	Citation string `json:"citation"`
	CaseName string `json:"case_name"`
}

type verifyResponse struct {
	Citation string `json:"citation"`
	Outcome  string `json:"outcome"`
	CaseName string `json:"case_name,omitempty"`
	Date     string `json:"date,omitempty"`
	URL      string `json:"url,omitempty"`
	Court    string `json:"court,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Verify checks a single citation against the external source.
// POST /api/v1/citations/verify
func (h *CitationHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("request body must be JSON with a citation field"))
		return
	}

	res, err := h.service.VerifyCitation(c.Request.Context(), req.Citation, req.CaseName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, verifyResponse{
		Citation: req.Citation,
		Outcome:  string(res.Outcome),
		CaseName: res.CaseName,
		Date:     res.Date,
		URL:      res.URL,
		Court:    res.Court,
		Source:   res.Source,
	})
}

type submitRequest struct {
	Text   string `json:"text"`
	Verify bool   `json:"verify"`
}

type submitResponse struct {
	DocumentID string `json:"document_id"`
	EventID    string `json:"event_id"`
	Status     string `json:"status"`
}

// SubmitDocument queues a document for asynchronous analysis.
// POST /api/v1/documents
func (h *CitationHandler) SubmitDocument(c *gin.Context) {
	if h.producer == nil {
		respondError(c, errors.Unavailable("asynchronous processing is not configured"))
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInputError("request body must be JSON with a text field"))
		return
	}
	if req.Text == "" {
		respondError(c, errors.New(errors.ErrCodeEmptyDocument, "document text is empty"))
		return
	}

	docID := uuid.NewString()
	eventID, err := h.producer.SubmitDocument(c.Request.Context(), h.topic, kafka.DocumentSubmittedPayload{
		DocumentID: docID,
		Text:       req.Text,
		Verify:     req.Verify,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Info("document queued for analysis",
		logging.String("document_id", docID),
		logging.Int("length", len(req.Text)))
	c.JSON(http.StatusAccepted, submitResponse{
		DocumentID: docID,
		EventID:    eventID,
		Status:     "queued",
	})
}

// RecentVerifications lists the latest persisted verification outcomes.
// GET /api/v1/verifications/recent
func (h *CitationHandler) RecentVerifications(c *gin.Context) {
	if h.store == nil {
		respondError(c, errors.Unavailable("verification store is not configured"))
		return
	}
	limit := 20
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := parsePositiveInt(v, 100); err == nil {
			limit = n
		}
	}
	records, err := h.store.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if records == nil {
		records = []*citation.VerificationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"verifications": records})
}
