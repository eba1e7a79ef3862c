package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"veridoc/internal/ledger"
	"veridoc/pkg/domain"
)

type LedgerHandlerSuite struct {
	suite.Suite

	store  *ledger.InMemoryStore
	audit  *ledger.Ledger
	server *httptest.Server
}

func (s *LedgerHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = ledger.NewInMemoryStore()

	var err error
	s.audit, err = ledger.New(ledger.Config{Salt: "ledger-handler-test"}, s.store, logger)
	s.Require().NoError(err)

	mux := chi.NewRouter()
	New(s.audit, logger).Register(mux)
	s.server = httptest.NewServer(mux)
}

func (s *LedgerHandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *LedgerHandlerSuite) appendEvent(action ledger.Action, attention bool) ledger.Event {
	receipt, err := s.audit.Append(context.Background(), ledger.Event{
		Action:            action,
		Process:           "cfdi/importar-xml",
		RequiresAttention: attention,
	})
	s.Require().NoError(err)

	event, err := s.audit.Find(context.Background(), receipt.EventID)
	s.Require().NoError(err)
	return event
}

func (s *LedgerHandlerSuite) get(path string, out any) int {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *LedgerHandlerSuite) TestVerifyIntactEvent() {
	event := s.appendEvent(ledger.ActionAllow, false)

	var result ledger.VerifyResult
	status := s.get("/ledger/"+event.ID.String()+"/verify", &result)

	s.Equal(http.StatusOK, status)
	s.True(result.Intact)
	s.Equal(result.StoredHash, result.RecomputedHash)
}

func (s *LedgerHandlerSuite) TestVerifyTamperedEventReportsMismatchAsData() {
	event := s.appendEvent(ledger.ActionAllow, false)
	s.Require().True(s.store.Tamper(event.ID, func(e *ledger.Event) {
		e.Outcome = ledger.OutcomeFailed
	}))

	var result ledger.VerifyResult
	status := s.get("/ledger/"+event.ID.String()+"/verify", &result)

	s.Equal(http.StatusOK, status, "a violation is data, not an HTTP error")
	s.False(result.Intact)
	s.NotEqual(result.StoredHash, result.RecomputedHash)
}

func (s *LedgerHandlerSuite) TestVerifyUnknownEventIs404() {
	status := s.get("/ledger/"+domain.NewEventID().String()+"/verify", nil)
	s.Equal(http.StatusNotFound, status)
}

func (s *LedgerHandlerSuite) TestVerifyMalformedIDIs400() {
	status := s.get("/ledger/not-a-uuid/verify", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *LedgerHandlerSuite) TestListFiltersAttentionPending() {
	s.appendEvent(ledger.ActionAllow, false)
	flagged := s.appendEvent(ledger.ActionRelocate, true)

	var body struct {
		Events []ledger.Event `json:"events"`
	}
	status := s.get("/ledger?attention_pending=true", &body)

	s.Equal(http.StatusOK, status)
	s.Require().Len(body.Events, 1)
	s.Equal(flagged.ID, body.Events[0].ID)
}

func (s *LedgerHandlerSuite) TestReviewClearsPendingQueue() {
	flagged := s.appendEvent(ledger.ActionRelocate, true)

	payload, err := json.Marshal(map[string]string{"reviewed_by": "ops@despacho.mx"})
	s.Require().NoError(err)

	resp, err := http.Post(s.server.URL+"/ledger/"+flagged.ID.String()+"/review", "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)

	reviewed, err := s.audit.Find(context.Background(), flagged.ID)
	s.Require().NoError(err)
	s.True(reviewed.Reviewed)
	s.Equal("ops@despacho.mx", reviewed.ReviewedBy)

	// The review pair is outside the commitment, so the row stays intact.
	s.True(s.audit.VerifyEvent(reviewed).Intact)

	var body struct {
		Events []ledger.Event `json:"events"`
	}
	s.get("/ledger?attention_pending=true", &body)
	s.Empty(body.Events)
}

func (s *LedgerHandlerSuite) TestReviewWithoutReviewerIs400() {
	flagged := s.appendEvent(ledger.ActionRelocate, true)

	resp, err := http.Post(s.server.URL+"/ledger/"+flagged.ID.String()+"/review", "application/json", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *LedgerHandlerSuite) TestExportPairsRowsWithVerification() {
	intact := s.appendEvent(ledger.ActionAllow, false)
	tampered := s.appendEvent(ledger.ActionReject, false)
	s.Require().True(s.store.Tamper(tampered.ID, func(e *ledger.Event) {
		e.PayloadSummary = "doctored"
	}))

	var export ExportResponse
	status := s.get("/ledger/export", &export)

	s.Equal(http.StatusOK, status)
	s.Equal(2, export.Total)
	s.Equal(1, export.Violations)

	byID := map[domain.EventID]ExportRow{}
	for _, row := range export.Rows {
		byID[row.Event.ID] = row
	}
	s.True(byID[intact.ID].Verification.Intact)
	s.False(byID[tampered.ID].Verification.Intact)
}

func (s *LedgerHandlerSuite) TestListRejectsBadLimit() {
	status := s.get("/ledger?limit=zero", nil)
	s.Equal(http.StatusBadRequest, status)
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}
