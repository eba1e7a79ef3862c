package bank

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"veridoc/internal/ledger"
	"veridoc/pkg/requestcontext"
)

type ClassifierSuite struct {
	suite.Suite

	store      *ledger.InMemoryStore
	audit      *ledger.Ledger
	classifier *Classifier
}

func (s *ClassifierSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.store = ledger.NewInMemoryStore()

	var err error
	s.audit, err = ledger.New(ledger.Config{Salt: "classifier-test"}, s.store, logger)
	s.Require().NoError(err)

	s.classifier, err = NewClassifier(DefaultThresholds(), s.audit, logger)
	s.Require().NoError(err)
}

func (s *ClassifierSuite) classify(text string) Classification {
	return s.classifier.Classify(context.Background(), text)
}

func (s *ClassifierSuite) lastEvent() ledger.Event {
	events, err := s.audit.List(context.Background(), ledger.Filter{})
	s.Require().NoError(err)
	s.Require().NotEmpty(events)
	return events[0]
}

func (s *ClassifierSuite) TestSantanderKeywordAndDate() {
	// Keyword (+0.3) and date pattern (+0.2), no account pattern: named but
	// not trusted.
	result := s.classify("ESTADO DE CUENTA SANTANDER\nPERIODO 01-ENE-2024 AL 31-ENE-2024")

	s.Equal("Santander", result.Issuer)
	s.Equal(50, result.Confidence)
	s.Equal(ParserSantander, result.Parser)
	s.True(result.UnreliableOrigin)
}

func (s *ClassifierSuite) TestSantanderFullFingerprint() {
	result := s.classify("ESTADO DE CUENTA SANTANDER\nPERIODO 01-ENE-2024\nCUENTA 01234567890")

	s.Equal("Santander", result.Issuer)
	s.Equal(70, result.Confidence)
	s.Equal(ParserSantander, result.Parser)
	s.True(result.UnreliableOrigin, "70 is still under the reliable bar")
}

func (s *ClassifierSuite) TestKeywordAloneFallsUnderNamingBar() {
	result := s.classify("transferencia recibida de santander")

	s.Equal(IssuerUnknown, result.Issuer)
	s.Equal(0, result.Confidence)
	s.Equal(ParserGeneric, result.Parser)
	s.True(result.UnreliableOrigin)
}

func (s *ClassifierSuite) TestNoCatalogMatchIsUnknown() {
	result := s.classify("recibo de luz CFE enero")

	s.Equal(IssuerUnknown, result.Issuer)
	s.Equal(0, result.Confidence)
	s.Equal(ParserGeneric, result.Parser)
}

func (s *ClassifierSuite) TestGenericParserNeverNamesIssuer() {
	for _, result := range []Classification{
		s.classify(""),
		s.classify("saldo final 999"),
		s.classify("BANCO DESCONOCIDO 12-ENE-2024"),
	} {
		if result.Parser == ParserGeneric {
			s.Equal(IssuerUnknown, result.Issuer)
		}
	}
}

func (s *ClassifierSuite) TestHighestScoreWins() {
	// BBVA has two keyword hits plus a date hit; the stray Santander mention
	// scores lower.
	result := s.classify("BBVA BANCOMER ESTADO DE CUENTA 01/ENE/2024 ref SANTANDER")

	s.Equal("BBVA", result.Issuer)
	s.Equal(ParserBBVA, result.Parser)
	s.Equal(80, result.Confidence)
	s.False(result.UnreliableOrigin)
}

func (s *ClassifierSuite) TestEveryClassificationIsAudited() {
	s.classify("SANTANDER 01-ENE-2024")

	event := s.lastEvent()
	s.Equal(ledger.ActionAccess, event.Action)
	s.Equal("bank/clasificar-origen", event.Process)
	s.Equal(ledger.OutcomeSuccess, event.Outcome)
	s.True(event.UnreliableOrigin)
	s.True(event.RequiresAttention)
	s.Contains(event.Reason, "issuer=Santander")
}

func (s *ClassifierSuite) TestReliableClassificationNotFlagged() {
	s.classify("BBVA BANCOMER 01/ENE/2024")

	event := s.lastEvent()
	s.False(event.UnreliableOrigin)
	s.False(event.RequiresAttention)
	s.Equal(ledger.SeverityInfo, event.Severity)
}

func (s *ClassifierSuite) TestActorRecordedFromContext() {
	ctx := requestcontext.WithActor(context.Background(), "auditor@despacho.mx")
	s.classifier.Classify(ctx, "SANTANDER 01-ENE-2024")

	s.Equal("auditor@despacho.mx", s.lastEvent().Actor)
}

func TestClassifierSuite(t *testing.T) {
	suite.Run(t, new(ClassifierSuite))
}

func TestThresholdValidation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit, err := ledger.New(ledger.Config{Salt: "s"}, ledger.NewInMemoryStore(), logger)
	require.NoError(t, err)

	cases := []struct {
		name       string
		thresholds Thresholds
	}{
		{"zero name threshold", Thresholds{NameThreshold: 0, ReliableThreshold: 80}},
		{"reliable below name", Thresholds{NameThreshold: 60, ReliableThreshold: 40}},
		{"over 100", Thresholds{NameThreshold: 40, ReliableThreshold: 110}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClassifier(tc.thresholds, audit, logger)
			assert.Error(t, err)
		})
	}
}

func TestValidateBalances(t *testing.T) {
	t.Run("balanced movements", func(t *testing.T) {
		report, err := ValidateBalances([]Movement{
			{Credit: 100, Debit: 0, Balance: 100},
			{Credit: 0, Debit: 40, Balance: 60},
		})
		require.NoError(t, err)

		assert.True(t, report.Balanced)
		assert.InDelta(t, 0, report.ImpliedOpening, 1e-9)
		assert.InDelta(t, 60, report.ProjectedClosing, 1e-9)
	})

	t.Run("perturbed closing balance fails", func(t *testing.T) {
		report, err := ValidateBalances([]Movement{
			{Credit: 100, Debit: 0, Balance: 100},
			{Credit: 0, Debit: 40, Balance: 61},
		})
		require.NoError(t, err)

		assert.False(t, report.Balanced)
		assert.InDelta(t, 1, report.Difference, 1e-9)
	})

	t.Run("nonzero opening reconstructed from first movement", func(t *testing.T) {
		report, err := ValidateBalances([]Movement{
			{Credit: 0, Debit: 250, Balance: 750},
			{Credit: 500, Debit: 0, Balance: 1250},
		})
		require.NoError(t, err)

		assert.True(t, report.Balanced)
		assert.InDelta(t, 1000, report.ImpliedOpening, 1e-9)
	})

	t.Run("sub-cent drift tolerated", func(t *testing.T) {
		report, err := ValidateBalances([]Movement{
			{Credit: 10.004, Debit: 0, Balance: 10.00},
			{Credit: 10.004, Debit: 0, Balance: 20.01},
		})
		require.NoError(t, err)

		assert.True(t, report.Balanced)
	})

	t.Run("empty list is an error", func(t *testing.T) {
		_, err := ValidateBalances(nil)
		assert.Error(t, err)
	})
}
