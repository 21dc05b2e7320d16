package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
	"github.com/ticketbook/backend/internal/interfaces/http/dto"
	"github.com/ticketbook/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type mockRecalculator struct {
	mock.Mock
}

func (m *mockRecalculator) RecalculateEvent(ctx context.Context, eventID uuid.UUID) (*commissionapp.RecalculationReport, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.RecalculationReport), args.Error(1)
}

func (m *mockRecalculator) RecalculateBook(ctx context.Context, bookID uuid.UUID) (*commissionapp.BookOutcome, error) {
	args := m.Called(ctx, bookID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.BookOutcome), args.Error(1)
}

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) ListCommissionRecords(ctx context.Context, eventID uuid.UUID, filter commissionapp.ListRecordsFilter) ([]commissionapp.CommissionRecordResponse, error) {
	args := m.Called(ctx, eventID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]commissionapp.CommissionRecordResponse), args.Error(1)
}

func (m *mockQuerier) SumCommission(ctx context.Context, eventID uuid.UUID) (*commissionapp.CommissionTotalResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.CommissionTotalResponse), args.Error(1)
}

func (m *mockQuerier) SummarizeByLevel1(ctx context.Context, eventID uuid.UUID) (*commissionapp.EventSummaryResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.EventSummaryResponse), args.Error(1)
}

type mockDiagnoser struct {
	mock.Mock
}

func (m *mockDiagnoser) Diagnose(ctx context.Context, eventID uuid.UUID) (*commissionapp.EventDiagnosticsResponse, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.EventDiagnosticsResponse), args.Error(1)
}

type mockPaymentRecorder struct {
	mock.Mock
}

func (m *mockPaymentRecorder) RecordPayment(ctx context.Context, req commissionapp.RecordPaymentRequest) (*commissionapp.RecordPaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.RecordPaymentResponse), args.Error(1)
}

func (m *mockPaymentRecorder) ImportPayments(ctx context.Context, req commissionapp.ImportPaymentsRequest) (*commissionapp.ImportPaymentsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commissionapp.ImportPaymentsResponse), args.Error(1)
}

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// performRequest serves a single request through a fresh engine carrying the
// request id middleware
func performRequest(t *testing.T, method, route, target string, body any, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Handle(method, route, h)

	var reader *bytes.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewReader([]byte(raw))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// decodeResponse decodes the envelope and re-decodes data into out when given
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return dto.Response{Success: envelope.Success, Error: envelope.Error}
}
