package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/tools"
)

type fakeService struct {
	assessErr   error
	interpret   *models.InterpretationResult
	simulation  *models.SimulationReport
	simulateErr error
	profile     *models.WalletProfile
	chatErr     error
	panicOn     string

	lastAssess models.AssessTokenRequest
	lastChat   models.ChatRequest
}

func (f *fakeService) AssessToken(ctx context.Context, req models.AssessTokenRequest) (*models.AssessmentResult, error) {
	if f.panicOn == "roast" {
		panic("boom")
	}
	f.lastAssess = req
	if f.assessErr != nil {
		return nil, f.assessErr
	}
	return &models.AssessmentResult{Address: req.ContractAddress, TokenName: "Pepe (PEPE)", Verdict: models.VerdictSafe}, nil
}

func (f *fakeService) InterpretTransaction(ctx context.Context, req models.InterpretRequest) (*models.InterpretationResult, error) {
	return f.interpret, nil
}

func (f *fakeService) WalletProfile(ctx context.Context, req models.WalletRequest) (*models.WalletProfile, error) {
	return f.profile, nil
}

func (f *fakeService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error) {
	f.lastChat = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &models.ChatReply{Reply: "DYOR."}, nil
}

func (f *fakeService) Simulate(ctx context.Context, req models.InterpretRequest) (*models.SimulationReport, error) {
	return f.simulation, f.simulateErr
}

func newTestServer(svc Service) http.Handler {
	return NewServer(":0", svc, zerolog.Nop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body map[string]errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandleRoast(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/roast", `{"contractAddress":"0x6982508145454ce325ddbe47a25d4ec3d2311933","fromAddress":"0xd8da6bf26964af9d7eed9e03e53415d37aa96045"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var result models.AssessmentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.VerdictSafe, result.Verdict)
	assert.Equal(t, "0xd8da6bf26964af9d7eed9e03e53415d37aa96045", svc.lastAssess.FromAddress)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    models.ErrorKind
		wantMessage string
	}{
		{"invalid input", models.NewInvalidInputError("contractAddress is required"), http.StatusBadRequest, models.KindInvalidInput, "contractAddress is required"},
		{"not found", &tools.StageError{Pipeline: "roast", Stage: "fetch_facts", Err: models.NewNotFoundError("no security data for 0xabc")}, http.StatusNotFound, models.KindNotFound, "no security data for 0xabc"},
		{"upstream", models.NewUpstreamError("goplus", errors.New("dial tcp 10.0.0.1:443: i/o timeout")), http.StatusBadGateway, models.KindUpstreamUnavailable, "goplus unavailable"},
		{"generation parse", models.NewGenerationParseError("lol", errors.New("no JSON object in output")), http.StatusInternalServerError, models.KindGenerationParse, "narrative output did not match the expected schema"},
		{"deadline", fmt.Errorf("roast: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, models.KindInternal, "request timed out"},
		{"internal", errors.New("secret database password leaked"), http.StatusInternalServerError, models.KindInternal, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&fakeService{assessErr: tt.err})

			rec := do(t, h, http.MethodPost, "/api/v1/roast", `{"contractAddress":"0xabc"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.wantKind, body.Kind)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.NotContains(t, rec.Body.String(), "i/o timeout")
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/api/v1/roast", `{"contractAddress":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.KindInvalidInput, decodeError(t, rec).Kind)

	huge := `{"contractAddress":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec = do(t, h, http.MethodPost, "/api/v1/roast", huge)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSimulate(t *testing.T) {
	report := &models.SimulationReport{
		Status: models.SimulationSucceeded,
		Changes: []models.AssetChange{
			{Asset: "native", Symbol: "ETH", Amount: "-1.5", Direction: models.DirectionTransfer},
			{Asset: "0x6982508145454ce325ddbe47a25d4ec3d2311933", Symbol: "PEPE", Amount: "420000", Direction: models.DirectionTransfer},
			{Asset: "0x6982508145454ce325ddbe47a25d4ec3d2311933", Symbol: "PEPE", Amount: "unlimited", Direction: models.DirectionApprove, Unlimited: true},
		},
	}
	h := newTestServer(&fakeService{simulation: report})

	rec := do(t, h, http.MethodPost, "/api/v1/simulate", `{"fromAddress":"0x1","toAddress":"0x2"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp simulateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Lost, 1)
	assert.Equal(t, "ETH", resp.Lost[0].Symbol)
	require.Len(t, resp.Gained, 1)
	assert.Equal(t, "PEPE", resp.Gained[0].Symbol)
	assert.Len(t, resp.Simulation.Changes, 3)
}

func TestHandleSimulate_Failure(t *testing.T) {
	h := newTestServer(&fakeService{simulateErr: models.NewUpstreamError("alchemy", errors.New("execution reverted"))})

	rec := do(t, h, http.MethodPost, "/api/v1/simulate", `{"fromAddress":"0x1","toAddress":"0x2"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleInterpretAndRecord(t *testing.T) {
	svc := &fakeService{
		interpret: &models.InterpretationResult{Summary: "Swaps ETH for PEPE", RiskLevel: models.RiskMedium},
		profile:   &models.WalletProfile{Address: "0x2222222222222222222222222222222222222222", DegenLevel: models.DegenWanted},
	}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/interpret", `{"fromAddress":"0x1","toAddress":"0x2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"riskLevel":"MEDIUM"`)

	rec = do(t, h, http.MethodPost, "/api/v1/criminal-record", `{"walletAddress":"0x2222222222222222222222222222222222222222"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degenLevel":"WANTED"`)
}

func TestHandleChat(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(svc)

	rec := do(t, h, http.MethodPost, "/api/v1/chat", `{"messages":[{"role":"user","content":"moon?"}],"tokenContext":{"address":"0xabc","verdict":"RISKY"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"DYOR."}`, rec.Body.String())
	require.NotNil(t, svc.lastChat.TokenContext)
	assert.Equal(t, models.VerdictRisky, svc.lastChat.TokenContext.Verdict)

	svc.chatErr = models.NewInvalidInputError("messages must not be empty")
	rec = do(t, h, http.MethodPost, "/api/v1/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthNetworksAndMetrics(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = do(t, h, http.MethodGet, "/api/v1/networks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ethereum"`)
	assert.NotContains(t, rec.Body.String(), "alchemy.com")

	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "walletroast_http_requests_total")
}

func TestMiddleware(t *testing.T) {
	h := newTestServer(&fakeService{panicOn: "roast"})

	rec := do(t, h, http.MethodOptions, "/api/v1/roast", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodPost, "/api/v1/roast", `{"contractAddress":"0xabc"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, models.KindInternal, decodeError(t, rec).Kind)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	recorder := httptest.NewRecorder()
	h.ServeHTTP(recorder, req)
	assert.Equal(t, "req-123", recorder.Header().Get("X-Request-ID"))
}
