package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"portal-mailer/internal/mailer"
	"portal-mailer/internal/transport/http/mocks"
	derrors "portal-mailer/pkg/domain-errors"
)

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func newTestHandler(t *testing.T, development bool) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, development, "http://portal-mailer:3003/ping")
	return NewRouter(h, logger), mockService
}

func postBatch(t *testing.T, router http.Handler, batch []mailer.Event) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(batch)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) TestWebhooksOK() {
	router, mockService := newTestHandler(s.T(), false)
	batch := []mailer.Event{{ID: "e1", Entity: "application", Action: "add"}}
	mockService.EXPECT().Submit(gomock.Any(), batch).Return(nil)

	w := postBatch(s.T(), router, batch)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"message":"OK"}`, w.Body.String())
}

func (s *HandlerSuite) TestWebhooksWhileInitializing() {
	router, mockService := newTestHandler(s.T(), false)
	mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).
		Return(derrors.New(derrors.CodeNotReady, "service is initializing"))

	w := postBatch(s.T(), router, []mailer.Event{{ID: "e1"}})

	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.JSONEq(`{"message":"Initializing."}`, w.Body.String())
}

func (s *HandlerSuite) TestWebhooksInvalidBody() {
	router, _ := newTestHandler(s.T(), false)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"not":"an array"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestWebhooksHardFailure() {
	batchErr := derrors.New(derrors.CodeUpstreamUnavailable, "DELETE webhooks/events/mailer/e1 returned status 502, expected 204")

	s.Run("development leaks the error detail", func() {
		router, mockService := newTestHandler(s.T(), true)
		mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(batchErr)

		w := postBatch(s.T(), router, []mailer.Event{{ID: "e1"}})
		s.Equal(http.StatusInternalServerError, w.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Contains(body["message"], "502")
		errObj := body["error"].(map[string]any)
		s.Equal("upstream_unavailable", errObj["code"])
	})

	s.Run("production returns an empty error object", func() {
		router, mockService := newTestHandler(s.T(), false)
		mockService.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(batchErr)

		w := postBatch(s.T(), router, []mailer.Event{{ID: "e1"}})
		s.Equal(http.StatusInternalServerError, w.Code)

		var body map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("Internal Server Error", body["message"])
		s.Empty(body["error"].(map[string]any))
	})
}

func (s *HandlerSuite) TestPing() {
	getPing := func(router http.Handler) (*httptest.ResponseRecorder, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		var body map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
		return w, body
	}

	s.Run("nominal", func() {
		router, mockService := newTestHandler(s.T(), false)
		mockService.EXPECT().Health().Return(true, nil)

		w, body := getPing(router)
		s.Equal(http.StatusOK, w.Code)
		s.Equal("mailer", body["name"])
		s.Equal(float64(1), body["healthy"])
		s.Equal("Up and running", body["message"])
		s.Equal("http://portal-mailer:3003/ping", body["pingUrl"])
		s.NotContains(body, "error")
	})

	s.Run("still initializing", func() {
		router, mockService := newTestHandler(s.T(), false)
		mockService.EXPECT().Health().Return(false, nil)

		w, body := getPing(router)
		s.Equal(http.StatusServiceUnavailable, w.Code)
		s.Equal(float64(2), body["healthy"])
		s.Equal("Initializing - Waiting for API", body["message"])
	})

	s.Run("last batch failed", func() {
		router, mockService := newTestHandler(s.T(), false)
		lastErr := derrors.New(derrors.CodeTransportFailure, "send email for event e7: smtp send to joe@x.com: connection refused")
		mockService.EXPECT().Health().Return(true, lastErr)

		w, body := getPing(router)
		s.Equal(http.StatusInternalServerError, w.Code)
		s.Equal(float64(0), body["healthy"])
		// The health endpoint exposes the message even in production.
		assert.Contains(s.T(), body["message"], "connection refused")
		s.Equal("transport_failure", body["error"])
	})
}
