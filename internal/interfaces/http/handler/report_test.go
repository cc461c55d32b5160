package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hospfin/backend/internal/domain/identity"
	"github.com/hospfin/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportHandler_Unauthenticated(t *testing.T) {
	h := NewReportHandler(nil)

	endpoints := map[string]func(*gin.Context){
		"list":      h.ListReports,
		"stats":     h.GetReportStats,
		"get":       h.GetReport,
		"create":    h.CreateReport,
		"update":    h.UpdateReport,
		"delete":    h.DeleteReport,
		"submit":    h.SubmitReport,
		"approve":   h.ApproveReport,
		"archive":   h.ArchiveReport,
		"duplicate": h.DuplicateReport,
		"export":    h.ExportReport,
	}

	for name, endpoint := range endpoints {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)

			endpoint(c)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
		})
	}
}

func TestReportHandler_InvalidID(t *testing.T) {
	h := NewReportHandler(nil)

	endpoints := map[string]func(*gin.Context){
		"get":       h.GetReport,
		"delete":    h.DeleteReport,
		"submit":    h.SubmitReport,
		"duplicate": h.DuplicateReport,
		"export":    h.ExportReport,
	}

	for name, endpoint := range endpoints {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/reports/not-a-uuid", nil)
			c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
			setActorContext(c, identity.RoleFinance, "hosp-001")

			endpoint(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "INVALID_ID", resp.Error.Code)
		})
	}
}

func TestReportHandler_CreateReport_InvalidBody(t *testing.T) {
	h := NewReportHandler(nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"report_type":`},
		{name: "missing year", body: `{"report_type":"monthly"}`},
		{name: "bad report type", body: `{"report_type":"weekly","year":2025}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/reports", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")
			setActorContext(c, identity.RoleFinance, "hosp-001")

			h.CreateReport(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
