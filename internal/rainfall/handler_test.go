package rainfall

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/internal/organizations"
)

func TestRecordRequestValidate(t *testing.T) {
	cases := []struct {
		name string
		req  RecordRequest
		ok   bool
	}{
		{"valid", RecordRequest{Date: "2026-08-01", AmountMM: 12.5}, true},
		{"zero amount", RecordRequest{Date: "2026-08-01"}, true},
		{"bad date", RecordRequest{Date: "01-08-2026", AmountMM: 1}, false},
		{"not a date", RecordRequest{Date: "soon", AmountMM: 1}, false},
		{"negative amount", RecordRequest{Date: "2026-08-01", AmountMM: -0.1}, false},
		{"notes too long", RecordRequest{Date: "2026-08-01", Notes: strings.Repeat("x", maxNotesLen+1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, msg := tc.req.validate()
			if tc.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

type fakeStore struct {
	Store
	upserted *models.RainfallRecord
}

func (f *fakeStore) Upsert(_ context.Context, orgID uuid.UUID, day time.Time, amountMM float64, notes string, recordedBy uuid.UUID) (*models.RainfallRecord, error) {
	f.upserted = &models.RainfallRecord{
		ID:             uuid.New(),
		OrganizationID: orgID,
		RecordedOn:     day,
		AmountMM:       amountMM,
		Notes:          notes,
		RecordedBy:     &recordedBy,
	}
	return f.upserted, nil
}

func TestRecordRainfall(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orgID := uuid.New()
	caller := &authz.Caller{User: &models.User{ID: uuid.New()}}

	store := &fakeStore{}
	h := NewHandler(store, zap.NewNop())
	router := gin.New()
	router.POST("/organizations/:id/rainfall", func(c *gin.Context) {
		c.Set(authz.ContextCaller, caller)
		c.Set(organizations.ContextOrganizationID, orgID)
	}, h.Record)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/organizations/"+orgID.String()+"/rainfall",
		strings.NewReader(`{"date":"2026-08-15","amount_mm":7.2,"notes":"evening storm"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.upserted)
	assert.Equal(t, orgID, store.upserted.OrganizationID)
	assert.Equal(t, 7.2, store.upserted.AmountMM)
	assert.Equal(t, caller.User.ID, *store.upserted.RecordedBy)
}
