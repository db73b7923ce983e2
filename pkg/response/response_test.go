package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindingBody(t *testing.T, err error) Body {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	BindingError(c, err, "invalid request")

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeInvalidRequest, body.Code)
	return body
}

func TestBindingErrorHidesDetailInProduction(t *testing.T) {
	SetDevMode(false)
	body := bindingBody(t, errors.New("Key: 'LoginRequest.Email' Error:Field validation"))
	assert.Equal(t, "invalid request", body.Error)
}

func TestBindingErrorEchoesDetailInDevMode(t *testing.T) {
	SetDevMode(true)
	defer SetDevMode(false)
	body := bindingBody(t, errors.New("email is required"))
	assert.Equal(t, "invalid request: email is required", body.Error)
}
