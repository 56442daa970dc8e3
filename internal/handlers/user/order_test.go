package user

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payContext(t *testing.T, body string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if body == "" {
		c.Request = httptest.NewRequest(http.MethodPut, "/api/orders/x/pay", nil)
	} else {
		c.Request = httptest.NewRequest(http.MethodPut, "/api/orders/x/pay", strings.NewReader(body))
	}
	return c
}

func TestBindPaymentResultAbsentBody(t *testing.T) {
	result, err := bindPaymentResult(payContext(t, ""))
	require.NoError(t, err)
	assert.Nil(t, result, "sans corps, aucun reçu ne doit être construit")
}

func TestBindPaymentResultWithPayload(t *testing.T) {
	result, err := bindPaymentResult(payContext(t, `{"id":"tx-42","status":"completed"}`))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "tx-42", result.ID)
	assert.Equal(t, "completed", result.Status)
}

func TestBindPaymentResultMalformed(t *testing.T) {
	_, err := bindPaymentResult(payContext(t, `{"id":`))
	assert.Error(t, err)
}
