package response

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"loyaltystay/errors"

	"github.com/gin-gonic/gin"
)

func TestFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"not found", errors.NotFound("Itinerary not found"), http.StatusNotFound, `"mess":"Itinerary not found"`},
		{"declined", errors.DeclinedPayment("Card was declined", stderrors.New("do_not_honor")), http.StatusPaymentRequired, `"error":"DECLINED_PAYMENT"`},
		{"plain", stderrors.New("pq: connection refused"), http.StatusInternalServerError, `"error":"UNKNOWN_ERROR"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			FromError(c, tc.err)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			if !strings.Contains(w.Body.String(), tc.body) {
				t.Fatalf("body = %s, want %s", w.Body.String(), tc.body)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Fatalf("cause leaked: %s", w.Body.String())
			}
		})
	}
}
