// internal/app/features/calls/routes_test.go
package calls

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulsemesh/pulsemesh/internal/app/system/auth"
	"github.com/pulsemesh/pulsemesh/internal/app/system/ratelimit"
	"github.com/pulsemesh/pulsemesh/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	h, _, _, _ := newTestHandler()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 32), "test-session", "", false, zap.NewNop())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	return Routes(h, sm, ratelimit.New(100, time.Minute))
}

func TestCreateCallIsAdminOnly(t *testing.T) {
	r := newTestRouter(t)
	body := `{"customerId":"` + primitive.NewObjectID().Hex() + `"}`

	cases := []struct {
		name string
		user testutil.TestUser
		want int
	}{
		{"admin", testutil.AdminUser(), 201},
		{"staff", testutil.StaffUser(), 403},
		{"customer", testutil.CustomerUser(), 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(body))
			req = testutil.WithUser(req, tc.user)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tc.want, rec.Body.String())
			}
			if tc.want == 403 && decodeErrKind(t, rec.Body.String()) != "forbidden" {
				t.Errorf("kind = %q, want forbidden", decodeErrKind(t, rec.Body.String()))
			}
		})
	}
}

func TestCallRoutesRequireSignIn(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/call-abc", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
