package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, method, path, authHeader string) (called bool, claims *Claims, code int) {
	t.Helper()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims = OperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(method, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return called, claims, w.Code
}

func TestGuard_SkipsNonAPIPath(t *testing.T) {
	mw := Guard(newTestTokenService(t))
	called, _, code := serve(t, mw, "POST", "/healthz", "")
	if !called || code != http.StatusOK {
		t.Errorf("called = %v, status = %d", called, code)
	}
}

func TestGuard_ReadsArePublic(t *testing.T) {
	mw := Guard(newTestTokenService(t))
	for _, method := range []string{"GET", "HEAD", "OPTIONS"} {
		called, claims, _ := serve(t, mw, method, "/api/v1/readings/readings", "")
		if !called {
			t.Errorf("%s should pass without a token", method)
		}
		if claims != nil {
			t.Errorf("%s: unexpected claims", method)
		}
	}
}

func TestGuard_ReadWithTokenSetsOperator(t *testing.T) {
	ts := newTestTokenService(t)
	token, _, err := ts.Issue("joao")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, claims, _ := serve(t, Guard(ts), "GET", "/api/v1/readings/readings", "Bearer "+token)
	if claims == nil || claims.Operator != "joao" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestGuard_WritesNeedToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, _, err := ts.Issue("joao")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantCalled bool
		wantCode   int
	}{
		{"no header", "", false, http.StatusUnauthorized},
		{"basic scheme", "Basic dXNlcjpwYXNz", false, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", false, http.StatusUnauthorized},
		{"bad token", "Bearer invalid.jwt.token", false, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, true, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, method := range []string{"POST", "PATCH", "DELETE"} {
				called, claims, code := serve(t, Guard(ts), method, "/api/v1/readings/readings", tc.header)
				if called != tc.wantCalled || code != tc.wantCode {
					t.Errorf("%s: called = %v status = %d, want %v %d", method, called, code, tc.wantCalled, tc.wantCode)
				}
				if tc.wantCalled && (claims == nil || claims.Operator != "joao") {
					t.Errorf("%s: claims = %+v", method, claims)
				}
			}
		})
	}
}

func TestGuard_NilServiceDisables(t *testing.T) {
	called, _, code := serve(t, Guard(nil), "DELETE", "/api/v1/readings/readings/1", "")
	if !called || code != http.StatusOK {
		t.Errorf("called = %v, status = %d", called, code)
	}
}

func TestOperatorFromContext_Nil(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if OperatorFromContext(req.Context()) != nil {
		t.Error("expected nil claims for empty context")
	}
}
