package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func authFixture(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService("test-secret", "admin", string(hash))
}

func login(t *testing.T, a *AuthService, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	LoginHandler(a)(w, req)
	return w
}

func TestLoginIssuesAdminToken(t *testing.T) {
	a := authFixture(t)
	w := login(t, a, "admin", "hunter2")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	claims, err := a.Parse(resp["access_token"])
	if err != nil {
		t.Fatal(err)
	}
	if claims.Sub != "admin" || claims.Role != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	a := authFixture(t)
	if w := login(t, a, "admin", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", w.Code)
	}
	if w := login(t, a, "root", "hunter2"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong user: status = %d", w.Code)
	}
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	a := NewAuthService("test-secret", "admin", "")
	if w := login(t, a, "admin", "anything"); w.Code != http.StatusUnauthorized {
		t.Fatalf("login with no configured hash: status = %d", w.Code)
	}
}

func TestAdminOnlyMiddleware(t *testing.T) {
	a := authFixture(t)
	called := false
	h := AdminOnly(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/tests", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("missing bearer: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/tests", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || called {
		t.Fatalf("bad token: status = %d", w.Code)
	}

	tok, err := a.IssueJWT("admin", "admin")
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/admin/tests", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !called {
		t.Fatalf("valid token: status = %d, called = %v", w.Code, called)
	}
}
