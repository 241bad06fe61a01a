package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"quotedesk/internal/app"
	"quotedesk/internal/auth"
	"quotedesk/pkg/domain"
	"quotedesk/pkg/storage"
	"quotedesk/pkg/store"
)

type testEnv struct {
	server   *Server
	store    *store.MemoryStore
	sessions store.SessionStore
	mailer   *recordingMailer
}

type recordingMailer struct {
	urls []string
}

func (m *recordingMailer) SendSignInLink(_ context.Context, _, link string) error {
	m.urls = append(m.urls, link)
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := store.NewMemoryStore()
	sessions := store.NewDatabaseSessionStore(s, time.Hour)
	objects, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080/files")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	application, err := app.New(app.Config{Store: s, Objects: objects})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	mailer := &recordingMailer{}
	authSvc, err := auth.NewService(auth.Config{
		Store:    s,
		Sessions: sessions,
		Mailer:   mailer,
		BaseURL:  "http://localhost:3000",
	})
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	srv, err := New(Config{App: application, Auth: authSvc, Sessions: sessions})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testEnv{server: srv, store: s, sessions: sessions, mailer: mailer}
}

func (e *testEnv) signedInUser(t *testing.T, email string, role domain.Role) (domain.User, string) {
	t.Helper()
	u, err := e.store.CreateUser(context.Background(), domain.User{Email: email, Role: role})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := e.sessions.NewSession(context.Background(), u)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return u, token
}

func (e *testEnv) rpc(t *testing.T, token, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPublicRoutesNeedNoSession(t *testing.T) {
	e := newTestEnv(t)
	rec := e.rpc(t, "", "/api/rpc/product.getAll", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = e.rpc(t, "", "/api/rpc/category.getAll", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthenticatedRoutesReject(t *testing.T) {
	e := newTestEnv(t)
	rec := e.rpc(t, "", "/api/rpc/quotation.getAll", map[string]any{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d", rec.Code)
	}
	resp := decodeBody[map[string]string](t, rec)
	if resp["code"] != codeUnauthorized {
		t.Fatalf("code = %q", resp["code"])
	}
	rec = e.rpc(t, "bogus-token", "/api/rpc/quotation.getAll", map[string]any{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d", rec.Code)
	}
}

func TestRoleGateMatrix(t *testing.T) {
	e := newTestEnv(t)
	_, clientTok := e.signedInUser(t, "c@example.com", domain.RoleClient)
	_, distTok := e.signedInUser(t, "d@example.com", domain.RoleDistributor)
	_, adminTok := e.signedInUser(t, "a@example.com", domain.RoleAdmin)

	product := map[string]any{"name": "widget", "price": 10}
	cases := []struct {
		path  string
		body  any
		token string
		want  int
	}{
		{"/api/rpc/product.create", product, clientTok, http.StatusForbidden},
		{"/api/rpc/product.create", product, distTok, http.StatusOK},
		{"/api/rpc/product.create", product, adminTok, http.StatusOK},
		{"/api/rpc/user.getAll", map[string]any{}, clientTok, http.StatusForbidden},
		{"/api/rpc/user.getAll", map[string]any{}, distTok, http.StatusForbidden},
		{"/api/rpc/user.getAll", map[string]any{}, adminTok, http.StatusOK},
		{"/api/rpc/user.getClients", map[string]any{}, clientTok, http.StatusForbidden},
		{"/api/rpc/user.getClients", map[string]any{}, distTok, http.StatusOK},
		{"/api/rpc/category.create", map[string]any{"name": fmt.Sprintf("cat-%d", time.Now().UnixNano())}, distTok, http.StatusForbidden},
	}
	for _, tc := range cases {
		rec := e.rpc(t, tc.token, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d (body %s)", tc.path, rec.Code, tc.want, rec.Body.String())
		}
	}
}

func TestElevatedGateUsesPersistedRole(t *testing.T) {
	e := newTestEnv(t)
	u, token := e.signedInUser(t, "d@example.com", domain.RoleDistributor)

	// Demote after the session was issued; the stale claim must not win.
	role := domain.RoleClient
	if _, err := e.store.UpdateUser(context.Background(), u.ID, store.UserPatch{Role: &role}); err != nil {
		t.Fatalf("demote: %v", err)
	}
	rec := e.rpc(t, token, "/api/rpc/product.create", map[string]any{"name": "widget", "price": 10})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 after demotion", rec.Code)
	}
}

func TestQuotationFlowOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	dist, distTok := e.signedInUser(t, "d@example.com", domain.RoleDistributor)
	client, clientTok := e.signedInUser(t, "c@example.com", domain.RoleClient)
	p := mustProduct(t, e, dist)

	rec := e.rpc(t, distTok, "/api/rpc/quotation.create", map[string]any{
		"title":    "Order",
		"clientId": client.ID,
		"items":    []map[string]any{{"productId": p.ID, "quantity": 2, "unitPrice": 10}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	q := decodeBody[domain.Quotation](t, rec)
	if q.TotalAmount != 20 {
		t.Fatalf("total = %v", q.TotalAmount)
	}

	rec = e.rpc(t, clientTok, "/api/rpc/quotation.getById", map[string]string{"id": q.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("client get: %d", rec.Code)
	}
	rec = e.rpc(t, clientTok, "/api/rpc/quotation.delete", map[string]string{"id": q.ID})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("client delete: %d, want 403", rec.Code)
	}
	rec = e.rpc(t, distTok, "/api/rpc/quotation.delete", map[string]string{"id": q.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("creator delete: %d", rec.Code)
	}
	rec = e.rpc(t, distTok, "/api/rpc/quotation.getById", map[string]string{"id": q.ID})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d, want 404", rec.Code)
	}
}

func TestValidationErrorsSurfaceAsBadRequest(t *testing.T) {
	e := newTestEnv(t)
	_, distTok := e.signedInUser(t, "d@example.com", domain.RoleDistributor)

	rec := e.rpc(t, distTok, "/api/rpc/product.create", map[string]any{"name": "widget", "price": -1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decodeBody[map[string]string](t, rec)
	if resp["code"] != codeValidation {
		t.Fatalf("code = %q", resp["code"])
	}
}

func TestSignInCallbackSignOutFlow(t *testing.T) {
	e := newTestEnv(t)

	rec := e.rpc(t, "", "/api/rpc/auth.signIn", map[string]string{"email": "new@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("sign in: %d %s", rec.Code, rec.Body.String())
	}
	if len(e.mailer.urls) != 1 {
		t.Fatalf("expected one mail, got %d", len(e.mailer.urls))
	}

	link, err := url.Parse(e.mailer.urls[0])
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+link.RawQuery, nil)
	cb := httptest.NewRecorder()
	e.server.Router().ServeHTTP(cb, req)
	if cb.Code != http.StatusOK {
		t.Fatalf("callback: %d %s", cb.Code, cb.Body.String())
	}
	var out struct {
		User         domain.User `json:"user"`
		SessionToken string      `json:"sessionToken"`
	}
	if err := json.Unmarshal(cb.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode callback: %v", err)
	}
	if out.User.Role != domain.RoleClient {
		t.Fatalf("role = %q", out.User.Role)
	}
	if out.SessionToken == "" {
		t.Fatal("expected session token")
	}

	// Replay is rejected.
	replay := httptest.NewRecorder()
	e.server.Router().ServeHTTP(replay, httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+link.RawQuery, nil))
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replay: %d, want 401", replay.Code)
	}

	rec = e.rpc(t, out.SessionToken, "/api/rpc/user.me", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	rec = e.rpc(t, out.SessionToken, "/api/rpc/auth.signOut", map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("sign out: %d", rec.Code)
	}
	rec = e.rpc(t, out.SessionToken, "/api/rpc/user.me", map[string]any{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after sign out: %d, want 401", rec.Code)
	}
}

func TestSessionCookieAccepted(t *testing.T) {
	e := newTestEnv(t)
	_, token := e.signedInUser(t, "c@example.com", domain.RoleClient)

	req := httptest.NewRequest(http.MethodPost, "/api/rpc/user.me", bytes.NewReader([]byte("{}")))
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAttachmentUploadOverHTTP(t *testing.T) {
	e := newTestEnv(t)
	dist, distTok := e.signedInUser(t, "d@example.com", domain.RoleDistributor)
	client, _ := e.signedInUser(t, "c@example.com", domain.RoleClient)
	p := mustProduct(t, e, dist)

	rec := e.rpc(t, distTok, "/api/rpc/quotation.create", map[string]any{
		"title":    "Order",
		"clientId": client.ID,
		"items":    []map[string]any{{"productId": p.ID, "quantity": 1, "unitPrice": 10}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create quotation: %d", rec.Code)
	}
	q := decodeBody[domain.Quotation](t, rec)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("quotationId", q.ID); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "offer.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("pdf-bytes")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/attachments/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+distTok)
	up := httptest.NewRecorder()
	e.server.Router().ServeHTTP(up, req)
	if up.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", up.Code, up.Body.String())
	}
	att := decodeBody[domain.Attachment](t, up)
	if att.FileName != "offer.pdf" {
		t.Fatalf("file name = %q", att.FileName)
	}

	rec = e.rpc(t, distTok, "/api/rpc/attachment.getURL", map[string]string{"id": att.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("get url: %d %s", rec.Code, rec.Body.String())
	}
	urlResp := decodeBody[map[string]string](t, rec)
	if urlResp["url"] == "" {
		t.Fatal("expected presigned url")
	}
}

func mustProduct(t *testing.T, e *testEnv, owner domain.User) domain.Product {
	t.Helper()
	p, err := e.store.CreateProduct(context.Background(), domain.Product{
		Name: "widget", Price: 10, InStock: true, UserID: owner.ID,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}
