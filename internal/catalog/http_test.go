package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"Storefront/internal/auth"
	"Storefront/internal/catalog"
)

const (
	jwtSecret     = "test-secret-test-secret-test-secret"
	adminEmail    = "admin@example.com"
	adminPassword = "password123"
	metricsToken  = "metrics-token"
)

type testEnv struct {
	ts      *httptest.Server
	catalog *catalog.Catalog
	slots   *catalog.MemSlots
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	slots := catalog.NewMemSlots()
	store := catalog.New(catalog.Options{Slots: slots, ResetOnStart: true})

	jwt := auth.NewTokenMaker(jwtSecret)
	users := auth.NewMemStoreWithCost(bcrypt.MinCost)
	if err := users.Create(context.Background(), adminEmail, adminPassword, auth.RoleAdmin, "u_admin"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if err := users.Create(context.Background(), "shopper@example.com", adminPassword, auth.RoleUser, "u_shopper"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	s := &catalog.Server{
		Catalog:      store,
		Log:          zap.NewNop(),
		RequireAdmin: auth.RequireRole(jwt, auth.RoleAdmin),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "catalog",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   metricsToken,
		Auth:           (&auth.Server{Log: zap.NewNop(), Store: users, JWT: jwt}).Routes(),
	})
	store.Initialize(context.Background())

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, catalog: store, slots: slots}
}

func doJSON(t *testing.T, method, url string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, env *testEnv, email string) string {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, env.ts.URL+"/auth/login", map[string]any{
		"email":    email,
		"password": adminPassword,
	}, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, raw)
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil || lr.AccessToken == "" {
		t.Fatalf("decode login: %v body=%s", err, raw)
	}
	return lr.AccessToken
}

func decodeProducts(t *testing.T, raw []byte) []catalog.Product {
	t.Helper()

	var ps []catalog.Product
	if err := json.Unmarshal(raw, &ps); err != nil {
		t.Fatalf("decode products: %v body=%s", err, raw)
	}
	return ps
}

func TestHTTP_Probes(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, raw := doJSON(t, http.MethodGet, env.ts.URL+path, nil, "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, resp.StatusCode, raw)
		}
	}
}

func TestHTTP_ReadyzWhileLoading(t *testing.T) {
	store := catalog.New(catalog.Options{})
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Catalog: store}, catalog.HTTPDeps{}))
	t.Cleanup(ts.Close)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/readyz", nil, "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	store.Initialize(context.Background())

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/readyz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestHTTP_ListAndGet(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := doJSON(t, http.MethodGet, env.ts.URL+"/products", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status=%d", resp.StatusCode)
	}
	ps := decodeProducts(t, raw)
	if len(ps) != len(catalog.BuiltinSeed()) {
		t.Fatalf("len=%d", len(ps))
	}
	if ps[0].ID != "1" || ps[0].Name != "Belo Color" {
		t.Fatalf("first product=%+v", ps[0])
	}

	resp, raw = doJSON(t, http.MethodGet, env.ts.URL+"/products/1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status=%d", resp.StatusCode)
	}
	var p catalog.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Name != "Belo Color" {
		t.Fatalf("name=%q", p.Name)
	}

	resp, _ = doJSON(t, http.MethodGet, env.ts.URL+"/products/nope", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status=%d", resp.StatusCode)
	}
}

func TestHTTP_CategoryFilter(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := doJSON(t, http.MethodGet, env.ts.URL+"/categories", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("categories status=%d", resp.StatusCode)
	}
	var cats []string
	if err := json.Unmarshal(raw, &cats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cats) != 13 {
		t.Fatalf("categories=%v", cats)
	}

	q := "?category=" + strings.ReplaceAll("Natural / Herbal Products", " ", "+")
	resp, raw = doJSON(t, http.MethodGet, env.ts.URL+"/products"+q, nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filter status=%d", resp.StatusCode)
	}
	got := decodeProducts(t, raw)
	want := env.catalog.ProductsByCategory("Natural / Herbal Products")
	if len(got) == 0 || len(got) != len(want) {
		t.Fatalf("got=%d want=%d", len(got), len(want))
	}
	for i := range got {
		if got[i].ID != want[i].ID {
			t.Fatalf("order mismatch at %d: %s vs %s", i, got[i].ID, want[i].ID)
		}
	}

	resp, raw = doJSON(t, http.MethodGet, env.ts.URL+"/products?category=unknown", nil, "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("unknown category status=%d body=%s", resp.StatusCode, raw)
	}
}

func TestHTTP_WritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{"name": "X", "category": "Razors", "description": "d", "image": "/x.png", "features": []string{}}

	resp, _ := doJSON(t, http.MethodPost, env.ts.URL+"/products", body, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, env.ts.URL+"/products", body, "garbage")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", resp.StatusCode)
	}

	shopper := login(t, env, "shopper@example.com")
	resp, _ = doJSON(t, http.MethodDelete, env.ts.URL+"/products/1", nil, shopper)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("user token status=%d", resp.StatusCode)
	}

	if _, ok := env.catalog.GetProduct("1"); !ok {
		t.Fatalf("product 1 removed without admin")
	}
}

func TestHTTP_AdminLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tok := login(t, env, adminEmail)
	seedLen := len(catalog.BuiltinSeed())

	var created catalog.Product
	{
		resp, raw := doJSON(t, http.MethodPost, env.ts.URL+"/products", map[string]any{
			"name":        "X",
			"category":    "Razors",
			"description": "d",
			"image":       "/x.png",
			"features":    []string{},
		}, tok)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add status=%d body=%s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.ID == "" || len(created.Images) != 1 || created.Images[0] != "/x.png" {
			t.Fatalf("created=%+v", created)
		}
		if n := len(env.catalog.Products()); n != seedLen+1 {
			t.Fatalf("len=%d", n)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodPut, env.ts.URL+"/products/1", map[string]any{
			"name":        "Belo Color XL",
			"category":    "Cosmetics & Personal Care",
			"description": "bigger",
			"image":       "/balo-color-1.jpg",
			"features":    []string{"Long-lasting color"},
		}, tok)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("update status=%d body=%s", resp.StatusCode, raw)
		}
		ps := env.catalog.Products()
		if ps[0].ID != "1" || ps[0].Name != "Belo Color XL" {
			t.Fatalf("first=%+v", ps[0])
		}
	}

	{
		resp, _ := doJSON(t, http.MethodPut, env.ts.URL+"/products/nope", map[string]any{"name": "n"}, tok)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("update missing status=%d", resp.StatusCode)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodPost, env.ts.URL+"/products", map[string]any{"id": "forced", "name": "n"}, tok)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("unknown field status=%d body=%s", resp.StatusCode, raw)
		}
	}

	{
		resp, _ := doJSON(t, http.MethodDelete, env.ts.URL+"/products/"+created.ID, nil, tok)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("delete status=%d", resp.StatusCode)
		}
		resp, _ = doJSON(t, http.MethodGet, env.ts.URL+"/products/"+created.ID, nil, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("get deleted status=%d", resp.StatusCode)
		}
	}

	{
		resp, raw := doJSON(t, http.MethodPost, env.ts.URL+"/products/reset", nil, tok)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("reset status=%d", resp.StatusCode)
		}
		ps := decodeProducts(t, raw)
		if len(ps) != seedLen || ps[0].Name != "Belo Color" {
			t.Fatalf("reset products len=%d first=%+v", len(ps), ps[0])
		}
		if _, ok, _ := env.slots.Get(context.Background(), catalog.DefaultSnapshotKey); ok {
			t.Fatalf("snapshot not removed by reset")
		}
	}
}

func TestHTTP_ReadOnlyWithoutAdmin(t *testing.T) {
	store := catalog.New(catalog.Options{})
	store.Initialize(context.Background())

	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Catalog: store}, catalog.HTTPDeps{}))
	t.Cleanup(ts.Close)

	resp, _ := doJSON(t, http.MethodDelete, ts.URL+"/products/1", nil, "")
	if resp.StatusCode != http.StatusMethodNotAllowed && resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if _, ok := store.GetProduct("1"); !ok {
		t.Fatalf("product deleted on read-only server")
	}
}

func TestHTTP_MissingProviderIsServerError(t *testing.T) {
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{}, catalog.HTTPDeps{}))
	t.Cleanup(ts.Close)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/products", nil, "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status=%d", resp.StatusCode)
	}
}

func TestHTTP_MetricsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := doJSON(t, http.MethodGet, env.ts.URL+"/metrics", nil, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("no token status=%d", resp.StatusCode)
	}

	doJSON(t, http.MethodGet, env.ts.URL+"/products/1", nil, "")

	resp, raw := doJSON(t, http.MethodGet, env.ts.URL+"/metrics", nil, metricsToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	for _, want := range []string{
		"catalog_products 56",
		`catalog_mutations_total{op="init"} 1`,
		`http_requests_total{method="GET",path="/products/{id}",service="catalog",status="200"}`,
	} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
