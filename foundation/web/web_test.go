package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/foundation/web"
)

func Test_Handle(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return err
		}
		if v.TraceID == "" {
			t.Error("Should have a trace id.")
		}

		resp := struct {
			Name string `json:"name"`
		}{
			Name: web.Param(r, "name"),
		}
		return web.Respond(ctx, w, resp, http.StatusOK)
	}
	app.Handle(http.MethodGet, "v1", "/hello/:name", h, mw("route"))

	fail := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	}
	app.Handle(http.MethodGet, "v1", "/fail", fail)

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/hello/bill", nil))

	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"name":"bill"}` {
		t.Fatalf("Should get the param back, got %d %s", w.Code, w.Body.String())
	}

	if len(order) != 2 || order[0] != "app" || order[1] != "route" {
		t.Fatalf("Should run the app middleware first, got %v", order)
	}

	app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/fail", nil))

	select {
	case <-shutdown:
	default:
		t.Fatal("Should signal a shutdown.")
	}
}

func Test_Decode(t *testing.T) {
	var val struct {
		Sender string `json:"sender"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sender":"A"}`))
	if err := web.Decode(r, &val); err != nil || val.Sender != "A" {
		t.Fatalf("Should decode the body, got %v %q", err, val.Sender)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"sender":`))
	if err := web.Decode(r, &val); err == nil {
		t.Fatal("Should fail on a bad document.")
	}
}

func Test_IsShutdown(t *testing.T) {
	if !web.IsShutdown(web.NewShutdownError("x")) {
		t.Fatal("Should detect a shutdown error.")
	}

	if web.IsShutdown(context.Canceled) {
		t.Fatal("Should not detect other errors.")
	}
}
