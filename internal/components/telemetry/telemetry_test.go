package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecorder()
	tel := NewScopedAPI("steam_client", rec)

	tel.ReportBroken("resolve-prices", errors.New("boom"))
	tel.ReportWarning("parse-entry", "10")
	tel.ReportDebug("request")
	tel.ReportCount("unresolved", 3)

	broken := rec.Reports("broken", "")
	require.Len(t, broken, 1)
	require.Equal(t, "steam_client: resolve-prices", broken[0].Id)

	warnings := rec.Reports("warning", "parse-entry")
	require.Len(t, warnings, 1)
	require.Equal(t, []any{"10"}, warnings[0].Params)

	require.Len(t, rec.Reports("debug", "steam_client: request"), 1)

	counts := rec.Reports("count", "unresolved")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(3)}, counts[0].Params)

	require.Empty(t, rec.Reports("warning", "resolve-prices"))
}

func TestSlogAPI(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buff := bytes.NewBuffer(nil)
	initSlogTo(buff, false)

	tel := NewSlogAPI()
	tel.ReportDebug("hidden")
	tel.ReportWarning("itad_client: plain-mismatch", "app/10")
	tel.ReportCount("coordinator: unresolved", 2)

	out := buff.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "id=\"itad_client: plain-mismatch\"")
	require.Contains(t, out, "params.0=app/10")
	require.Contains(t, out, "n=2")

	buff.Reset()
	initSlogTo(buff, true)
	tel.ReportDebug("visible", 1)
	require.Contains(t, buff.String(), "visible")
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	rec := NewRecorder()
	client := resty.New().SetBaseURL(server.URL)
	InstrumentResty(client, rec)

	res, err := client.R().SetContext(context.Background()).Get("/")
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())
	require.Len(t, rec.Reports("debug", report_resty_request), 1)
	require.Len(t, rec.Reports("debug", report_resty_response), 1)

	server.Close()
	_, err = client.R().Get("/")
	require.Error(t, err)
	require.Len(t, rec.Reports("broken", report_resty_response), 1)
}

func TestSetupEmptyConfig(t *testing.T) {
	tel, err := Setup(context.Background(), "test", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
