package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sentinel/internal/handlers"
	"sentinel/internal/models"
	"sentinel/internal/notify"
	"sentinel/internal/service"
	"sentinel/internal/store"
	"sentinel/internal/thresholds"
)

type okNotifier struct{ name string }

func (n *okNotifier) Name() string { return n.name }

func (n *okNotifier) Send(context.Context, models.Alert) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()

	d := notify.NewDispatcher()
	d.Register(&okNotifier{name: "chat"}, "")
	svc := service.New(thresholds.New(), store.New(100), d)

	mux := http.NewServeMux()
	handlers.NewAlertHandler(svc).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(svc.Close)
	return srv, svc
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestIngestEndpoint(t *testing.T) {
	srv, svc := newTestServer(t)

	resp := postJSON(t, srv.URL+"/ingest", `{"metric":"cpu","value":85}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Fired bool          `json:"fired"`
		Alert *models.Alert `json:"alert"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Fired || out.Alert == nil || out.Alert.Severity != models.SeverityWarning {
		t.Errorf("unexpected response: %+v", out)
	}
	if len(svc.Current(models.Filter{})) != 1 {
		t.Error("alert not recorded")
	}
}

func TestIngestUnknownMetricIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/ingest", `{"metric":"load_average","value":3}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListCurrentWithFilters(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := context.Background()

	svc.Ingest(ctx, models.MetricCPU, 85)
	svc.Ingest(ctx, models.MetricMemory, 200)

	resp, err := http.Get(srv.URL + "/alerts?severity=critical")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var alerts []models.Alert
	if err := json.NewDecoder(resp.Body).Decode(&alerts); err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Type != models.MetricMemory {
		t.Errorf("filtered alerts = %+v", alerts)
	}
}

func TestListCurrentBadSeverityIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/alerts?severity=urgent")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTriggerManualEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/alerts",
		`{"type":"custom_check","message":"disk nearly full","severity":"warning","value":90,"threshold":85}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var alert models.Alert
	if err := json.NewDecoder(resp.Body).Decode(&alert); err != nil {
		t.Fatal(err)
	}
	if alert.Type != "custom_check" || alert.ID == "" {
		t.Errorf("unexpected alert: %+v", alert)
	}
}

func TestTriggerManualMissingFieldsIs400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/alerts", `{"message":"no type"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestThresholdEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	// Out-of-range update rejected, registry unchanged
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/thresholds", strings.NewReader(`{"cpu":150}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("out-of-range update: status = %d, want 400", resp.StatusCode)
	}

	getResp, err := http.Get(srv.URL + "/thresholds")
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()

	var set models.ThresholdSet
	if err := json.NewDecoder(getResp.Body).Decode(&set); err != nil {
		t.Fatal(err)
	}
	if set[models.MetricCPU] != 80 {
		t.Errorf("cpu threshold = %v, want 80 (unchanged)", set[models.MetricCPU])
	}
}

func TestResolveAndDeleteEndpoints(t *testing.T) {
	srv, svc := newTestServer(t)

	a, _ := svc.Ingest(context.Background(), models.MetricCPU, 85)

	resp := postJSON(t, srv.URL+"/alerts/"+a.ID+"/resolve", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve: status = %d, want 200", resp.StatusCode)
	}

	// Second resolve is a 404, not an error
	resp = postJSON(t, srv.URL+"/alerts/"+a.ID+"/resolve", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("re-resolve: status = %d, want 404", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/alerts/unknown-id", nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete unknown: status = %d, want 404", delResp.StatusCode)
	}
}

func TestSendTestEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/notify/test", `{"channel":"chat"}`)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result notify.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result["chat"].Status != notify.StatusSuccess {
		t.Errorf("result = %+v", result)
	}

	resp = postJSON(t, srv.URL+"/notify/test", `{"channel":"pager"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown channel: status = %d, want 400", resp.StatusCode)
	}
}
