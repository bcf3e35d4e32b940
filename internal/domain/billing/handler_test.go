package billing

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack/internal/platform/idem"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	h := NewHandler(env.svc, idem.NewMemGuard())
	return h, env, echo.New()
}

func postJSON(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreateBill(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")

	body := `{"patient_id":"` + pid + `","items":[{"name":"Consultation","qty":1,"price":500}]}`
	c, rec := postJSON(e, body)
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var bill Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bill.Subtotal != 500 || bill.Tax != 60 || bill.Total != 560 {
		t.Errorf("totals mismatch: %+v", bill)
	}
}

func TestHandler_CreateBill_IgnoresCallerTotals(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")

	body := `{"patient_id":"` + pid + `",` +
		`"items":[{"name":"Consultation","qty":1,"price":100}],` +
		`"subtotal":9999,"tax":0,"total":1}`
	c, rec := postJSON(e, body)
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var bill Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bill.Subtotal != 100 || bill.Tax != 12 || bill.Total != 112 {
		t.Errorf("caller totals must be discarded, got %+v", bill)
	}
}

func TestHandler_CreateBill_StatusMapping(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")

	cases := []struct {
		name string
		body string
		want int
	}{
		{"no items", `{"patient_id":"` + pid + `","items":[]}`, http.StatusBadRequest},
		{"unknown patient", `{"patient_id":"PT-NOSUCH0001","items":[{"name":"X","qty":1,"price":1}]}`, http.StatusBadRequest},
		{"missing patient info", `{"items":[{"name":"X","qty":1,"price":1}]}`, http.StatusBadRequest},
		{"bad item", `{"patient_id":"` + pid + `","items":[{"name":"","qty":1,"price":1}]}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		c, _ := postJSON(e, tc.body)
		err := h.Create(c)
		he, ok := err.(*echo.HTTPError)
		if !ok {
			t.Errorf("%s: expected HTTPError, got %v", tc.name, err)
			continue
		}
		if he.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, he.Code)
		}
	}
}

func TestHandler_CreateBill_StoreDown(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")
	env.mem.SetAvailable(false)

	body := `{"patient_id":"` + pid + `","items":[{"name":"X","qty":1,"price":1}]}`
	c, _ := postJSON(e, body)
	err := h.Create(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %v", err)
	}
}

func TestHandler_IdempotencyKey(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")
	body := `{"patient_id":"` + pid + `","items":[{"name":"X","qty":1,"price":1}]}`

	send := func() error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("Idempotency-Key", "key-123")
		rec := httptest.NewRecorder()
		return h.Create(e.NewContext(req, rec))
	}

	if err := send(); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	err := send()
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusConflict {
		t.Errorf("duplicate submission: expected 409, got %v", err)
	}
}

func TestHandler_GetBill_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("B-NOSUCH0001")

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(content)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_UploadCSV(t *testing.T) {
	h, _, e := newTestHandler()
	csv := []byte("patient_name,name,qty,price\nWalk In,Consultation,1,500\n")
	buf, contentType := multipartUpload(t, "bill.csv", csv, nil)

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	if err := h.UploadCSV(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var bill Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if bill.Subtotal != 500 || bill.PatientID == "" {
		t.Errorf("unexpected bill: %+v", bill)
	}
}

func TestHandler_UploadCSV_BadUpload(t *testing.T) {
	h, _, e := newTestHandler()
	buf, contentType := multipartUpload(t, "bill.csv", []byte{0xFF, 0xFE}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	err := h.UploadCSV(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_UploadImage(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.registerPatient(t, "Asha Verma")
	buf, contentType := multipartUpload(t, "scan.jpg", []byte{0xFF, 0xD8, 0xFF},
		map[string]string{"patient_id": pid, "amount": "750"})

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	if err := h.UploadImage(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var bill Bill
	if err := json.Unmarshal(rec.Body.Bytes(), &bill); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(bill.Items) != 1 || bill.Items[0].Name != "scan:scan.jpg" {
		t.Errorf("expected placeholder item, got %+v", bill.Items)
	}
	if bill.Subtotal != 750 {
		t.Errorf("expected subtotal 750, got %v", bill.Subtotal)
	}
}

func TestHandler_UploadImage_MissingPatient(t *testing.T) {
	h, _, e := newTestHandler()
	buf, contentType := multipartUpload(t, "scan.jpg", []byte{0xFF}, nil)

	req := httptest.NewRequest(http.MethodPost, "/", buf)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	err := h.UploadImage(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
