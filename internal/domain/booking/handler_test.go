package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// stubDirectory is an in-memory PatientDirectory keyed by phone number. It
// doubles as the DoctorDirectory: only ids registered via addDoctor exist.
type stubDirectory struct {
	byPhone map[string]uuid.UUID
	doctors map[uuid.UUID]bool
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		byPhone: make(map[string]uuid.UUID),
		doctors: make(map[uuid.UUID]bool),
	}
}

func (d *stubDirectory) addDoctor() uuid.UUID {
	id := uuid.New()
	d.doctors[id] = true
	return id
}

func (d *stubDirectory) DoctorExists(_ context.Context, id uuid.UUID) error {
	if !d.doctors[id] {
		return errors.New("doctor not found")
	}
	return nil
}

func (d *stubDirectory) FindOrCreateByPhone(_ context.Context, name, phone string) (uuid.UUID, error) {
	if id, ok := d.byPhone[phone]; ok {
		return id, nil
	}
	id := uuid.New()
	d.byPhone[phone] = id
	return id, nil
}

func (d *stubDirectory) FindByPhone(_ context.Context, phone string) (uuid.UUID, error) {
	id, ok := d.byPhone[phone]
	if !ok {
		return uuid.Nil, errors.New("not found")
	}
	return id, nil
}

func newTestHandler() (*Handler, *stubDirectory, *echo.Echo) {
	svc := NewService(NewSlotRepoMem(), 30*time.Minute)
	dir := newStubDirectory()
	return NewHandler(svc, dir, dir), dir, echo.New()
}

func seedDay(t *testing.T, h *Handler, doctorID uuid.UUID) []*Slot {
	t.Helper()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slots, err := h.svc.GenerateSlots(context.Background(), doctorID, start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	return slots
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_GenerateSlots(t *testing.T) {
	h, dir, e := newTestHandler()
	body := `{"start":"2026-03-02T09:00:00Z","end":"2026-03-02T11:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(dir.addDoctor().String())

	if err := h.GenerateSlots(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var slots []*Slot
	if err := json.Unmarshal(rec.Body.Bytes(), &slots); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(slots) != 4 {
		t.Errorf("expected 4 slots in response, got %d", len(slots))
	}
}

func TestHandler_GenerateSlots_ReversedRange(t *testing.T) {
	h, dir, e := newTestHandler()
	body := `{"start":"2026-03-02T11:00:00Z","end":"2026-03-02T09:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(dir.addDoctor().String())

	err := h.GenerateSlots(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_GenerateSlots_UnknownDoctor(t *testing.T) {
	h, _, e := newTestHandler()
	body := `{"start":"2026-03-02T09:00:00Z","end":"2026-03-02T11:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GenerateSlots(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404 for a doctor that does not exist, got %d", code)
	}
}

func TestHandler_GenerateSlots_MissingBounds(t *testing.T) {
	h, _, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.GenerateSlots(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_BookSlot_ByPatientID(t *testing.T) {
	h, _, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())
	patientID := uuid.New()

	body := `{"patient_id":"` + patientID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	if err := h.BookSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Slot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.PatientID == nil || *got.PatientID != patientID {
		t.Error("response slot does not carry the patient id")
	}
}

func TestHandler_BookSlot_ByPhone_CreatesPatient(t *testing.T) {
	h, dir, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())

	body := `{"name":"Jane Doe","phone":"09120000000"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	if err := h.BookSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if _, ok := dir.byPhone["09120000000"]; !ok {
		t.Error("booking by phone did not create a patient record")
	}
}

func TestHandler_BookSlot_MissingParty(t *testing.T) {
	h, _, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	err := h.BookSlot(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_BookSlot_AlreadyBooked(t *testing.T) {
	h, _, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())
	if _, err := h.svc.Book(context.Background(), slots[0].ID, uuid.New()); err != nil {
		t.Fatalf("Book: %v", err)
	}

	body := `{"patient_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	err := h.BookSlot(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_BookSlot_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"patient_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.BookSlot(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_ReleaseSlot(t *testing.T) {
	h, _, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	if err := h.ReleaseSlot(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}

func TestHandler_ReleaseSlot_Booked(t *testing.T) {
	h, _, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())
	if _, err := h.svc.Book(context.Background(), slots[0].ID, uuid.New()); err != nil {
		t.Fatalf("Book: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	err := h.ReleaseSlot(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_ConflictMapsTo409(t *testing.T) {
	mem := NewSlotRepoMem()
	svc := NewService(&conflictRepo{SlotRepository: mem}, 30*time.Minute)
	dir := newStubDirectory()
	h := NewHandler(svc, dir, dir)
	e := echo.New()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slots, err := svc.GenerateSlots(context.Background(), uuid.New(), start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}

	body := `{"patient_id":"` + uuid.New().String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(slots[0].ID.String())

	bookErr := h.BookSlot(c)
	if code := httpStatus(t, bookErr); code != http.StatusConflict {
		t.Errorf("expected 409, got %d", code)
	}
}

func TestHandler_ListDoctorDay(t *testing.T) {
	h, dir, e := newTestHandler()
	doctorID := dir.addDoctor()
	seedDay(t, h, doctorID)

	req := httptest.NewRequest(http.MethodGet, "/?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())

	if err := h.ListDoctorDay(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Data  []*Slot `json:"data"`
		Total int     `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 4 || len(resp.Data) != 4 {
		t.Errorf("expected 4 slots, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandler_ListDoctorDay_BadDate(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/?date=yesterday", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.ListDoctorDay(c)
	if code := httpStatus(t, err); code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
}

func TestHandler_ListDoctorDay_UnknownDoctor(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.ListDoctorDay(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404 for a doctor that does not exist, got %d", code)
	}
}

func TestHandler_ListOpenDay(t *testing.T) {
	h, dir, e := newTestHandler()
	doctorID := dir.addDoctor()
	slots := seedDay(t, h, doctorID)
	if _, err := h.svc.Book(context.Background(), slots[0].ID, uuid.New()); err != nil {
		t.Fatalf("Book: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/?date=2026-03-02", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())

	if err := h.ListOpenDay(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data []*Slot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 3 {
		t.Errorf("expected 3 open slots, got %d", len(resp.Data))
	}
}

func TestHandler_ListPatientSlotsByPhone(t *testing.T) {
	h, dir, e := newTestHandler()
	slots := seedDay(t, h, uuid.New())
	patientID, _ := dir.FindOrCreateByPhone(context.Background(), "Jane Doe", "09120000000")
	if _, err := h.svc.Book(context.Background(), slots[0].ID, patientID); err != nil {
		t.Fatalf("Book: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("phone")
	c.SetParamValues("09120000000")

	if err := h.ListPatientSlotsByPhone(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data []*Slot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Errorf("expected 1 booked slot, got %d", len(resp.Data))
	}
}

func TestHandler_ListPatientSlotsByPhone_UnknownPhone(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("phone")
	c.SetParamValues("00000000000")

	err := h.ListPatientSlotsByPhone(c)
	if code := httpStatus(t, err); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_Paged(t *testing.T) {
	h, dir, e := newTestHandler()
	doctorID := dir.addDoctor()
	seedDay(t, h, doctorID)

	req := httptest.NewRequest(http.MethodGet, "/?date=2026-03-02&limit=2&offset=3", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(doctorID.String())

	if err := h.ListDoctorDay(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var resp struct {
		Data    []*Slot `json:"data"`
		Total   int     `json:"total"`
		HasMore bool    `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 4 {
		t.Errorf("expected total 4, got %d", resp.Total)
	}
	if len(resp.Data) != 1 {
		t.Errorf("expected 1 slot on the last page, got %d", len(resp.Data))
	}
	if resp.HasMore {
		t.Error("expected has_more false past the end")
	}
}
