package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicbook/clinicbook/internal/platform/auth"
	"github.com/clinicbook/clinicbook/pkg/pagination"
)

// PatientDirectory resolves a booking party from contact details, creating
// the patient record on first contact. Implemented by the identity service;
// declared here so booking stays decoupled from that package.
type PatientDirectory interface {
	FindOrCreateByPhone(ctx context.Context, name, phone string) (uuid.UUID, error)
	FindByPhone(ctx context.Context, phone string) (uuid.UUID, error)
}

// DoctorDirectory confirms a doctor exists before slots are generated or
// listed for them. Implemented by the identity service.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	svc      *Service
	patients PatientDirectory
	doctors  DoctorDirectory
}

func NewHandler(svc *Service, patients PatientDirectory, doctors DoctorDirectory) *Handler {
	return &Handler{svc: svc, patients: patients, doctors: doctors}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "doctor", "patient"))
	read.GET("/doctors/:id/slots", h.ListDoctorDay)
	read.GET("/doctors/:id/slots/open", h.ListOpenDay)
	read.GET("/slots/:id", h.GetSlot)
	read.GET("/patients/:id/slots", h.ListPatientSlots)
	read.GET("/patients/by-phone/:phone/slots", h.ListPatientSlotsByPhone)

	doctorWrite := api.Group("", auth.RequireRole("admin", "doctor"))
	doctorWrite.POST("/doctors/:id/slots", h.GenerateSlots)
	doctorWrite.DELETE("/slots/:id", h.ReleaseSlot)

	patientWrite := api.Group("", auth.RequireRole("admin", "patient"))
	patientWrite.POST("/slots/:id/book", h.BookSlot)
}

type generateSlotsRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (h *Handler) GenerateSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	var req generateSlotsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return echo.NewHTTPError(http.StatusBadRequest, "start and end are required")
	}
	if err := h.doctors.DoctorExists(c.Request().Context(), doctorID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	slots, err := h.svc.GenerateSlots(c.Request().Context(), doctorID, req.Start, req.End)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, slots)
}

type bookSlotRequest struct {
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
	Name      string     `json:"name,omitempty"`
	Phone     string     `json:"phone,omitempty"`
}

func (h *Handler) BookSlot(c echo.Context) error {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	var req bookSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patientID, err := h.resolvePatient(c.Request().Context(), req)
	if err != nil {
		return err
	}

	slot, err := h.svc.Book(c.Request().Context(), slotID, patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) resolvePatient(ctx context.Context, req bookSlotRequest) (uuid.UUID, error) {
	if req.PatientID != nil {
		return *req.PatientID, nil
	}
	if req.Name == "" || req.Phone == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "patient_id or name and phone required")
	}
	id, err := h.patients.FindOrCreateByPhone(ctx, req.Name, req.Phone)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return id, nil
}

func (h *Handler) ReleaseSlot(c echo.Context) error {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	if err := h.svc.Release(c.Request().Context(), slotID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSlot(c echo.Context) error {
	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	slot, err := h.svc.GetSlot(c.Request().Context(), slotID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) ListDoctorDay(c echo.Context) error {
	return h.listDay(c, h.svc.DoctorDay)
}

func (h *Handler) ListOpenDay(c echo.Context) error {
	return h.listDay(c, h.svc.OpenDay)
}

func (h *Handler) listDay(c echo.Context, list func(context.Context, uuid.UUID, time.Time) ([]*Slot, error)) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	date, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD or RFC3339")
	}
	if err := h.doctors.DoctorExists(c.Request().Context(), doctorID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	slots, err := list(c.Request().Context(), doctorID, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, paged(c, slots))
}

func (h *Handler) ListPatientSlots(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	slots, err := h.svc.PatientSlots(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, paged(c, slots))
}

func (h *Handler) ListPatientSlotsByPhone(c echo.Context) error {
	patientID, err := h.patients.FindByPhone(c.Request().Context(), c.Param("phone"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	slots, err := h.svc.PatientSlots(c.Request().Context(), patientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, paged(c, slots))
}

// paged applies the request's limit/offset to an already-bounded slot list.
// A day holds at most 48 slots, so slicing in-process is fine.
func paged(c echo.Context, slots []*Slot) *pagination.Response {
	pg := pagination.FromContext(c)
	total := len(slots)
	lo := pg.Offset
	if lo > total {
		lo = total
	}
	hi := lo + pg.Limit
	if hi > total {
		hi = total
	}
	return pagination.NewResponse(slots[lo:hi], total, pg.Limit, pg.Offset)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("date is required")
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrSlotNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrAlreadyBooked),
		errors.Is(err, ErrSlotOccupied):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConcurrentModification), errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
