package billing

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack/internal/platform/auth"
	"github.com/meditrack/meditrack/internal/platform/idem"
	"github.com/meditrack/meditrack/internal/platform/store"
	"github.com/meditrack/meditrack/pkg/pagination"
)

// maxUploadBytes caps CSV and image uploads read into memory.
const maxUploadBytes = 10 << 20

type Handler struct {
	svc   *Service
	guard idem.Guard
}

// NewHandler wires the billing routes. guard may be nil, which disables
// the Idempotency-Key check.
func NewHandler(svc *Service, guard idem.Guard) *Handler {
	return &Handler{svc: svc, guard: guard}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/bills", h.Create, auth.RequireRole())
	api.POST("/bills/upload-csv", h.UploadCSV, auth.RequireRole())
	api.POST("/bills/upload-image", h.UploadImage, auth.RequireRole())
	api.GET("/bills/:id", h.Get)
	api.GET("/bills/by-patient/:patient_id", h.ListByPatient)
}

type createBillRequest struct {
	PatientID    string     `json:"patient_id"`
	PatientName  string     `json:"patient_name"`
	PatientPhone string     `json:"patient_phone"`
	MRN          string     `json:"mrn"`
	Doctor       string     `json:"doctor"`
	Items        []LineItem `json:"items"`
}

func (h *Handler) Create(c echo.Context) error {
	if err := h.checkIdempotency(c); err != nil {
		return err
	}
	var req createBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	meta := &PatientMeta{
		Name:   req.PatientName,
		Phone:  req.PatientPhone,
		MRN:    req.MRN,
		Doctor: req.Doctor,
	}
	bill, err := h.svc.Assemble(c.Request().Context(), req.PatientID, req.Items, meta)
	if err != nil {
		return assembleError(err)
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) UploadCSV(c echo.Context) error {
	if err := h.checkIdempotency(c); err != nil {
		return err
	}
	raw, err := readUpload(c)
	if err != nil {
		return err
	}
	parsed, err := ParseBillCSV(raw)
	if err != nil {
		return assembleError(err)
	}
	bill, err := h.svc.Assemble(c.Request().Context(), parsed.PatientID, parsed.Items, &parsed.Meta)
	if err != nil {
		return assembleError(err)
	}
	return c.JSON(http.StatusCreated, bill)
}

// UploadImage accepts a scanned bill image. The image itself is not
// interpreted; it becomes one placeholder line item carrying the supplied
// amount so the bill and inventory trail still exist.
func (h *Handler) UploadImage(c echo.Context) error {
	if err := h.checkIdempotency(c); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	amount := 0.0
	if raw := c.FormValue("amount"); raw != "" {
		amount, err = strconv.ParseFloat(raw, 64)
		if err != nil || amount < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid amount")
		}
	}
	items := []LineItem{{Name: "scan:" + fh.Filename, Qty: 1, Price: amount}}
	bill, err := h.svc.Assemble(c.Request().Context(), c.FormValue("patient_id"), items, nil)
	if err != nil {
		return assembleError(err)
	}
	return c.JSON(http.StatusCreated, bill)
}

func (h *Handler) Get(c echo.Context) error {
	bill, err := h.svc.GetBill(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "document store unavailable")
		}
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, bill)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	pg := pagination.FromContext(c)
	bills, total, err := h.svc.ListByPatient(c.Request().Context(), c.Param("patient_id"), pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "document store unavailable")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
}

// checkIdempotency rejects a repeated Idempotency-Key. Guard failures are
// not fatal; duplicate suppression is best effort.
func (h *Handler) checkIdempotency(c echo.Context) error {
	if h.guard == nil {
		return nil
	}
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		return nil
	}
	first, err := h.guard.FirstSeen(c.Request().Context(), key)
	if err != nil {
		return nil
	}
	if !first {
		return echo.NewHTTPError(http.StatusConflict, "duplicate submission")
	}
	return nil
}

func readUpload(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return raw, nil
}

// assembleError maps assembler and parser failures onto HTTP statuses.
func assembleError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNoItems),
		errors.Is(err, ErrMissingPatientInfo),
		errors.Is(err, ErrUnknownPatient),
		errors.Is(err, ErrBadEncoding),
		errors.Is(err, ErrBadRow):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "document store unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
