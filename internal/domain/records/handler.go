package records

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	store *Store
	gate  auth.Gate
}

func NewHandler(store *Store, gate auth.Gate) *Handler {
	return &Handler{store: store, gate: gate}
}

// RegisterRoutes mounts the record endpoints on an authenticated group.
// Administrative CRUD requires the admin role; the /me endpoints serve
// patient-role self-service.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/patients", h.ListPatients)
	admin.POST("/patients", h.CreatePatient)
	admin.GET("/patients/:id", h.GetPatient)
	admin.PUT("/patients/:id", h.UpdatePatient)
	admin.DELETE("/patients/:id", h.DeletePatient)
	admin.GET("/patients/:id/incidents", h.ListPatientIncidents)

	admin.GET("/incidents", h.ListIncidents)
	admin.POST("/incidents", h.CreateIncident)
	admin.GET("/incidents/:id", h.GetIncident)
	admin.PUT("/incidents/:id", h.UpdateIncident)
	admin.DELETE("/incidents/:id", h.DeleteIncident)

	admin.GET("/dashboard", h.GetDashboard)
	admin.GET("/calendar", h.GetCalendarDay)

	me := api.Group("/me", auth.RequireRole(auth.RolePatient))
	me.GET("", h.GetMyView)
	me.POST("/incidents", h.CreateMyIncident)
}

// writeError maps a failed WriteResult to a response. A persistence failure
// is reported with the optimistic record still attached: the in-memory state
// already reflects the change and the caller may retry durability.
func writeError(c echo.Context, res WriteResult, record interface{}) error {
	if res.Applied {
		body := map[string]interface{}{
			"error":     res.Err.Error(),
			"persisted": false,
		}
		if record != nil {
			body["record"] = record
		}
		return c.JSON(http.StatusInternalServerError, body)
	}
	return echo.NewHTTPError(http.StatusBadRequest, res.Err.Error())
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, _ := h.store.Snapshot()
	total := len(patients)
	patients = pagination.Page(patients, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanMutatePatients(id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to modify patients")
	}
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, res := h.store.AddPatient(c.Request().Context(), in)
	if res.Err != nil {
		return writeError(c, res, p)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, ok := h.store.Patient(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanMutatePatients(id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to modify patients")
	}
	var patch PatientPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res := h.store.UpdatePatient(c.Request().Context(), c.Param("id"), patch)
	if res.Err != nil {
		return writeError(c, res, nil)
	}
	// Unknown ids are a tolerated no-op in the store; the HTTP surface still
	// answers 204 so stale double-submits stay harmless.
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanMutatePatients(id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to modify patients")
	}
	res := h.store.DeletePatient(c.Request().Context(), c.Param("id"))
	if res.Err != nil {
		return writeError(c, res, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatientIncidents(c echo.Context) error {
	patientID := c.Param("id")
	now := time.Now()
	patients, incidents := h.store.Snapshot()
	view := ScopedPatientView(patients, incidents, patientID, now)
	return c.JSON(http.StatusOK, view)
}

// -- Incidents --

func (h *Handler) ListIncidents(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, incidents := h.store.Snapshot()

	filtered := FilterIncidents(incidents, patients, Filter{
		Text:   c.QueryParam("q"),
		Status: c.QueryParam("status"),
	})
	filtered = SortByAppointmentDate(filtered, c.QueryParam("sort") == "desc")

	total := len(filtered)
	filtered = pagination.Page(filtered, pg)
	return c.JSON(http.StatusOK, pagination.NewResponse(filtered, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateIncident(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	var in IncidentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !h.gate.CanCreateIncident(id, string(in.PatientID)) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to create incidents for this patient")
	}
	inc, res := h.store.AddIncident(c.Request().Context(), in)
	if res.Err != nil {
		return writeError(c, res, inc)
	}
	return c.JSON(http.StatusCreated, inc)
}

func (h *Handler) GetIncident(c echo.Context) error {
	inc, ok := h.store.Incident(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "incident not found")
	}
	return c.JSON(http.StatusOK, inc)
}

func (h *Handler) UpdateIncident(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanEditIncidents(id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to modify incidents")
	}
	var patch IncidentPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res := h.store.UpdateIncident(c.Request().Context(), c.Param("id"), patch)
	if res.Err != nil {
		return writeError(c, res, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteIncident(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanEditIncidents(id) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to modify incidents")
	}
	res := h.store.DeleteIncident(c.Request().Context(), c.Param("id"))
	if res.Err != nil {
		return writeError(c, res, nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Query views --

func (h *Handler) GetDashboard(c echo.Context) error {
	patients, incidents := h.store.Snapshot()
	return c.JSON(http.StatusOK, AggregateDashboard(patients, incidents, time.Now()))
}

func (h *Handler) GetCalendarDay(c echo.Context) error {
	var day *time.Time
	if raw := c.QueryParam("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day = &parsed
	}
	_, incidents := h.store.Snapshot()
	matches := AppointmentsOnDate(incidents, day)
	if matches == nil {
		matches = []Incident{}
	}
	return c.JSON(http.StatusOK, matches)
}

// -- Patient self-service --

func (h *Handler) GetMyView(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	if !h.gate.CanReadPatient(id, id.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "no linked patient record")
	}
	patients, incidents := h.store.Snapshot()
	view := ScopedPatientView(patients, incidents, id.PatientID, time.Now())
	return c.JSON(http.StatusOK, view)
}

// CreateMyIncident books an appointment for the caller's own patient record;
// the linked patient id always wins over whatever the body carries.
func (h *Handler) CreateMyIncident(c echo.Context) error {
	id, _ := auth.FromContext(c.Request().Context())
	var in IncidentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.PatientID = PatientRef(id.PatientID)
	if !h.gate.CanCreateIncident(id, string(in.PatientID)) {
		return echo.NewHTTPError(http.StatusForbidden, "not allowed to book for this patient")
	}
	inc, res := h.store.AddIncident(c.Request().Context(), in)
	if res.Err != nil {
		return writeError(c, res, inc)
	}
	return c.JSON(http.StatusCreated, inc)
}
