package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

// PredefinedMeasures is the list of available reporting measures. They run
// directly against the document collection and its sidecar tables.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "record-count-by-type",
		Name:        "Record Count by Encounter Type",
		Description: "Number of encounter records grouped by encounter type",
		SQL:         `SELECT COALESCE(doc->>'encounter_type', 'unknown') AS encounter_type, COUNT(*) AS total FROM encounter_record GROUP BY doc->>'encounter_type' ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "records-by-owner",
		Name:        "Record Count by Owner",
		Description: "Number of encounter records grouped by owning user",
		SQL:         `SELECT COALESCE(NULLIF(doc->>'owner_id', ''), 'unassigned') AS owner_id, COUNT(*) AS total FROM encounter_record GROUP BY doc->>'owner_id' ORDER BY total DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "identifier-coverage",
		Name:        "Identifier Coverage",
		Description: "Patient records carrying Swedish, Providence, both, or neither MRN",
		SQL: `SELECT
    COUNT(*) FILTER (WHERE NULLIF(doc->>'mrn_swedish', '') IS NOT NULL AND NULLIF(doc->>'mrn_providence', '') IS NOT NULL) AS both_mrns,
    COUNT(*) FILTER (WHERE NULLIF(doc->>'mrn_swedish', '') IS NOT NULL AND NULLIF(doc->>'mrn_providence', '') IS NULL) AS swedish_only,
    COUNT(*) FILTER (WHERE NULLIF(doc->>'mrn_swedish', '') IS NULL AND NULLIF(doc->>'mrn_providence', '') IS NOT NULL) AS providence_only,
    COUNT(*) FILTER (WHERE NULLIF(doc->>'mrn_swedish', '') IS NULL AND NULLIF(doc->>'mrn_providence', '') IS NULL) AS neither
FROM encounter_record WHERE doc->>'encounter_type' = 'patient'`,
		Parameters: []string{},
	},
	{
		ID:          "applied-migrations",
		Name:        "Applied Migrations",
		Description: "Schema migrations recorded as applied, newest first",
		SQL:         `SELECT name, applied_at FROM migration_marker ORDER BY applied_at DESC`,
		Parameters:  []string{},
	},
	{
		ID:          "fix-override-volume",
		Name:        "Fix Override Volume",
		Description: "Accepted manual fix overrides grouped by corrected field",
		SQL: `SELECT
    COUNT(*) AS total,
    COUNT(date_of_birth) AS dob_fixes,
    COUNT(mrn_swedish) AS swedish_fixes,
    COUNT(mrn_providence) AS providence_fixes
FROM fix_override`,
		Parameters: []string{},
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

// NewHandler creates a new reporting handler.
func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports")
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measureID := c.Param("id")

	measure := FindMeasure(measureID)
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	for _, p := range measure.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	report := MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
		Parameters:  params,
	}

	return c.JSON(http.StatusOK, report)
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, nil
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
