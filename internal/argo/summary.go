// File path: internal/argo/summary.go

// Package argo knows the shape of the argo_data table: the summary
// aggregate describing the dataset and the metadata documents derived from
// it that ground the chat prompt.
package argo

import (
	"context"
	"fmt"
	"time"

	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/postgres"
	"github.com/floatchat/floatchat/internal/retriever"
)

// summaryStatement aggregates the profile-level dataset in one pass.
const summaryStatement = `SELECT
        COUNT(*) AS total_records,
        COUNT(DISTINCT platform_number) AS unique_platforms,
        COUNT(DISTINCT cycle_number) AS unique_cycles,
        MIN(juld) AS earliest_time,
        MAX(juld) AS latest_time,
        MIN(latitude) AS min_latitude,
        MAX(latitude) AS max_latitude,
        MIN(longitude) AS min_longitude,
        MAX(longitude) AS max_longitude,
        MIN(pressure_dbar) AS min_pressure,
        MAX(pressure_dbar) AS max_pressure,
        AVG(temperature_c) AS avg_temperature,
        AVG(salinity_psu) AS avg_salinity,
        COUNT(CASE WHEN temp_qc = '1' THEN 1 END) AS good_temp_readings,
        COUNT(CASE WHEN psal_qc = '1' THEN 1 END) AS good_salinity_readings
    FROM argo_data`

// Executor is the minimal execution contract the summary needs.
type Executor interface {
	Execute(ctx context.Context, worker, stmt string, policy postgres.Policy) (*postgres.ResultSet, error)
}

// Service computes dataset summaries through the query executor.
type Service struct {
	exec Executor
}

func NewService(exec Executor) *Service {
	return &Service{exec: exec}
}

// Summary runs the aggregate and returns its single row.
func (s *Service) Summary(ctx context.Context) (postgres.Row, error) {
	result, err := s.exec.Execute(ctx, "argo-summary", summaryStatement, postgres.Policy{
		Timeout: 30 * time.Second,
		MaxRows: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("dataset summary: %w", err)
	}
	if result.Count() == 0 {
		return postgres.Row{}, nil
	}
	common.Logger().Info("argo: dataset summary computed", "elapsed", result.Elapsed)
	return result.Rows[0], nil
}

// ContextDocs renders a summary row into the metadata documents the
// retriever indexes. SchemaDoc is always included so the prompt keeps its
// schema grounding even when the summary is unavailable.
func ContextDocs(summary postgres.Row) []retriever.Doc {
	docs := []retriever.Doc{SchemaDoc()}
	if len(summary) == 0 {
		return docs
	}
	docs = append(docs,
		retriever.Doc{
			ID: "dataset-size",
			Content: fmt.Sprintf(
				"The argo_data table holds %v profile-level records from %v distinct ARGO floats across %v cycles.",
				summary["total_records"], summary["unique_platforms"], summary["unique_cycles"]),
		},
		retriever.Doc{
			ID: "dataset-coverage",
			Content: fmt.Sprintf(
				"Geographic coverage spans latitudes %v to %v and longitudes %v to %v; observation times (juld) range from %v to %v.",
				summary["min_latitude"], summary["max_latitude"], summary["min_longitude"], summary["max_longitude"],
				summary["earliest_time"], summary["latest_time"]),
		},
		retriever.Doc{
			ID: "dataset-parameters",
			Content: fmt.Sprintf(
				"Pressure ranges from %v to %v dbar; mean temperature is %v C and mean salinity %v PSU. Good quality readings: %v temperature, %v salinity.",
				summary["min_pressure"], summary["max_pressure"], summary["avg_temperature"], summary["avg_salinity"],
				summary["good_temp_readings"], summary["good_salinity_readings"]),
		},
	)
	return docs
}

// SchemaDoc describes the argo_data schema for prompt grounding.
func SchemaDoc() retriever.Doc {
	return retriever.Doc{
		ID: "schema",
		Content: "Table argo_data columns: id, source_file, profile_index, platform_number, cycle_number, juld, " +
			"latitude, longitude, level_index, pressure_dbar, temperature_c, salinity_psu, pres_qc, temp_qc, psal_qc, " +
			"pres_variable, temp_variable, psal_variable, created_at. The QC columns are VARCHAR codes where '1' marks a good reading.",
	}
}
