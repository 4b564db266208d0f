package catalog

import "github.com/windscape/windscape/pkg/models"

// Default returns the built-in wind-farm analysis catalog: the guided path
// from terrain data to the final report. The step set is static data; hosts
// can replace it wholesale with Load.
func Default() *models.Catalog {
	steps := []*models.StepDefinition{
		{
			ID:               "terrain_analysis",
			Title:            "Terrain Analysis",
			Category:         models.CategoryTerrain,
			Complexity:       models.ComplexityBasic,
			NextSteps:        []string{"wind_resource"},
			EstimatedMinutes: 10,
			Description:      "Elevation, slope and roughness assessment of the candidate site.",
		},
		{
			ID:               "wind_resource",
			Title:            "Wind Resource Assessment",
			Category:         models.CategoryWindResource,
			Prerequisites:    []string{"terrain_analysis"},
			Complexity:       models.ComplexityBasic,
			NextSteps:        []string{"wind_rose", "wake_simulation"},
			EstimatedMinutes: 15,
			Description:      "Long-term wind speed and direction statistics for the site.",
		},
		{
			ID:               "wind_rose",
			Title:            "Wind Rose Analysis",
			Category:         models.CategoryWindResource,
			Prerequisites:    []string{"wind_resource"},
			Complexity:       models.ComplexityIntermediate,
			NextSteps:        []string{"wake_simulation"},
			EstimatedMinutes: 10,
			Description:      "Directional frequency and energy distribution of the wind.",
		},
		{
			ID:               "wake_simulation",
			Title:            "Wake Simulation",
			Category:         models.CategorySimulation,
			Prerequisites:    []string{"wind_resource"},
			Complexity:       models.ComplexityIntermediate,
			NextSteps:        []string{"layout_optimization"},
			EstimatedMinutes: 30,
			Description:      "Turbine wake interaction modeling across the layout.",
		},
		{
			ID:               "layout_optimization",
			Title:            "Layout Optimization",
			Category:         models.CategoryOptimization,
			Prerequisites:    []string{"wake_simulation"},
			Complexity:       models.ComplexityAdvanced,
			NextSteps:        []string{"energy_yield"},
			EstimatedMinutes: 45,
			Description:      "Turbine placement optimization under wake and terrain constraints.",
		},
		{
			ID:               "energy_yield",
			Title:            "Energy Yield Estimate",
			Category:         models.CategoryOptimization,
			Prerequisites:    []string{"layout_optimization"},
			Complexity:       models.ComplexityAdvanced,
			NextSteps:        []string{"report_export"},
			EstimatedMinutes: 20,
			Description:      "Annual energy production estimate for the optimized layout.",
		},
		{
			ID:               "report_export",
			Title:            "Report Export",
			Category:         models.CategoryReporting,
			Prerequisites:    []string{"energy_yield"},
			Complexity:       models.ComplexityBasic,
			Optional:         true,
			EstimatedMinutes: 5,
			Description:      "Exportable summary of the full site assessment.",
		},
	}

	catalog, err := models.NewCatalog(steps)
	if err != nil {
		// The built-in catalog is static; a build error here is a
		// programming mistake, not a runtime condition.
		panic(err)
	}

	return catalog
}
