package convergeprom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	converge "github.com/converge-go/converge-go"
	"github.com/converge-go/converge-go/budget"
	"github.com/converge-go/converge-go/diversity"
	"github.com/converge-go/converge-go/hypervolume"
)

func TestCollectorOmitsAbsentValues(t *testing.T) {
	// Given: a fresh coordinator with no history and no budget
	c := converge.OfDefaults()
	collector := NewCollector(c)

	// Then: only generation, converged, and plateau patience are scraped
	assert.Equal(t, 3, testutil.CollectAndCount(collector))
}

func TestCollectorReportsStatus(t *testing.T) {
	// Given
	c := converge.NewBuilder().
		WithBudgetManager(budget.NewBuilder().WithMaxEvaluations(100).Build()).
		Build()
	collector := NewCollector(c)

	for g := 1; g <= 3; g++ {
		require.NoError(t, c.Update(converge.Metrics{
			Diversity:   &diversity.Record{Generation: g, Pairwise: .65},
			Hypervolume: &converge.HypervolumeSample{Hypervolume: .5 + .1*float64(g)},
			Consumption: &budget.Consumption{Evaluations: 10},
		}))
	}

	// Then
	assert.Equal(t, 6, testutil.CollectAndCount(collector))

	expected := `# HELP converge_converged Whether any detector has triggered (1) or not (0), labeled by reason.
# TYPE converge_converged gauge
converge_converged{reason="none"} 0
# HELP converge_diversity_score Latest pairwise diversity of the candidate population.
# TYPE converge_diversity_score gauge
converge_diversity_score 0.65
# HELP converge_generation Current generation of the optimization run.
# TYPE converge_generation gauge
converge_generation 3
# HELP converge_remaining_evaluations Evaluations left under the configured budget.
# TYPE converge_remaining_evaluations gauge
converge_remaining_evaluations 70
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"converge_converged", "converge_diversity_score", "converge_generation",
		"converge_remaining_evaluations"))
}

func TestCollectorReportsConvergence(t *testing.T) {
	// Given: a saturated run
	c := converge.NewBuilder().
		WithHypervolumeTracker(hypervolume.NewBuilder().WithPatience(2).Build()).
		Build()
	collector := NewCollector(c)

	for g := 1; g <= 5; g++ {
		require.NoError(t, c.Update(converge.Metrics{
			Hypervolume: &converge.HypervolumeSample{Hypervolume: .75},
		}))
	}

	// Then
	expected := `# HELP converge_converged Whether any detector has triggered (1) or not (0), labeled by reason.
# TYPE converge_converged gauge
converge_converged{reason="hypervolume_saturation"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"converge_converged"))
}
