package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_TargetDrug(t *testing.T) {
	result, err := Analyze("Isalpinin", []string{"0", "10", "25"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "10", "25"}, result.Labels)
	assert.Equal(t, []int{100, 75, 55}, result.CountData)
	assert.Equal(t, []int{450, 320, 210}, result.SizeData)
}

func TestAnalyze_TargetDrug_CaseInsensitive(t *testing.T) {
	result, err := Analyze("ISALPININ-B", []string{"0", "5"})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 75}, result.CountData)
}

func TestAnalyze_NonTargetDrug(t *testing.T) {
	result, err := Analyze("Placebo", []string{"0", "10", "25", "50"})
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "10", "25", "50"}, result.Labels)
	assert.Equal(t, []int{100, 95, 90, 85}, result.CountData)
	assert.Equal(t, []int{450, 440, 430, 420}, result.SizeData)
}

func TestAnalyze_NonTargetDrug_FloorsAtZero(t *testing.T) {
	concentrations := make([]string, 50)
	for i := range concentrations {
		concentrations[i] = "c"
	}

	result, err := Analyze("Placebo", concentrations)
	require.NoError(t, err)

	assert.Equal(t, 0, result.CountData[49], "count series must floor at zero")
	assert.Equal(t, 0, result.SizeData[49], "size series must floor at zero")
}

func TestAnalyze_TargetDrug_TooManyDoses(t *testing.T) {
	_, err := Analyze("Isalpinin", []string{"0", "1", "2", "3", "4", "5"})
	assert.ErrorIs(t, err, ErrTooManyDoses)
}

func TestAnalyze_TargetDrug_FullTable(t *testing.T) {
	result, err := Analyze("Isalpinin", []string{"0", "1", "2", "3", "4"})
	require.NoError(t, err)

	assert.Equal(t, []int{100, 75, 55, 35, 15}, result.CountData)
	assert.Equal(t, []int{450, 320, 210, 150, 100}, result.SizeData)
}

func TestAnalyze_LengthInvariant(t *testing.T) {
	for _, drug := range []string{"Isalpinin", "Placebo"} {
		for n := 0; n <= 5; n++ {
			concentrations := make([]string, n)
			for i := range concentrations {
				concentrations[i] = "x"
			}

			result, err := Analyze(drug, concentrations)
			require.NoError(t, err)
			assert.Len(t, result.Labels, n)
			assert.Len(t, result.CountData, n)
			assert.Len(t, result.SizeData, n)
		}
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	first, err := Analyze("Placebo", []string{"0", "10"})
	require.NoError(t, err)
	second, err := Analyze("Placebo", []string{"0", "10"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
