// ABOUTME: Deterministic dose-response analysis producing colony count and size curves
// ABOUTME: Pure computation over a drug name and ordered concentration list, no I/O

package analysis

import (
	"errors"
	"strings"
)

// ErrTooManyDoses is returned when a target-family drug is analyzed with more
// doses than the reference decay tables define. The tables hold five entries
// and are truncated, never extrapolated.
var ErrTooManyDoses = errors.New("dose count exceeds reference table")

// targetSubstring marks a drug as belonging to the target family. Matching is
// case-insensitive.
const targetSubstring = "isal"

// Reference decay tables for target-family drugs. Index 0 is the control dose.
var (
	targetCountTable = []int{100, 75, 55, 35, 15}
	targetSizeTable  = []int{450, 320, 210, 150, 100}
)

// Result holds the derived dose-response curves. The three series are always
// the same length as the concentration list passed to Analyze.
type Result struct {
	Labels    []string `json:"labels"`
	CountData []int    `json:"countData"`
	SizeData  []int    `json:"sizeData"`
}

// Analyze computes the colony count and colony size series for a drug across
// an ordered list of dose concentrations. Labels mirror the concentrations in
// the same order, including the control at index 0.
//
// Target-family drugs use the fixed reference tables truncated to the dose
// count. All other drugs decay linearly: count 100-5i, size 450-10i, floored
// at zero. The function is pure; calling it twice with the same inputs yields
// identical results.
func Analyze(drug string, concentrations []string) (Result, error) {
	n := len(concentrations)
	labels := make([]string, n)
	copy(labels, concentrations)

	if isTargetDrug(drug) {
		if n > len(targetCountTable) {
			return Result{}, ErrTooManyDoses
		}
		return Result{
			Labels:    labels,
			CountData: append([]int(nil), targetCountTable[:n]...),
			SizeData:  append([]int(nil), targetSizeTable[:n]...),
		}, nil
	}

	count := make([]int, n)
	size := make([]int, n)
	for i := 0; i < n; i++ {
		count[i] = max(0, 100-i*5)
		size[i] = max(0, 450-i*10)
	}
	return Result{Labels: labels, CountData: count, SizeData: size}, nil
}

func isTargetDrug(drug string) bool {
	return strings.Contains(strings.ToLower(drug), targetSubstring)
}
