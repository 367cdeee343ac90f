// Package stability implements the biological acceptance gate a finished
// oligo must pass before it is written to the archive (spec §4.4): GC
// content within a tolerated window, melting temperature within a
// tolerated window, and freedom from accidental primer collisions inside
// the payload.
package stability

import (
	"math"
	"strings"
)

// Report is the result of analyzing one assembled strand.
type Report struct {
	GCContent   float64
	MeltingTemp float64
}

// naConcentration is the standard 50 mM Na+ concentration assumed by the
// Wallace-rule Tm estimate below.
const naConcentration = 0.05

// DefaultGCMin and DefaultGCMax bound the GC-content window (as a
// percentage, matching Report.GCContent's units) a freshly assembled
// oligo must fall within to pass the stability gate (spec §4.4: "GC
// content must lie in [0.40, 0.60]").
const (
	DefaultGCMin = 40.0
	DefaultGCMax = 60.0
)

// Analyze computes GC content (as a percentage) and an estimated melting
// temperature for dna, using the Wallace-rule variant
//
//	Tm = 81.5 + 16.6*log10([Na+]) + 0.41*GC% - 600/length
//
// This is the formula Helix was tuned against; spec §6 permits swapping
// in a different Tm estimator provided the acceptance window is adjusted
// to match and the choice is recorded (see SPEC_FULL.md §5).
func Analyze(dna string) Report {
	if len(dna) == 0 {
		return Report{}
	}

	length := float64(len(dna))
	gc := 0.0
	for i := 0; i < len(dna); i++ {
		switch dna[i] {
		case 'C', 'G':
			gc++
		}
	}
	gcContent := (gc / length) * 100.0

	saltAdjust := 16.6 * math.Log10(naConcentration)
	tm := 81.5 + saltAdjust + (0.41 * gcContent) - (600.0 / length)

	return Report{GCContent: gcContent, MeltingTemp: tm}
}

// Gate bundles the acceptance window an ArchiveHeader pins for an
// archive's entire lifetime.
type Gate struct {
	GCMin, GCMax   float64
	TmMin, TmMax   float64
	PrimerFwd      string
	PrimerRev      string
	FuzzyTolerance int
}

// Accepts reports whether dna (a fully assembled oligo, primers
// included) passes the GC window, the Tm window, and the primer
// collision check. A payload that happens to contain the archive's own
// forward or reverse primer (or its reverse complement) as a substring
// is rejected even if GC/Tm are in range, since it would be
// indistinguishable from a strand boundary during demultiplexing.
func (g Gate) Accepts(dna string) (Report, bool) {
	report := Analyze(dna)
	if report.GCContent < g.GCMin || report.GCContent > g.GCMax {
		return report, false
	}
	if report.MeltingTemp < g.TmMin || report.MeltingTemp > g.TmMax {
		return report, false
	}
	if g.hasPrimerCollision(dna) {
		return report, false
	}
	return report, true
}

// hasPrimerCollision scans the interior of dna (excluding the leading
// and trailing primer-length windows, which are the primers themselves)
// for an accidental occurrence of either primer or its reverse
// complement.
func (g Gate) hasPrimerCollision(dna string) bool {
	fpLen, rpLen := len(g.PrimerFwd), len(g.PrimerRev)
	if len(dna) <= fpLen+rpLen {
		return false
	}
	interior := dna[fpLen : len(dna)-rpLen]

	needles := []string{g.PrimerFwd, reverseComplement(g.PrimerFwd), g.PrimerRev, reverseComplement(g.PrimerRev)}
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(interior, needle) {
			return true
		}
	}
	return false
}

var complement = map[byte]byte{'A': 'T', 'T': 'A', 'C': 'G', 'G': 'C'}

func reverseComplement(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = complement[s[i]]
	}
	return string(out)
}
