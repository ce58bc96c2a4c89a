package outbreaksim

import (
	"bytes"
	"fmt"
	"io"
)

// WriteAggregateCSV writes a human-readable rendering of a run's final
// aggregate (see WriteAggregate) as comma-delimited rows, one per
// timeline bin, for interactive inspection alongside the mandatory
// binary format (§4.F, §11). Grounded on csv_logger.go's
// bytes.Buffer + fmt.Sprintf row-template idiom (the teacher's CSV
// backend is templated per record type the same way).
func WriteAggregateCSV(w io.Writer, result *RunResult) error {
	a := result.Aggregate
	npers := len(a.extinctInf.mean)

	var b bytes.Buffer
	b.WriteString("bin,extinct_inf_mean,extinct_inf_sd,extinct_newinf_mean,extinct_newinf_sd,")
	b.WriteString("nonextinct_inf_mean,nonextinct_inf_sd,nonextinct_newinf_mean,nonextinct_newinf_sd\n")

	extinctInfSD := a.extinctInf.stddev()
	extinctNewInfSD := a.extinctNewInf.stddev()
	nonExtinctInfSD := a.nonExtinctInf.stddev()
	nonExtinctNewInfSD := a.nonExtinctNewInf.stddev()

	const row = "%d,%g,%g,%g,%g,%g,%g,%g,%g\n"
	for i := 0; i < npers; i++ {
		b.WriteString(fmt.Sprintf(row, i,
			a.extinctInf.mean[i], extinctInfSD[i],
			a.extinctNewInf.mean[i], extinctNewInfSD[i],
			a.nonExtinctInf.mean[i], nonExtinctInfSD[i],
			a.nonExtinctNewInf.mean[i], nonExtinctNewInfSD[i],
		))
	}

	total := a.nExtinct + a.nNonExtinct
	extinctionProb := 0.0
	if total > 0 {
		extinctionProb = float64(a.nExtinct) / float64(total)
	}
	b.WriteString(fmt.Sprintf("# npaths=%d extinct=%d nonextinct=%d extinction_prob=%g rsum_mean=%g(R_eff) commpersum_mean=%g neventssum_mean=%g\n",
		result.NPaths, a.nExtinct, a.nNonExtinct, extinctionProb,
		a.rsum.mean, a.commPerSum.mean, a.nEventsSum.mean))

	for i, c := range a.histogram {
		b.WriteString(fmt.Sprintf("# ngeninfs[%d]=%d\n", i, c))
	}

	_, err := w.Write(b.Bytes())
	return err
}
