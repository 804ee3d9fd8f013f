package results

import (
	"bufio"
	"fmt"
	"math"
	"os"
)

// Writer serializes a completed run's posterior sample and summary
// statistics to the five output file formats spec.md §6 fixes, each
// named "<prefix>_<suffix>.txt" and written in 9-significant-digit
// scientific notation (spec.md §6).
type Writer struct {
	Prefix string
}

// WriteAll writes every output file for one run: one *_Parameter<k>.txt
// per dimension, *_LikelihoodDistribution.txt, *_EvidenceInformation.txt,
// *_PosteriorDistribution.txt, and *_ParameterSummary.txt.
func (w Writer) WriteAll(samples []Sample, logZ, logZErr, info float64, summaries []Summary, credLevel float64) error {
	if len(samples) == 0 {
		return ErrEmptyPosterior
	}
	dim := len(samples[0].Phys)

	for k := 0; k < dim; k++ {
		if err := w.writeColumn(fmt.Sprintf("Parameter%d", k), func(i int) float64 { return samples[i].Phys[k] }, len(samples)); err != nil {
			return err
		}
	}
	if err := w.writeColumn("LikelihoodDistribution", func(i int) float64 { return samples[i].LogL }, len(samples)); err != nil {
		return err
	}
	if err := w.writeColumn("PosteriorDistribution", func(i int) float64 { return math.Exp(samples[i].LogW - logZ) }, len(samples)); err != nil {
		return err
	}
	if err := w.writeEvidenceInformation(logZ, logZErr, info); err != nil {
		return err
	}
	return w.writeParameterSummary(summaries, credLevel)
}

func (w Writer) create(suffix string) (*os.File, error) {
	return os.Create(w.Prefix + "_" + suffix + ".txt")
}

func (w Writer) writeColumn(suffix string, at func(i int) float64, n int) error {
	f, err := w.create(suffix)
	if err != nil {
		return fmt.Errorf("results: writing %s: %w", suffix, err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(bw, "%.8e\n", at(i)); err != nil {
			return fmt.Errorf("results: writing %s: %w", suffix, err)
		}
	}
	return bw.Flush()
}

func (w Writer) writeEvidenceInformation(logZ, logZErr, info float64) error {
	f, err := w.create("EvidenceInformation")
	if err != nil {
		return fmt.Errorf("results: writing EvidenceInformation: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	fmt.Fprintln(bw, "# logZ logZ_err H")
	fmt.Fprintf(bw, "%.8e %.8e %.8e\n", logZ, logZErr, info)
	return bw.Flush()
}

func (w Writer) writeParameterSummary(summaries []Summary, credLevel float64) error {
	f, err := w.create("ParameterSummary")
	if err != nil {
		return fmt.Errorf("results: writing ParameterSummary: %w", err)
	}
	defer f.Close()
	bw := bufio.NewWriter(f)
	fmt.Fprintf(bw, "# mean median mode lowerCI upperCI (credible level %.1f%%)\n", credLevel*100)
	for _, s := range summaries {
		fmt.Fprintf(bw, "%.8e %.8e %.8e %.8e %.8e\n", s.Mean, s.Median, s.Mode, s.LowerOffset, s.UpperOffset)
	}
	return bw.Flush()
}
