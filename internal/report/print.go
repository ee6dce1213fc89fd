package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
)

// Print renders the confusion matrix, the per class metrics and the accuracy.
func Print(w io.Writer, c *Confusion) {
	header := []string{"actual \\ predicted"}
	for p := 0; p < c.classes; p++ {
		header = append(header, strconv.Itoa(p))
	}
	matrix := tablewriter.NewWriter(w)
	matrix.SetHeader(header)
	matrix.SetAlignment(tablewriter.ALIGN_RIGHT)
	for a := 0; a < c.classes; a++ {
		row := []string{strconv.Itoa(a)}
		for p := 0; p < c.classes; p++ {
			row = append(row, strconv.Itoa(c.Count(a, p)))
		}
		matrix.Append(row)
	}
	matrix.Render()

	metrics := tablewriter.NewWriter(w)
	metrics.SetHeader([]string{"class", "precision", "recall", "f1"})
	metrics.SetAlignment(tablewriter.ALIGN_RIGHT)
	for class := 0; class < c.classes; class++ {
		metrics.Append([]string{
			strconv.Itoa(class),
			format(c.Precision(class)),
			format(c.Recall(class)),
			format(c.F1(class)),
		})
	}
	metrics.Render()

	fmt.Fprintf(w, "Accuracy: %s (%d examples)\n", format(c.Accuracy()), c.Total())
}

// Plot draws the given error rates as a line graph.
func Plot(errorRates []float64, caption string) string {
	if len(errorRates) == 0 {
		return ""
	}
	return asciigraph.Plot(errorRates,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption(caption))
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
