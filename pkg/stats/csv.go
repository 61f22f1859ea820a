package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV renders the per-category table. Rows follow the report's
// sorted category order, so repeated runs over the same corpus emit
// identical files.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"category", "count",
		"mean_faces", "std_faces", "min_faces", "max_faces",
		"mean_edges", "std_edges", "min_edges", "max_edges",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, a := range r.Categories {
		row := []string{
			a.Category,
			fmt.Sprintf("%d", a.Count),
			fmt.Sprintf("%.4f", a.MeanFaces),
			fmt.Sprintf("%.4f", a.StdFaces),
			fmt.Sprintf("%d", a.MinFaces),
			fmt.Sprintf("%d", a.MaxFaces),
			fmt.Sprintf("%.4f", a.MeanEdges),
			fmt.Sprintf("%.4f", a.StdEdges),
			fmt.Sprintf("%d", a.MinEdges),
			fmt.Sprintf("%d", a.MaxEdges),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the per-category table to path.
func (r *Report) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
