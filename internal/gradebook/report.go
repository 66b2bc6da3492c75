package gradebook

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PointsPossibleRow is the key of the first report row.
const PointsPossibleRow = "Points Possible"

const (
	columnName       = "Name"
	columnId         = "ID"
	columnFinalGrade = "Final Grade"
)

// Row is one line of a gradebook, cells line up with the gradebook's columns. A nil
// cell is blank.
type Row struct {
	Key   string
	Cells []any
}

// Gradebook is the tabular report of a bundle: a "Points Possible" row followed by one
// row per student, with raw scores, per cluster points and percents and a final grade.
type Gradebook struct {
	Columns []string
	Rows    []Row

	Final FinalGrade
}

func assignmentColumn(name string, id int64) string {
	return fmt.Sprintf("%s (%d)", name, id)
}

func pointsColumn(cluster string) string {
	return fmt.Sprintf("%s (Points)", cluster)
}

func percentColumn(cluster string) string {
	return fmt.Sprintf("%s (Percent)", cluster)
}

// NewGradebook lays out the bundle as a gradebook scored over the given clusters.
func NewGradebook(b *GradingBundle, clusters []AssignmentCluster) *Gradebook {
	g := &Gradebook{Columns: []string{columnName, columnId}}
	for _, assignmentId := range b.AssignmentIDs {
		g.Columns = append(g.Columns, assignmentColumn(b.Assignments[assignmentId].Name, assignmentId))
	}
	scores := make([]ClusterScore, len(clusters))
	for i, cluster := range clusters {
		scores[i] = b.ScoreByCluster(cluster)
		g.Columns = append(g.Columns, pointsColumn(cluster.Name), percentColumn(cluster.Name))
	}
	g.Columns = append(g.Columns, columnFinalGrade)
	g.Final = b.WeightClusters(clusters)

	possible := Row{Key: PointsPossibleRow, Cells: []any{nil, nil}}
	for _, assignmentId := range b.AssignmentIDs {
		var cell any
		if pointsPossible := b.Assignments[assignmentId].PointsPossible; pointsPossible != nil {
			cell = *pointsPossible
		}
		possible.Cells = append(possible.Cells, cell)
	}
	for _, score := range scores {
		possible.Cells = append(possible.Cells, score.PointsPossible, score.PossiblePercent)
	}
	possible.Cells = append(possible.Cells, g.finalCell(g.Final.PointsPossible))
	g.Rows = append(g.Rows, possible)

	for _, studentId := range b.StudentIDs {
		portfolio := b.Portfolios[studentId]
		row := Row{
			Key:   strconv.FormatInt(studentId, 10),
			Cells: []any{portfolio.StudentName, studentId},
		}
		for _, assignmentId := range b.AssignmentIDs {
			var cell any
			if submission := portfolio.Submissions[assignmentId]; submission != nil && submission.Score != nil {
				cell = *submission.Score
			}
			row.Cells = append(row.Cells, cell)
		}
		for _, score := range scores {
			row.Cells = append(row.Cells, score.Points[studentId], score.Percent[studentId])
		}
		row.Cells = append(row.Cells, g.finalCell(g.Final.Grades[studentId]))
		g.Rows = append(g.Rows, row)
	}
	return g
}

func (g *Gradebook) finalCell(value float64) any {
	if !g.Final.Defined {
		return nil
	}
	return value
}

// Cell returns the cell of a row by row key and column name.
func (g *Gradebook) Cell(row, column string) (any, bool) {
	col := -1
	for i, name := range g.Columns {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, false
	}
	for _, r := range g.Rows {
		if r.Key == row {
			return r.Cells[col], true
		}
	}
	return nil, false
}

// FormatCell renders a cell the way it appears in every output format.
func FormatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
	}
	return fmt.Sprint(cell)
}

// Format is an output format of a gradebook.
type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates the name of an output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatCSV, FormatMarkdown, FormatHTML:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected table, csv, markdown or html)", s)
}

// Table returns the gradebook as a table writer, the row key is the first column.
func (g *Gradebook) Table() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault

	header := table.Row{""}
	for _, column := range g.Columns {
		header = append(header, column)
	}
	t.AppendHeader(header)

	for _, row := range g.Rows {
		cells := table.Row{row.Key}
		for _, cell := range row.Cells {
			cells = append(cells, FormatCell(cell))
		}
		t.AppendRow(cells)
	}
	return t
}

// Render writes the gradebook to w in the given format.
func (g *Gradebook) Render(w io.Writer, format Format) error {
	t := g.Table()
	var out string
	switch format {
	case FormatCSV:
		out = t.RenderCSV()
	case FormatMarkdown:
		out = t.RenderMarkdown()
	case FormatHTML:
		out = t.RenderHTML()
	default:
		out = t.Render()
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
