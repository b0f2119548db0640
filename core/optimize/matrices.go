package optimize

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrices holds the state-space system matrices. C is nil when the model has
// no measurement equation.
type Matrices struct {
	A *mat.Dense
	B *mat.Dense
	C *mat.Dense
}

// LoadMatrices reads A, B and C from a JSON file ({"A": [[...]], ...}) or a
// DMDc metadata XML file, chosen by extension.
func LoadMatrices(path string) (Matrices, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadMatricesJSON(path)
	case ".xml":
		return loadMatricesXML(path)
	default:
		return Matrices{}, fmt.Errorf("matrices file %s must be json or xml: %w", path, ErrConfig)
	}
}

func loadMatricesJSON(path string) (Matrices, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Matrices{}, fmt.Errorf("read matrices: %w", err)
	}
	var doc struct {
		A [][]float64 `json:"A"`
		B [][]float64 `json:"B"`
		C [][]float64 `json:"C"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Matrices{}, fmt.Errorf("parse matrices %s: %w", path, err)
	}
	m := Matrices{}
	if m.A, err = denseFromRows(doc.A); err != nil {
		return Matrices{}, fmt.Errorf("matrix A in %s: %w", path, err)
	}
	if m.B, err = denseFromRows(doc.B); err != nil {
		return Matrices{}, fmt.Errorf("matrix B in %s: %w", path, err)
	}
	if len(doc.C) > 0 {
		if m.C, err = denseFromRows(doc.C); err != nil {
			return Matrices{}, fmt.Errorf("matrix C in %s: %w", path, err)
		}
	}
	return m, nil
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("matrix is empty: %w", ErrConfig)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d entries, want %d: %w", i, len(row), cols, ErrConfig)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// xmlNode is a generic element tree, enough to search DMDc metadata for the
// matrix payloads wherever the exporter nested them.
type xmlNode struct {
	XMLName  xml.Name
	Children []xmlNode `xml:",any"`
	Text     string    `xml:",chardata"`
}

func (n *xmlNode) find(name string) *xmlNode {
	if n.XMLName.Local == name {
		return n
	}
	for i := range n.Children {
		if found := n.Children[i].find(name); found != nil {
			return found
		}
	}
	return nil
}

func loadMatricesXML(path string) (Matrices, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Matrices{}, fmt.Errorf("read matrices: %w", err)
	}
	var root xmlNode
	if err := xml.Unmarshal(raw, &root); err != nil {
		return Matrices{}, fmt.Errorf("parse matrices %s: %w", path, err)
	}
	m := Matrices{}
	if m.A, err = matrixFromXML(&root, "Atilde"); err != nil {
		return Matrices{}, fmt.Errorf("%s: %w", path, err)
	}
	if m.B, err = matrixFromXML(&root, "Btilde"); err != nil {
		return Matrices{}, fmt.Errorf("%s: %w", path, err)
	}
	if root.find("Ctilde") != nil {
		if m.C, err = matrixFromXML(&root, "Ctilde"); err != nil {
			return Matrices{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	return m, nil
}

// matrixFromXML reads one matrix element. The payload lists values in
// column-major (Fortran) order with its shape in a sibling element.
func matrixFromXML(root *xmlNode, name string) (*mat.Dense, error) {
	node := root.find(name)
	if node == nil {
		return nil, fmt.Errorf("element %s not found: %w", name, ErrConfig)
	}
	shapeNode := node.find("matrixShape")
	valsNode := node.find("real")
	if shapeNode == nil || valsNode == nil {
		return nil, fmt.Errorf("element %s missing matrixShape or real: %w", name, ErrConfig)
	}
	shapeParts := strings.Split(strings.TrimSpace(shapeNode.Text), ",")
	if len(shapeParts) != 2 {
		return nil, fmt.Errorf("element %s has shape %q, want rows,cols: %w", name, shapeNode.Text, ErrConfig)
	}
	rows, err := strconv.Atoi(strings.TrimSpace(shapeParts[0]))
	if err != nil {
		return nil, fmt.Errorf("element %s rows: %w", name, err)
	}
	cols, err := strconv.Atoi(strings.TrimSpace(shapeParts[1]))
	if err != nil {
		return nil, fmt.Errorf("element %s cols: %w", name, err)
	}
	fields := strings.Fields(valsNode.Text)
	if len(fields) != rows*cols {
		return nil, fmt.Errorf("element %s has %d values, want %d: %w", name, len(fields), rows*cols, ErrConfig)
	}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		if vals[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, fmt.Errorf("element %s value %d: %w", name, i, err)
		}
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			out.Set(i, j, vals[j*rows+i])
		}
	}
	return out, nil
}
