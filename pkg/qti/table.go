package qti

import "github.com/matzehuels/qtikit/pkg/qti/datatype"

// Table is an XHTML table.
type Table struct {
	BodyElement
	Summary   string `qti:"summary"`
	Caption   *Caption
	Cols      []*Col
	ColGroups []*ColGroup
	THead     *TablePart
	TFoot     *TablePart
	TBodies   []*TablePart
}

// ClassName returns "table".
func (e *Table) ClassName() string { return "table" }

// Components returns the parts in XHTML order: caption, col, colgroup,
// thead, tfoot, tbody.
func (e *Table) Components() []Component {
	var out []Component
	if e.Caption != nil {
		out = append(out, e.Caption)
	}
	out = append(out, components(e.Cols)...)
	out = append(out, components(e.ColGroups)...)
	if e.THead != nil {
		out = append(out, e.THead)
	}
	if e.TFoot != nil {
		out = append(out, e.TFoot)
	}
	return append(out, components(e.TBodies)...)
}

// SetComponents replaces the children of the Table.
func (e *Table) SetComponents(cs []Component) error {
	e.Caption, e.Cols, e.ColGroups, e.THead, e.TFoot, e.TBodies = nil, nil, nil, nil, nil, nil
	for _, c := range cs {
		switch c := c.(type) {
		case *Caption:
			e.Caption = c
		case *Col:
			e.Cols = append(e.Cols, c)
		case *ColGroup:
			e.ColGroups = append(e.ColGroups, c)
		case *TablePart:
			switch c.kind {
			case "thead":
				e.THead = c
			case "tfoot":
				e.TFoot = c
			default:
				e.TBodies = append(e.TBodies, c)
			}
		default:
			return unexpected(e, c)
		}
	}
	return nil
}

// Caption is the caption of a table.
type Caption struct {
	BodyElement
	Content []Component
}

// ClassName returns "caption".
func (e *Caption) ClassName() string { return "caption" }

// Components returns the children of the Caption in document order.
func (e *Caption) Components() []Component { return e.Content }

// SetComponents replaces the children of the Caption.
func (e *Caption) SetComponents(cs []Component) error { e.Content = cs; return nil }

// Col describes one or more table columns.
type Col struct {
	BodyElement
	Span int `qti:"span,default=1"`
}

// ClassName returns "col".
func (e *Col) ClassName() string { return "col" }

// ColGroup groups columns.
type ColGroup struct {
	BodyElement
	Span int `qti:"span,default=1"`
	Cols []*Col
}

// ClassName returns "colgroup".
func (e *ColGroup) ClassName() string { return "colgroup" }

// Components returns the children of the ColGroup in document order.
func (e *ColGroup) Components() []Component { return components(e.Cols) }

// SetComponents replaces the children of the ColGroup.
func (e *ColGroup) SetComponents(cs []Component) (err error) {
	e.Cols, err = only[*Col](e, cs)
	return err
}

// TablePart is a thead, tbody or tfoot section.
type TablePart struct {
	BodyElement
	kind string
	Rows []*Tr
}

// NewTablePart creates a table section of the given kind.
func NewTablePart(kind string) *TablePart { return &TablePart{kind: kind} }

// ClassName returns the tag name the TablePart was created for.
func (e *TablePart) ClassName() string { return e.kind }

// Components returns the children of the TablePart in document order.
func (e *TablePart) Components() []Component { return components(e.Rows) }

// SetComponents replaces the children of the TablePart.
func (e *TablePart) SetComponents(cs []Component) (err error) {
	e.Rows, err = only[*Tr](e, cs)
	return err
}

// Tr is a table row.
type Tr struct {
	BodyElement
	Cells []*TableCell
}

// ClassName returns "tr".
func (e *Tr) ClassName() string { return "tr" }

// Components returns the children of the Tr in document order.
func (e *Tr) Components() []Component { return components(e.Cells) }

// SetComponents replaces the children of the Tr.
func (e *Tr) SetComponents(cs []Component) (err error) {
	e.Cells, err = only[*TableCell](e, cs)
	return err
}

// TableCell is a td or th cell.
type TableCell struct {
	BodyElement
	kind    string
	Headers []string                `qti:"headers"`
	Scope   datatype.TableCellScope `qti:"scope"`
	Abbr    string                  `qti:"abbr"`
	Axis    string                  `qti:"axis"`
	Rowspan int                     `qti:"rowspan"`
	Colspan int                     `qti:"colspan"`
	Content []Component
}

// NewTableCell creates a td or th cell.
func NewTableCell(kind string) *TableCell { return &TableCell{kind: kind} }

// ClassName returns the tag name the TableCell was created for.
func (e *TableCell) ClassName() string { return e.kind }

// Components returns the children of the TableCell in document order.
func (e *TableCell) Components() []Component { return e.Content }

// SetComponents replaces the children of the TableCell.
func (e *TableCell) SetComponents(cs []Component) error { e.Content = cs; return nil }
