// Package catalog describes the resources managed by the back-office: their
// form fields, list columns, and for exportable entities the fixed CSV column
// order used by export and import.
package catalog

import "strings"

// ColumnKind is how a CSV column is encoded and decoded.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumber
	KindBool
	KindDate
	KindComplex // list of flat objects, pipe-delimited JSON
)

// Column maps one CSV column to a record field.
type Column struct {
	Header   string     // Human-readable header written to the file
	Field    string     // Record field name
	Kind     ColumnKind // Encoding
	Required bool       // Rows with this column empty are not imported
	// Generated columns are assigned by the backend. They are exported for
	// reference and ignored on import.
	Generated bool
	// Keys projects complex elements onto these keys on export. Empty means
	// keep every key.
	Keys []string
}

// FieldType is the form control used for a field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldTextarea
	FieldNumber
	FieldBool
	FieldSelect
	FieldEmail
	FieldURL
	FieldDate
	FieldComplex // textarea holding pipe-delimited JSON objects
)

// FieldSpec defines one form field of a resource.
type FieldSpec struct {
	Name    string    // Record field name
	Label   string    // Display label
	Type    FieldType // Form control
	Rules   string    // validator/v10 rules, e.g. "required,max=120"
	Options []string  // Choices for FieldSelect
	Listed  bool      // Shown as a column in the list table
	Hint    string    // Optional help text under the control
}

// Required reports whether the field's rules demand a value.
func (f FieldSpec) Required() bool {
	for _, rule := range strings.Split(f.Rules, ",") {
		if rule == "required" {
			return true
		}
	}
	return false
}

// Resource is one backend collection with its screens.
type Resource struct {
	Key      string // URL key and cache tag: "perfumes"
	Label    string // Plural display name: "Perfumes"
	Singular string // "Perfume"
	Group    string // Sidebar group: "Catalog"
	Path     string // Backend path: "/admin/perfumes"
	Fields   []FieldSpec
	Columns  []Column // CSV column order; nil when not exportable
}

// Exportable reports whether the resource takes part in CSV export/import.
func (r Resource) Exportable() bool {
	return len(r.Columns) > 0
}

// Header returns the CSV header row.
func (r Resource) Header() []string {
	header := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		header[i] = c.Header
	}
	return header
}

// ListedFields returns the fields shown in the list table.
func (r Resource) ListedFields() []FieldSpec {
	var out []FieldSpec
	for _, f := range r.Fields {
		if f.Listed {
			out = append(out, f)
		}
	}
	return out
}

// Field looks up a form field by name.
func (r Resource) Field(name string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
