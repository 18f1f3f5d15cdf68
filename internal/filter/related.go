// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

// RelationshipContains is the only tabular relationship the service knows.
const RelationshipContains = "contains"

// Tabular restricts search and augmentation to a subset of the related
// file's columns.
type Tabular struct {
	Columns      []int
	Relationship string
}

// RelatedFileValue is a file the user wants to join or union with. It is
// either a LocalFile or a SearchResultFile.
type RelatedFileValue interface {
	Value
	// Label is the name shown to the user.
	Label() string
	// Columns returns the column restriction, or nil.
	Columns() *Tabular
	// WithColumns returns a copy carrying the given column restriction.
	WithColumns(t *Tabular) RelatedFileValue
}

// LocalFile is a file supplied by the user. Token is an opaque handle: a
// profile token issued by the service, or a local path the CLI reads the
// bytes from.
type LocalFile struct {
	Token   string
	Name    string
	Size    int64
	Tabular *Tabular
}

func (LocalFile) Kind() Kind          { return RelatedFile }
func (LocalFile) sealed()             {}
func (f LocalFile) Label() string     { return f.Name }
func (f LocalFile) Columns() *Tabular { return f.Tabular }

func (f LocalFile) WithColumns(t *Tabular) RelatedFileValue {
	f.Tabular = t
	return f
}

// SearchResultFile is a dataset already known to the service.
type SearchResultFile struct {
	DatasetID string
	Name      string
	Tabular   *Tabular
}

func (SearchResultFile) Kind() Kind          { return RelatedFile }
func (SearchResultFile) sealed()             {}
func (f SearchResultFile) Label() string     { return f.Name }
func (f SearchResultFile) Columns() *Tabular { return f.Tabular }

func (f SearchResultFile) WithColumns(t *Tabular) RelatedFileValue {
	f.Tabular = t
	return f
}
