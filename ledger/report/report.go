// Package report writes tabular exports of the users dataset. Each
// exporter returns the path of a temporary artifact the caller must
// remove after delivery.
package report

// Row is one exported record.
type Row struct {
	ID       int64
	Username string
	Email    string
}

// header is the column set shared by every export format.
var header = []string{"ID", "Username", "Email"}

// Exporter writes the dataset into dir and returns the artifact path.
type Exporter interface {
	Export(dir string, rows []Row) (string, error)
	// FileName is the name presented to the recipient of the document.
	FileName() string
}
