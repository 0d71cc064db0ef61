package files

import "time"

// Kind separates photos from documents. The two kinds share storage but
// carry different permissions.
type Kind string

const (
	KindPhoto    Kind = "photo"
	KindDocument Kind = "document"
)

// Valid reports whether k is a known file kind.
func (k Kind) Valid() bool {
	return k == KindPhoto || k == KindDocument
}

// StoredFile is the metadata row for one uploaded object. The bytes
// live on disk under the storage key.
type StoredFile struct {
	ID           int64
	ProjectID    int64
	Kind         Kind
	Key          string
	OriginalName string
	ContentType  string
	SizeBytes    int64
	Caption      string
	UploadedByID int64
	CreatedAt    time.Time
}
