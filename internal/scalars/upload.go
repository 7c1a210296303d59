package scalars

import (
	"io"

	"github.com/hanpama/graphcore/internal/executor"
	"github.com/hanpama/graphcore/internal/registry"
)

// UploadValue is a file received in a multipart request. The transport
// places it in the operation variables where the request map points.
type UploadValue struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.ReadSeeker
}

// Upload is a write-only input scalar for file uploads. It can only be
// parsed from an UploadValue and has no output representation.
type Upload struct {
	value *UploadValue
}

var _ executor.InputType = (*Upload)(nil)

func (Upload) TypeName() string { return "Upload" }

func (Upload) CreateTypeInfo(r *registry.Registry) string {
	return r.CreateType("Upload", func(*registry.Registry) *registry.MetaType {
		return &registry.MetaType{
			Kind:        registry.TypeKindScalar,
			Description: "A file part of a multipart request.",
			IsValid:     IsUploadValue,
		}
	})
}

func (u *Upload) ParseValue(v any) error {
	switch x := v.(type) {
	case *UploadValue:
		if x != nil {
			u.value = x
			return nil
		}
	case UploadValue:
		u.value = &x
		return nil
	}
	return executor.ExpectedType(v)
}

// ToValue returns nil: an upload cannot be turned back into an input.
func (Upload) ToValue() any { return nil }

func (u Upload) Filename() string { return u.value.Filename }

// ContentType returns the part's content type, or "" when the client sent
// none.
func (u Upload) ContentType() string { return u.value.ContentType }

// Size returns the size of the file in bytes.
func (u Upload) Size() int64 { return u.value.Size }

// Open returns the content rewound to its start.
func (u Upload) Open() (io.ReadSeeker, error) {
	if _, err := u.value.Content.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return u.value.Content, nil
}

// IsUploadValue reports whether v holds a file part.
func IsUploadValue(v any) bool {
	switch x := v.(type) {
	case *UploadValue:
		return x != nil
	case UploadValue:
		return true
	}
	return false
}
