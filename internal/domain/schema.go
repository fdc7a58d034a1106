package domain

// FieldKind enumerates the logical field types the index backend must
// support.
type FieldKind string

const (
	FieldString    FieldKind = "string"
	FieldInt       FieldKind = "int"
	FieldInt64     FieldKind = "int64"
	FieldText      FieldKind = "text" // lexically searchable
	FieldTimestamp FieldKind = "timestamp"
	FieldVector    FieldKind = "vector"
)

// VectorSpec describes an ANN-indexed vector field.
type VectorSpec struct {
	Dim    int
	Metric string // "cosine"
}

// HNSWParams tunes the ANN index construction and search.
type HNSWParams struct {
	M              int
	EfConstruction int
	EfSearch       int
}

// FieldSpec is one declarative field of the index schema. The same
// record drives both index creation and in-place schema upgrades.
type FieldSpec struct {
	Name       string
	Kind       FieldKind
	Key        bool
	Filterable bool
	Sortable   bool
	Vector     *VectorSpec
}

// IndexSchema is the declarative description of the chunk index.
type IndexSchema struct {
	Name   string
	Fields []FieldSpec
	HNSW   HNSWParams
}

// KeyField returns the primary-key field.
func (s IndexSchema) KeyField() FieldSpec {
	for _, f := range s.Fields {
		if f.Key {
			return f
		}
	}
	return FieldSpec{}
}

// ChunkIndexSchema builds the schema for the document-chunk index with
// the given embedding dimension and ANN parameters.
func ChunkIndexSchema(name string, dim int, hnsw HNSWParams) IndexSchema {
	return IndexSchema{
		Name: name,
		HNSW: hnsw,
		Fields: []FieldSpec{
			{Name: "id", Kind: FieldString, Key: true},
			{Name: "document_id", Kind: FieldString, Filterable: true},
			{Name: "chunk_index", Kind: FieldInt, Filterable: true},
			{Name: "content", Kind: FieldText},
			{Name: "embedding", Kind: FieldVector, Vector: &VectorSpec{Dim: dim, Metric: "cosine"}},
			{Name: "metadata", Kind: FieldString},
			{Name: "created_at", Kind: FieldTimestamp, Filterable: true, Sortable: true},
			{Name: "original_file_name", Kind: FieldString, Filterable: true},
			{Name: "content_type", Kind: FieldString, Filterable: true},
			{Name: "file_size_bytes", Kind: FieldInt64, Filterable: true},
			{Name: "blob_path", Kind: FieldString, Filterable: true},
			{Name: "blob_container", Kind: FieldString},
			{Name: "text_content_blob_path", Kind: FieldString, Filterable: true},
		},
	}
}
