package inspector

import (
	"github.com/minio/highwayhash"
)

// DefinitionKind indicates the kind of reusable code element a definition represents
type DefinitionKind string

const (
	// Definition kinds
	KindModule   DefinitionKind = "Module"   // module <name>() { ... }
	KindFunction DefinitionKind = "Function" // function <name>(...) = ...;
	KindConstant DefinitionKind = "Constant" // _NAME = ...;
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Definition represents a reusable OpenSCAD code element with its metadata
type Definition struct {
	Kind DefinitionKind `json:"kind" yaml:"kind"`                     // Kind of definition
	Name string         `json:"name,omitempty" yaml:"name,omitempty"` // Element name
	Text string         `json:"text" yaml:"text"`                     // Verbatim source text including internal comments
	Hash uint64         `json:"hash,omitempty" yaml:"hash,omitempty"` // Hash of the text
}

// HashContent generates a highway hash of the definition text
func (d *Definition) HashContent() (uint64, error) {
	hash, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write([]byte(d.Text))
	return hash.Sum64(), err
}
