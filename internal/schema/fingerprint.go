package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// fingerprintDomain separates schema fingerprints from other hashes.
// The version suffix changes when the hashed shape does.
const fingerprintDomain = "rowmodel/schema/v1"

type fieldShape struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Length     int      `json:"length,omitempty"`
	MinLength  int      `json:"min_length,omitempty"`
	MaxLength  int      `json:"max_length,omitempty"`
	Min        string   `json:"min,omitempty"`
	Max        string   `json:"max,omitempty"`
	Precision  [2]int   `json:"precision"`
	Null       bool     `json:"null"`
	Signed     bool     `json:"signed"`
	Stored     bool     `json:"stored"`
	HasDefault bool     `json:"has_default"`
	Enum       []string `json:"enum,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	RefTable   string   `json:"ref_table,omitempty"`
	RefColumns []string `json:"ref_columns,omitempty"`
	OnDelete   string   `json:"on_delete,omitempty"`
	OnUpdate   string   `json:"on_update,omitempty"`
}

type schemaShape struct {
	Table      string       `json:"table"`
	PrimaryKey string       `json:"primary_key"`
	Engine     string       `json:"engine"`
	Charset    string       `json:"charset"`
	Fields     []fieldShape `json:"fields"`
}

// Fingerprint hashes the structure of the schema: table options, fields in
// declaration order and their attributes. Default values and default rows
// are not part of it, so two schemas with equal fingerprints create the same
// table.
//
// Format: hex(SHA256(domain + 0x00 + json(shape)))
func (s *Schema) Fingerprint() string {
	shape := schemaShape{
		Table:      s.table,
		PrimaryKey: s.primaryKey,
		Engine:     s.engine,
		Charset:    s.charset,
	}
	for _, f := range s.fields {
		fs := fieldShape{
			Name:       f.Name(),
			Kind:       f.Kind(),
			Length:     f.Length(),
			MinLength:  f.MinLength(),
			MaxLength:  f.MaxLength(),
			Null:       f.Nullable(),
			Signed:     f.Signed(),
			Stored:     f.Stored(),
			HasDefault: f.HasDefault(),
			Enum:       f.EnumValues(),
			Columns:    f.Columns(),
		}
		if v, ok := f.MinValue(); ok {
			fs.Min = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if v, ok := f.MaxValue(); ok {
			fs.Max = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fs.Precision[0], fs.Precision[1] = f.Precision()
		if f.IsPseudo() {
			fs.RefTable, fs.RefColumns = f.References()
			onDelete, onUpdate := f.Actions()
			fs.OnDelete, fs.OnUpdate = string(onDelete), string(onUpdate)
		}
		shape.Fields = append(shape.Fields, fs)
	}

	// The shape holds only strings, ints and bools.
	data, _ := json.Marshal(shape)
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
