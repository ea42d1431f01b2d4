// Package compiler turns CUE model definitions into schemas.
//
// A model is declared under the top-level "model" struct, labelled by its
// table name. Fields keep their declaration order:
//
//	model: users: {
//		primary_key: "id"
//		fields: {
//			id:        {type: "integer", signed: false}
//			name:      {type: "string", max_length: 64, null: false}
//			uniq_name: {type: "unique_index", columns: ["name"]}
//		}
//		default_rows: [[1, "root"]]
//	}
package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/rowmodel/internal/field"
	"github.com/roach88/rowmodel/internal/schema"
)

// defaultFuncs are the value producers a definition may name in
// default_func and on_update_func.
var defaultFuncs = map[string]func() any{
	"now":   field.Now,
	"uuid":  field.NewUUID,
	"uuid7": field.NewUUIDv7,
}

var modelKeys = map[string]bool{
	"primary_key": true, "engine": true, "charset": true,
	"fields": true, "default_rows": true,
}

var fieldKeys = map[string]bool{
	"type": true, "length": true, "min_length": true, "max_length": true,
	"min": true, "max": true, "precision": true, "scale": true,
	"null": true, "default": true, "default_func": true,
	"on_update": true, "on_update_func": true, "on_delete": true,
	"signed": true, "enum": true, "db": true, "readonly": true,
	"hidden": true, "label": true, "placeholder": true,
	"columns": true, "references": true,
}

// CompileModels compiles every model under the "model" struct of v, in
// declaration order.
func CompileModels(v cue.Value) ([]*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	modelsVal := v.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, nil
	}
	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []*schema.Schema
	for iter.Next() {
		s, err := CompileModel(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileModel parses one model definition. The table name is the model's
// label:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: users: { ... }`)
//	s, err := CompileModel(v.LookupPath(cue.ParsePath("model.users")))
func CompileModel(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var table string
	if labels := v.Path().Selectors(); len(labels) > 0 {
		table = strings.Trim(labels[len(labels)-1].String(), `"`)
	}
	if err := checkKeys(v, modelKeys, "model."+table); err != nil {
		return nil, err
	}

	b := schema.New(table)

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{Field: "fields", Message: "at least one field is required", Pos: v.Pos()}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := strings.Trim(iter.Selector().String(), `"`)
		f, err := compileField(iter.Value(), name)
		if err != nil {
			return nil, err
		}
		b.Field(name, f)
	}

	if pk, ok, err := optString(v, "primary_key"); err != nil {
		return nil, err
	} else if ok {
		b.PrimaryKey(pk)
	}
	if engine, ok, err := optString(v, "engine"); err != nil {
		return nil, err
	} else if ok {
		b.Engine(engine)
	}
	if charset, ok, err := optString(v, "charset"); err != nil {
		return nil, err
	} else if ok {
		b.Charset(charset)
	}

	rowsVal := v.LookupPath(cue.ParsePath("default_rows"))
	if rowsVal.Exists() {
		rows, err := compileRows(rowsVal)
		if err != nil {
			return nil, err
		}
		b.DefaultRows(rows...)
	}

	s, err := b.Build()
	if err != nil {
		return nil, &CompileError{Field: "model." + table, Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// compileField builds the field declared by v.
func compileField(v cue.Value, name string) (*field.Field, error) {
	path := "fields." + name
	if err := checkKeys(v, fieldKeys, path); err != nil {
		return nil, err
	}

	typeName, ok, err := optString(v, "type")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{Field: path + ".type", Message: "type is required", Pos: v.Pos()}
	}
	kind, err := field.ParseKind(typeName)
	if err != nil {
		return nil, &CompileError{Field: path + ".type", Message: err.Error(), Pos: v.LookupPath(cue.ParsePath("type")).Pos()}
	}

	columns, _, err := optStrings(v, "columns")
	if err != nil {
		return nil, err
	}

	switch kind {
	case field.KindUniqueIndex:
		return field.UniqueIndex(columns...), nil
	case field.KindIndex:
		return field.Index(columns...), nil
	case field.KindForeignKey:
		return compileForeignKey(v, path, columns)
	}

	opts, err := fieldOptions(v, path)
	if err != nil {
		return nil, err
	}
	if kind == field.KindEnum {
		values, _, err := optStrings(v, "enum")
		if err != nil {
			return nil, err
		}
		return field.Enum(values, opts...), nil
	}
	return field.Of(kind, opts...), nil
}

func compileForeignKey(v cue.Value, path string, columns []string) (*field.Field, error) {
	refVal := v.LookupPath(cue.ParsePath("references"))
	if !refVal.Exists() {
		return nil, &CompileError{Field: path + ".references", Message: "foreign_key requires references", Pos: v.Pos()}
	}
	refTable, ok, err := optString(refVal, "table")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{Field: path + ".references.table", Message: "referenced table is required", Pos: refVal.Pos()}
	}
	refCols, ok, err := optStrings(refVal, "columns")
	if err != nil {
		return nil, err
	}
	if !ok {
		refCols = columns
	}

	var opts []field.Option
	for _, key := range []string{"on_delete", "on_update"} {
		s, ok, err := optString(v, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		action, err := field.ParseAction(s)
		if err != nil {
			return nil, &CompileError{Field: path + "." + key, Message: err.Error(), Pos: v.LookupPath(cue.ParsePath(key)).Pos()}
		}
		if key == "on_delete" {
			opts = append(opts, field.DeleteAction(action))
		} else {
			opts = append(opts, field.UpdateAction(action))
		}
	}
	return field.ForeignKey(columns, refTable, refCols, opts...), nil
}

// fieldOptions translates the attributes of a data field.
func fieldOptions(v cue.Value, path string) ([]field.Option, error) {
	var opts []field.Option

	ints := []struct {
		key string
		opt func(int) field.Option
	}{
		{"length", field.Length},
		{"min_length", field.MinLength},
		{"max_length", field.MaxLength},
	}
	for _, i := range ints {
		n, ok, err := optInt(v, i.key)
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, i.opt(n))
		}
	}

	for _, key := range []string{"min", "max"} {
		val := v.LookupPath(cue.ParsePath(key))
		if !val.Exists() {
			continue
		}
		n, err := val.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if key == "min" {
			opts = append(opts, field.Min(n))
		} else {
			opts = append(opts, field.Max(n))
		}
	}

	m, hasM, err := optInt(v, "precision")
	if err != nil {
		return nil, err
	}
	d, hasD, err := optInt(v, "scale")
	if err != nil {
		return nil, err
	}
	if hasD && !hasM {
		return nil, &CompileError{Field: path + ".scale", Message: "scale requires precision", Pos: v.Pos()}
	}
	if hasM {
		opts = append(opts, field.Precision(m, d))
	}

	bools := []struct {
		key      string
		yes, not field.Option
	}{
		{"null", field.Nullable(), field.NotNull()},
		{"signed", field.Signed(), field.Unsigned()},
		{"db", nil, field.NoStore()},
		{"readonly", field.ReadOnly(), nil},
		{"hidden", field.Hidden(), nil},
	}
	for _, b := range bools {
		set, ok, err := optBool(v, b.key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if set && b.yes != nil {
			opts = append(opts, b.yes)
		} else if !set && b.not != nil {
			opts = append(opts, b.not)
		}
	}

	if s, ok, err := optString(v, "label"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, field.Label(s))
	}
	if s, ok, err := optString(v, "placeholder"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, field.Placeholder(s))
	}

	if val := v.LookupPath(cue.ParsePath("default")); val.Exists() {
		def, err := scalar(val)
		if err != nil {
			return nil, err
		}
		opts = append(opts, field.Default(def))
	}
	if val := v.LookupPath(cue.ParsePath("on_update")); val.Exists() {
		upd, err := scalar(val)
		if err != nil {
			return nil, err
		}
		opts = append(opts, field.OnUpdate(upd))
	}
	for _, key := range []string{"default_func", "on_update_func"} {
		name, ok, err := optString(v, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		fn, known := defaultFuncs[name]
		if !known {
			return nil, &CompileError{
				Field:   path + "." + key,
				Message: fmt.Sprintf("unknown function %q (want now, uuid or uuid7)", name),
				Pos:     v.LookupPath(cue.ParsePath(key)).Pos(),
			}
		}
		if key == "default_func" {
			opts = append(opts, field.DefaultFunc(fn))
		} else {
			opts = append(opts, field.OnUpdateFunc(fn))
		}
	}
	return opts, nil
}

// compileRows decodes default_rows, a list of positional value lists.
func compileRows(v cue.Value) ([][]any, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var rows [][]any
	for iter.Next() {
		cells, err := iter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var row []any
		for cells.Next() {
			c, err := scalar(cells.Value())
			if err != nil {
				return nil, err
			}
			row = append(row, c)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// scalar decodes a concrete CUE value into its Go form. Integers decode to
// int64 and other numbers to float64.
func scalar(v cue.Value) (any, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		return b, formatCUEError(err)
	case cue.IntKind:
		n, err := v.Int64()
		return n, formatCUEError(err)
	case cue.FloatKind:
		n, err := v.Float64()
		return n, formatCUEError(err)
	case cue.StringKind:
		s, err := v.String()
		return s, formatCUEError(err)
	case cue.BytesKind:
		b, err := v.Bytes()
		return b, formatCUEError(err)
	default:
		var out any
		if err := v.Decode(&out); err != nil {
			return nil, formatCUEError(err)
		}
		return out, nil
	}
}

func checkKeys(v cue.Value, allowed map[string]bool, path string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		key := strings.Trim(iter.Selector().String(), `"`)
		if !allowed[key] {
			return &CompileError{Field: path + "." + key, Message: "unknown attribute", Pos: iter.Value().Pos()}
		}
	}
	return nil
}

func optString(v cue.Value, key string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optInt(v cue.Value, key string) (int, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return 0, false, nil
	}
	n, err := val.Int64()
	if err != nil {
		return 0, false, formatCUEError(err)
	}
	return int(n), true, nil
}

func optBool(v cue.Value, key string) (bool, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return false, false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

func optStrings(v cue.Value, key string) ([]string, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, false, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, false, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, false, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, true, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{Field: "cue", Message: firstErr.Error()}
}
