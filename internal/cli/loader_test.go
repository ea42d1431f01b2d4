package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModels(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	res, err := LoadModels(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FileCount)
	assert.Equal(t, []string{"users", "posts"}, res.Tables())
	require.NotNil(t, res.Model("posts"))
	assert.Nil(t, res.Model("comments"))
	assert.True(t, res.CUEValue.Exists())
}

func TestLoadModelsNotADirectory(t *testing.T) {
	dir := writeModels(t, map[string]string{"blog.cue": blogModels})

	_, err := LoadModels(filepath.Join(dir, "blog.cue"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadModelsCompileErrorPosition(t *testing.T) {
	dir := writeModels(t, map[string]string{"bad.cue": `package test

model: things: {
	primary_key: "id"
	fields: id: {type: "integer", colour: "red"}
}
`})

	_, err := LoadModels(dir)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeInvalidField, le.Code)
	assert.Contains(t, le.Message, "fields.id.colour")
}

func TestFindCUEFiles(t *testing.T) {
	dir := writeModels(t, map[string]string{"a.cue": "package test\n", "notes.txt": "x"})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.cue"), []byte("package test\n"), 0644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"cue":                        ErrCodeBuildFailed,
		"fields.id.type":             ErrCodeInvalidType,
		"fields.id.scale":            ErrCodeInvalidField,
		"fields":                     ErrCodeInvalidModel,
		"model.users":                ErrCodeInvalidModel,
		"fields.fk.references.table": ErrCodeInvalidField,
	}
	for field, want := range tests {
		assert.Equal(t, want, MapFieldToErrorCode(field), field)
	}
}
