package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRawImport_ValidDocument(t *testing.T) {
	doc := []byte(`{
		"experiences": [
			{
				"company": "Acme Inc.",
				"title": "Software Engineer",
				"start_date": "2019-01",
				"end_date": "2022-01",
				"bullets": [
					{"content": "Built the billing pipeline", "importance": 0.8}
				]
			}
		],
		"skills": [
			{"name": "Go", "source_count": 2}
		]
	}`)
	assert.NoError(t, ValidateRawImport(doc))
}

func TestValidateRawImport_EmptyDocument(t *testing.T) {
	assert.NoError(t, ValidateRawImport([]byte(`{}`)))
}

func TestValidateRawImport_MissingRequiredField(t *testing.T) {
	doc := []byte(`{"experiences": [{"company": "Acme Inc."}]}`)

	err := ValidateRawImport(doc)
	require.Error(t, err)

	ve, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.NotEmpty(t, ve.Errors)
	assert.Contains(t, err.Error(), "title")
}

func TestValidateRawImport_ImportanceOutOfRange(t *testing.T) {
	doc := []byte(`{
		"experiences": [
			{"company": "Acme Inc.", "title": "Engineer", "bullets": [{"content": "x", "importance": 1.5}]}
		]
	}`)

	err := ValidateRawImport(doc)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidateRawImport_UnknownField(t *testing.T) {
	doc := []byte(`{"resume_text": "everything in one string"}`)

	err := ValidateRawImport(doc)
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.True(t, ok)
}

func TestValidateRawImport_MalformedJSON(t *testing.T) {
	err := ValidateRawImport([]byte(`{not json`))
	require.Error(t, err)
	_, ok := err.(*ValidationError)
	assert.False(t, ok)
}
