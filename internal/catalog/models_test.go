package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductMarshalDerivesLegacyImage(t *testing.T) {
	p := Product{
		ID:     "automation-1",
		Images: []string{"https://blob.example.com/a.png", "https://blob.example.com/b.png"},
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "https://blob.example.com/a.png", raw["image"])
}

func TestProductMarshalOmitsLegacyImageWhenEmpty(t *testing.T) {
	data, err := json.Marshal(Product{ID: "automation-1"})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasImage := raw["image"]
	assert.False(t, hasImage)
	// images is always an array on the wire, never null
	assert.Equal(t, []interface{}{}, raw["images"])
}

func TestProductUnmarshalPromotesLegacyImage(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "electronic-123",
		"category": "electronic",
		"name": "Echo Sounder",
		"image": "https://blob.example.com/old.png",
		"createdAt": "2023-06-01T12:00:00Z"
	}`), &p))

	assert.Equal(t, []string{"https://blob.example.com/old.png"}, p.Images)
}

func TestProductUnmarshalPrefersImagesArray(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "electronic-123",
		"image": "https://blob.example.com/old.png",
		"images": ["https://blob.example.com/new.png"]
	}`), &p))

	assert.Equal(t, []string{"https://blob.example.com/new.png"}, p.Images)
}

func TestSpecificationsSurviveRoundTrip(t *testing.T) {
	in := Product{
		ID: "automation-9",
		Specifications: []SpecEntry{
			{Name: "voltage", Value: "24V"},
			{Name: "weight", Value: "1.2kg"},
		},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Product
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Specifications, out.Specifications)
}

func TestDocumentFindIndex(t *testing.T) {
	doc := sampleDoc()
	assert.Equal(t, 1, doc.FindIndex("electronics-1700000000001"))
	assert.Equal(t, -1, doc.FindIndex("unknown"))
}
