package products

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodec(t *testing.T) {
	t.Run("ImagesRoundTrip", func(t *testing.T) {
		images := []string{"https://img.example/1.jpg", "https://img.example/2.jpg?w=200&h=200"}
		encoded, err := encodeImages(images)
		require.NoError(t, err)

		decoded, err := decodeImages([]byte(encoded))
		require.NoError(t, err)
		require.Equal(t, images, decoded)
	})

	t.Run("SpecsRoundTrip", func(t *testing.T) {
		specs := map[string]interface{}{
			"ram":      "8 GB",
			"screen":   map[string]interface{}{"size": 6.5, "type": "AMOLED"},
			"colors":   []interface{}{"black", "blue"},
			"dual_sim": true,
		}
		encoded, err := encodeSpecs(specs)
		require.NoError(t, err)

		decoded, err := decodeSpecs([]byte(encoded))
		require.NoError(t, err)
		require.Equal(t, specs, decoded)
	})

	t.Run("NilValuesEncodeAsEmptyDocuments", func(t *testing.T) {
		images, err := encodeImages(nil)
		require.NoError(t, err)
		require.Equal(t, "[]", images)

		specs, err := encodeSpecs(nil)
		require.NoError(t, err)
		require.Equal(t, "{}", specs)
	})

	t.Run("DecodesStringEncodedDocuments", func(t *testing.T) {
		images, err := decodeImages([]byte(`"[\"a.jpg\",\"b.jpg\"]"`))
		require.NoError(t, err)
		require.Equal(t, []string{"a.jpg", "b.jpg"}, images)

		specs, err := decodeSpecs([]byte(`"{\"ram\":\"8 GB\"}"`))
		require.NoError(t, err)
		require.Equal(t, map[string]interface{}{"ram": "8 GB"}, specs)
	})

	t.Run("EmptyAndNullDecodeToEmptyValues", func(t *testing.T) {
		for _, raw := range [][]byte{nil, []byte(""), []byte("null"), []byte(`""`)} {
			images, err := decodeImages(raw)
			require.NoError(t, err)
			require.Empty(t, images)
			require.NotNil(t, images)

			specs, err := decodeSpecs(raw)
			require.NoError(t, err)
			require.Empty(t, specs)
			require.NotNil(t, specs)
		}
	})

	t.Run("RejectsMalformedDocuments", func(t *testing.T) {
		_, err := decodeImages([]byte(`{"not":"a list"}`))
		require.Error(t, err)

		_, err = decodeSpecs([]byte(`[1,2`))
		require.Error(t, err)
	})
}

func TestSearchParams(t *testing.T) {
	t.Run("WithDefaults", func(t *testing.T) {
		p := SearchParams{SearchQuery: "phone", MaxProducts: -1}.WithDefaults()
		require.Equal(t, DefaultMaxProducts, p.MaxProducts)
		require.Equal(t, DefaultMaxWorkers, p.MaxWorkers)
		require.False(t, p.AllPages)

		p = SearchParams{SearchQuery: "phone", MaxProducts: 3, MaxWorkers: 2}.WithDefaults()
		require.Equal(t, 3, p.MaxProducts)
		require.Equal(t, 2, p.MaxWorkers)
	})

	t.Run("FingerprintNormalizesQuery", func(t *testing.T) {
		a := SearchParams{SearchQuery: "  Phone "}
		b := SearchParams{SearchQuery: "phone", MaxProducts: DefaultMaxProducts, MaxWorkers: 32}
		c := SearchParams{SearchQuery: "phone", AllPages: true}

		require.Equal(t, a.Fingerprint(), b.Fingerprint())
		require.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	})
}
