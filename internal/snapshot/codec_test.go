package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleImage() *Image {
	return NewImage(time.Unix(1700000000, 0), []Section{
		{Name: "ident", Count: 1, Data: json.RawMessage(`[{"key":"event","value":4}]`)},
		{Name: "events", Count: 2, Data: json.RawMessage(`[{"key":"event_1","value":{"id":"event_1"}},{"key":"event_2","value":{"id":"event_2"}}]`)},
		{Name: "empty", Count: 0, Data: json.RawMessage(`[]`)},
	})
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		img := sampleImage()
		data, err := Encode(img, compress)
		require.NoError(t, err)

		got, err := Decode(data)
		require.NoError(t, err)

		assert.Equal(t, img.Header.ImageID, got.Header.ImageID)
		assert.Equal(t, compress, got.Header.Compressed)
		assert.Equal(t, []string{"ident", "events", "empty"}, got.Header.Sections)
		require.Len(t, got.Sections, 3)
		for i := range img.Sections {
			assert.Equal(t, img.Sections[i].Name, got.Sections[i].Name)
			assert.Equal(t, img.Sections[i].Count, got.Sections[i].Count)
			assert.JSONEq(t, string(img.Sections[i].Data), string(got.Sections[i].Data))
		}
		assert.Equal(t, 3, got.EntryCount())

		s, ok := got.Section("events")
		require.True(t, ok)
		assert.Equal(t, 2, s.Count)
		_, ok = got.Section("missing")
		assert.False(t, ok)
	}
}

func TestDecode_RejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte("NOPE"))
	require.Error(t, err)
	assert.Equal(t, swerrors.CodeCorruptionDetected, swerrors.GetCode(err))
}

func TestDecode_RejectsFlippedByte(t *testing.T) {
	data, err := Encode(sampleImage(), true)
	require.NoError(t, err)

	// Flip a byte inside the first section payload, past magic and header.
	corrupted := append([]byte(nil), data...)
	corrupted[len(corrupted)/2] ^= 0xFF

	_, err = Decode(corrupted)
	require.Error(t, err)
	assert.Equal(t, swerrors.ErrCategorySnapshot, swerrors.GetCategory(err))
}

func TestDecode_RejectsTruncation(t *testing.T) {
	data, err := Encode(sampleImage(), false)
	require.NoError(t, err)

	for _, cut := range []int{len(data) - 1, len(data) - 10, len(magic) + 3} {
		_, err := Decode(data[:cut])
		assert.Error(t, err, "cut at %d", cut)
	}
}

func TestDecode_RejectsTrailingBytes(t *testing.T) {
	data, err := Encode(sampleImage(), false)
	require.NoError(t, err)
	_, err = Decode(append(data, 0x00))
	assert.Error(t, err)
}

func TestDecode_RejectsUnknownVersion(t *testing.T) {
	img := sampleImage()
	img.Header.FormatVersion = 99
	data, err := Encode(img, false)
	require.NoError(t, err)

	_, err = Decode(data)
	require.Error(t, err)
	assert.Equal(t, swerrors.CodeUnknownVersion, swerrors.GetCode(err))
}
