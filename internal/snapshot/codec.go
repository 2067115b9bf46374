package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"

	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"
)

const magic = "SWIMG1"

// Encode serializes an image. When compress is true every section payload is
// snappy-compressed.
func Encode(img *Image, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)

	header := img.Header
	header.Compressed = compress
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return nil, swerrors.NewSnapshotError(swerrors.CodeEncodeFailed, "failed to encode header", err)
	}
	if err := writeRecord(&buf, headerJSON); err != nil {
		return nil, err
	}

	digest := murmur3.New128()
	for _, section := range img.Sections {
		payload, err := json.Marshal(section)
		if err != nil {
			return nil, swerrors.NewSnapshotError(swerrors.CodeEncodeFailed,
				fmt.Sprintf("failed to encode section %s", section.Name), err)
		}
		if compress {
			payload = snappy.Encode(nil, payload)
		}
		digest.Write(payload)
		if err := writeRecord(&buf, payload); err != nil {
			return nil, err
		}
	}

	trailerJSON, err := json.Marshal(trailer{
		Sections: len(img.Sections),
		Digest:   hex.EncodeToString(digest.Sum(nil)),
	})
	if err != nil {
		return nil, swerrors.NewSnapshotError(swerrors.CodeEncodeFailed, "failed to encode trailer", err)
	}
	if err := writeRecord(&buf, trailerJSON); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses and verifies an image produced by Encode.
func Decode(data []byte) (*Image, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, corrupt("missing image magic", nil)
	}
	r := bytes.NewReader(data[len(magic):])

	headerJSON, err := readRecord(r)
	if err != nil {
		return nil, corrupt("failed to read header", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, corrupt("failed to decode header", err)
	}
	if header.FormatVersion != FormatVersion {
		return nil, swerrors.NewSnapshotError(swerrors.CodeUnknownVersion,
			fmt.Sprintf("unsupported image format version %d", header.FormatVersion), nil)
	}

	img := &Image{Header: header, Sections: make([]Section, 0, len(header.Sections))}
	digest := murmur3.New128()
	for i := range header.Sections {
		payload, err := readRecord(r)
		if err != nil {
			return nil, corrupt(fmt.Sprintf("failed to read section %d", i), err)
		}
		digest.Write(payload)

		if header.Compressed {
			payload, err = snappy.Decode(nil, payload)
			if err != nil {
				return nil, corrupt(fmt.Sprintf("failed to decompress section %d", i), err)
			}
		}
		var section Section
		if err := json.Unmarshal(payload, &section); err != nil {
			return nil, corrupt(fmt.Sprintf("failed to decode section %d", i), err)
		}
		if section.Name != header.Sections[i] {
			return nil, corrupt(fmt.Sprintf("section %d is %q, header lists %q", i, section.Name, header.Sections[i]), nil)
		}
		img.Sections = append(img.Sections, section)
	}

	trailerJSON, err := readRecord(r)
	if err != nil {
		return nil, corrupt("failed to read trailer", err)
	}
	var t trailer
	if err := json.Unmarshal(trailerJSON, &t); err != nil {
		return nil, corrupt("failed to decode trailer", err)
	}
	if t.Sections != len(img.Sections) {
		return nil, corrupt(fmt.Sprintf("trailer counts %d sections, read %d", t.Sections, len(img.Sections)), nil)
	}
	if got := hex.EncodeToString(digest.Sum(nil)); got != t.Digest {
		return nil, corrupt(fmt.Sprintf("digest mismatch: computed %s, trailer %s", got, t.Digest), nil)
	}
	if r.Len() != 0 {
		return nil, corrupt(fmt.Sprintf("%d trailing bytes after trailer", r.Len()), nil)
	}

	return img, nil
}

// writeRecord writes [length:4][crc32:4][payload].
func writeRecord(w io.Writer, payload []byte) error {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:8], crc32.ChecksumIEEE(payload))
	if _, err := w.Write(hdr[:]); err != nil {
		return swerrors.NewSnapshotError(swerrors.CodeEncodeFailed, "failed to write record header", err)
	}
	if _, err := w.Write(payload); err != nil {
		return swerrors.NewSnapshotError(swerrors.CodeEncodeFailed, "failed to write record payload", err)
	}
	return nil
}

// readRecord reads one framed record and verifies its CRC.
func readRecord(r *bytes.Reader) ([]byte, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("truncated record header: %w", err)
	}
	length := binary.LittleEndian.Uint32(hdr[0:4])
	crc := binary.LittleEndian.Uint32(hdr[4:8])
	if int64(length) > int64(r.Len()) {
		return nil, fmt.Errorf("record length %d exceeds remaining %d bytes", length, r.Len())
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("truncated record payload: %w", err)
	}
	if computed := crc32.ChecksumIEEE(payload); computed != crc {
		return nil, fmt.Errorf("crc mismatch: computed %08x, stored %08x", computed, crc)
	}
	return payload, nil
}

func corrupt(message string, cause error) error {
	return swerrors.NewSnapshotError(swerrors.CodeCorruptionDetected, message, cause)
}
