package artifact

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

const (
	indexMagic   = "OAIX"
	indexVersion = uint16(1)

	// magic, version, dimensions, count, built_at, model length
	fixedHeaderLen = 4 + 2 + 4 + 4 + 8 + 2
	crcLen         = 4

	mappingHeader = "platform_id"
)

var byteOrder = binary.LittleEndian

// encodeIndex serialises the vectors and header fields of a snapshot.
func encodeIndex(meta domain.IndexMeta, vectors [][]float32) ([]byte, error) {
	if len(meta.Model) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: model name too long", domain.ErrInvalidInput)
	}

	size := fixedHeaderLen + len(meta.Model) + 4*meta.Dimensions*len(vectors) + crcLen
	buf := bytes.NewBuffer(make([]byte, 0, size))

	buf.WriteString(indexMagic)
	_ = binary.Write(buf, byteOrder, indexVersion)
	_ = binary.Write(buf, byteOrder, uint32(meta.Dimensions))
	_ = binary.Write(buf, byteOrder, uint32(len(vectors)))
	_ = binary.Write(buf, byteOrder, meta.BuiltAt.UnixNano())
	_ = binary.Write(buf, byteOrder, uint16(len(meta.Model)))
	buf.WriteString(meta.Model)

	var word [4]byte
	for _, v := range vectors {
		for _, f := range v {
			byteOrder.PutUint32(word[:], math.Float32bits(f))
			buf.Write(word[:])
		}
	}

	byteOrder.PutUint32(word[:], crc32.ChecksumIEEE(buf.Bytes()))
	buf.Write(word[:])
	return buf.Bytes(), nil
}

// decodeHeader reads the header fields and returns the offset of the first vector.
func decodeHeader(data []byte) (domain.IndexMeta, int, error) {
	var meta domain.IndexMeta
	if len(data) < fixedHeaderLen+crcLen || string(data[:4]) != indexMagic {
		return meta, 0, fmt.Errorf("%w: not an index file", domain.ErrIndexCorrupt)
	}
	if v := byteOrder.Uint16(data[4:6]); v != indexVersion {
		return meta, 0, fmt.Errorf("%w: unsupported index version %d", domain.ErrIndexCorrupt, v)
	}

	meta.Dimensions = int(byteOrder.Uint32(data[6:10]))
	meta.Count = int(byteOrder.Uint32(data[10:14]))
	meta.BuiltAt = time.Unix(0, int64(byteOrder.Uint64(data[14:22]))).UTC()
	modelLen := int(byteOrder.Uint16(data[22:24]))

	off := fixedHeaderLen + modelLen
	if off > len(data)-crcLen {
		return meta, 0, fmt.Errorf("%w: truncated header", domain.ErrIndexCorrupt)
	}
	meta.Model = string(data[fixedHeaderLen:off])
	return meta, off, nil
}

// decodeIndex verifies the checksum and returns the header and vectors.
func decodeIndex(data []byte) (domain.IndexMeta, [][]float32, error) {
	meta, off, err := decodeHeader(data)
	if err != nil {
		return meta, nil, err
	}

	body := data[:len(data)-crcLen]
	if crc32.ChecksumIEEE(body) != byteOrder.Uint32(data[len(data)-crcLen:]) {
		return meta, nil, fmt.Errorf("%w: checksum mismatch", domain.ErrIndexCorrupt)
	}

	payload := body[off:]
	if meta.Dimensions <= 0 || len(payload) != 4*meta.Dimensions*meta.Count {
		return meta, nil, fmt.Errorf("%w: payload is %d bytes for %d vectors of %d dimensions",
			domain.ErrIndexCorrupt, len(payload), meta.Count, meta.Dimensions)
	}

	vectors := make([][]float32, meta.Count)
	for i := range vectors {
		v := make([]float32, meta.Dimensions)
		for j := range v {
			v[j] = math.Float32frombits(byteOrder.Uint32(payload[:4]))
			payload = payload[4:]
		}
		vectors[i] = v
	}
	return meta, vectors, nil
}

// writeMapping writes the platform_id column in vector position order.
func writeMapping(w io.Writer, ids []int64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{mappingHeader}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := cw.Write([]string{strconv.FormatInt(id, 10)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readMapping parses a mapping written by writeMapping.
func readMapping(r io.Reader) ([]int64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty mapping", domain.ErrIndexCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
	}
	if header[0] != mappingHeader {
		return nil, fmt.Errorf("%w: mapping header %q", domain.ErrIndexCorrupt, header[0])
	}

	var ids []int64
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return ids, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrIndexCorrupt, err)
		}
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: mapping row %d: %w", domain.ErrIndexCorrupt, len(ids)+1, err)
		}
		ids = append(ids, id)
	}
}
