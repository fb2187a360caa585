package netcdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
)

// Writer assembles a CDF-1 file in memory.
//
//	w := netcdf.NewWriter()
//	w.AddDim("N_PROF", 1)
//	w.AddVar("LATITUDE", netcdf.Double, []string{"N_PROF"}, []float64{-42.5})
//	data, err := w.Bytes()
type Writer struct {
	dims  []Dimension
	attrs []Attribute
	vars  []*VarDef
}

// VarDef is a variable queued for writing.
type VarDef struct {
	Name  string
	Type  Type
	Dims  []string
	Attrs []Attribute
	Data  any
}

// AddAttr attaches an attribute to the variable and returns it for chaining.
func (v *VarDef) AddAttr(name string, value any) *VarDef {
	v.Attrs = append(v.Attrs, makeAttr(name, value))
	return v
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// AddDim declares a dimension. A length of zero declares the unlimited dimension.
func (w *Writer) AddDim(name string, length int) {
	w.dims = append(w.dims, Dimension{Name: name, Len: length, Unlimited: length == 0})
}

// AddGlobalAttr declares a global attribute. Strings become char attributes.
func (w *Writer) AddGlobalAttr(name string, value any) {
	w.attrs = append(w.attrs, makeAttr(name, value))
}

// AddVar declares a variable. Data must match the type: []int8 for Byte,
// string for Char, []int16, []int32, []float32 or []float64.
func (w *Writer) AddVar(name string, t Type, dims []string, data any) *VarDef {
	v := &VarDef{Name: name, Type: t, Dims: dims, Data: data}
	w.vars = append(w.vars, v)
	return v
}

// PadText right-pads each value with spaces to width and concatenates them,
// the layout of a fixed-width char variable.
func PadText(width int, values ...string) string {
	var b strings.Builder
	for _, s := range values {
		if len(s) > width {
			s = s[:width]
		}
		b.WriteString(s)
		b.WriteString(strings.Repeat(" ", width-len(s)))
	}
	return b.String()
}

// WriteFile encodes the file and writes it to path.
func (w *Writer) WriteFile(path string) error {
	data, err := w.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

type layout struct {
	def     *VarDef
	dimIDs  []int
	payload []byte
	rowLen  int
	record  bool
	vsize   int64
	begin   int64
}

// Bytes encodes the file.
func (w *Writer) Bytes() ([]byte, error) {
	dimIndex := make(map[string]int, len(w.dims))
	for i, d := range w.dims {
		dimIndex[d.Name] = i
	}

	numrecs := 0
	layouts := make([]*layout, 0, len(w.vars))
	for _, v := range w.vars {
		l := &layout{def: v, rowLen: 1}
		for j, name := range v.Dims {
			id, ok := dimIndex[name]
			if !ok {
				return nil, fmt.Errorf("netcdf: variable %s: unknown dimension %s", v.Name, name)
			}
			l.dimIDs = append(l.dimIDs, id)
			d := w.dims[id]
			if d.Unlimited {
				if j != 0 {
					return nil, fmt.Errorf("netcdf: variable %s: unlimited dimension must come first", v.Name)
				}
				l.record = true
			}
			if j > 0 {
				l.rowLen *= d.Len
			}
		}

		payload, err := encodeValues(v.Type, v.Data)
		if err != nil {
			return nil, fmt.Errorf("netcdf: variable %s: %w", v.Name, err)
		}
		l.payload = payload

		count := len(payload) / v.Type.Size()
		if l.record {
			if count%l.rowLen != 0 {
				return nil, fmt.Errorf("netcdf: variable %s: %d values do not fill whole records of %d", v.Name, count, l.rowLen)
			}
			numrecs = max(numrecs, count/l.rowLen)
			l.vsize = pad4(int64(l.rowLen * v.Type.Size()))
		} else {
			want := 1
			for _, id := range l.dimIDs {
				want *= w.dims[id].Len
			}
			if count != want {
				return nil, fmt.Errorf("netcdf: variable %s: got %d values, shape holds %d", v.Name, count, want)
			}
			l.vsize = pad4(int64(len(payload)))
		}
		layouts = append(layouts, l)
	}

	// Header size does not depend on the begin values, so lay out once to measure.
	header := w.header(layouts, numrecs)
	offset := int64(len(header))
	for _, l := range layouts {
		if !l.record {
			l.begin = offset
			offset += l.vsize
		}
	}
	var records []*layout
	for _, l := range layouts {
		if l.record {
			l.begin = offset
			offset += l.vsize
			records = append(records, l)
		}
	}

	var buf bytes.Buffer
	buf.Write(w.header(layouts, numrecs))
	for _, l := range layouts {
		if !l.record {
			buf.Write(l.payload)
			buf.Write(make([]byte, l.vsize-int64(len(l.payload))))
		}
	}
	for rec := 0; rec < numrecs; rec++ {
		for _, l := range records {
			size := l.rowLen * l.def.Type.Size()
			chunk := make([]byte, size)
			if start := rec * size; start < len(l.payload) {
				copy(chunk, l.payload[start:])
			} else {
				fillChunk(l.def.Type, chunk)
			}
			buf.Write(chunk)
			if len(records) > 1 {
				buf.Write(make([]byte, l.vsize-int64(size)))
			}
		}
	}
	return buf.Bytes(), nil
}

func (w *Writer) header(layouts []*layout, numrecs int) []byte {
	var b bytes.Buffer
	b.WriteString("CDF\x01")
	putU32(&b, uint32(numrecs))

	if len(w.dims) == 0 {
		putU32(&b, 0)
		putU32(&b, 0)
	} else {
		putU32(&b, tagDimension)
		putU32(&b, uint32(len(w.dims)))
		for _, d := range w.dims {
			putName(&b, d.Name)
			if d.Unlimited {
				putU32(&b, 0)
			} else {
				putU32(&b, uint32(d.Len))
			}
		}
	}

	putAttrs(&b, w.attrs)

	if len(layouts) == 0 {
		putU32(&b, 0)
		putU32(&b, 0)
		return b.Bytes()
	}
	putU32(&b, tagVariable)
	putU32(&b, uint32(len(layouts)))
	for _, l := range layouts {
		putName(&b, l.def.Name)
		putU32(&b, uint32(len(l.dimIDs)))
		for _, id := range l.dimIDs {
			putU32(&b, uint32(id))
		}
		putAttrs(&b, l.def.Attrs)
		putU32(&b, uint32(l.def.Type))
		putU32(&b, uint32(l.vsize))
		putU32(&b, uint32(l.begin))
	}
	return b.Bytes()
}

func putU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

func putName(b *bytes.Buffer, s string) {
	putU32(b, uint32(len(s)))
	b.WriteString(s)
	b.Write(make([]byte, pad4(int64(len(s)))-int64(len(s))))
}

func putAttrs(b *bytes.Buffer, attrs []Attribute) {
	if len(attrs) == 0 {
		putU32(b, 0)
		putU32(b, 0)
		return
	}
	putU32(b, tagAttribute)
	putU32(b, uint32(len(attrs)))
	for _, a := range attrs {
		putName(b, a.Name)
		putU32(b, uint32(a.Type))
		var payload []byte
		if a.Type == Char {
			payload = []byte(a.Text)
		} else {
			payload, _ = encodeNumbers(a.Type, a.Values)
		}
		putU32(b, uint32(len(payload)/a.Type.Size()))
		b.Write(payload)
		b.Write(make([]byte, pad4(int64(len(payload)))-int64(len(payload))))
	}
}

func makeAttr(name string, value any) Attribute {
	switch v := value.(type) {
	case string:
		return Attribute{Name: name, Type: Char, Text: v}
	case int16:
		return Attribute{Name: name, Type: Short, Values: []float64{float64(v)}}
	case int32:
		return Attribute{Name: name, Type: Int, Values: []float64{float64(v)}}
	case int:
		return Attribute{Name: name, Type: Int, Values: []float64{float64(v)}}
	case float32:
		return Attribute{Name: name, Type: Float, Values: []float64{float64(v)}}
	case float64:
		return Attribute{Name: name, Type: Double, Values: []float64{v}}
	case []float64:
		return Attribute{Name: name, Type: Double, Values: v}
	default:
		return Attribute{Name: name, Type: Char, Text: fmt.Sprint(v)}
	}
}

func encodeValues(t Type, data any) ([]byte, error) {
	switch v := data.(type) {
	case string:
		if t != Char {
			return nil, fmt.Errorf("string data for %s variable", t)
		}
		return []byte(v), nil
	case []int8:
		if t != Byte {
			return nil, fmt.Errorf("[]int8 data for %s variable", t)
		}
		out := make([]byte, len(v))
		for i, x := range v {
			out[i] = byte(x)
		}
		return out, nil
	case []int16:
		return typedNumbers(t, Short, len(v), func(i int) float64 { return float64(v[i]) })
	case []int32:
		return typedNumbers(t, Int, len(v), func(i int) float64 { return float64(v[i]) })
	case []float32:
		return typedNumbers(t, Float, len(v), func(i int) float64 { return float64(v[i]) })
	case []float64:
		return typedNumbers(t, Double, len(v), func(i int) float64 { return v[i] })
	default:
		return nil, fmt.Errorf("unsupported data type %T", data)
	}
}

func typedNumbers(t, want Type, n int, at func(int) float64) ([]byte, error) {
	if t != want {
		return nil, fmt.Errorf("%s data for %s variable", want, t)
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = at(i)
	}
	return encodeNumbers(t, values)
}

func encodeNumbers(t Type, values []float64) ([]byte, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("unknown type %d", t)
	}
	out := make([]byte, len(values)*size)
	for i, x := range values {
		p := out[i*size:]
		switch t {
		case Byte, Char:
			p[0] = byte(int8(x))
		case Short:
			binary.BigEndian.PutUint16(p, uint16(int16(x)))
		case Int:
			binary.BigEndian.PutUint32(p, uint32(int32(x)))
		case Float:
			binary.BigEndian.PutUint32(p, math.Float32bits(float32(x)))
		case Double:
			binary.BigEndian.PutUint64(p, math.Float64bits(x))
		}
	}
	return out, nil
}

func fillChunk(t Type, chunk []byte) {
	one, _ := encodeNumbers(t, []float64{t.DefaultFill()})
	for i := 0; i+len(one) <= len(chunk); i += len(one) {
		copy(chunk[i:], one)
	}
}
