package netcdf

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
)

// File is a decoded NetCDF classic file held in memory.
type File struct {
	// Version is 1 for CDF-1 and 2 for CDF-2.
	Version int

	// NumRecs is the number of records along the unlimited dimension.
	NumRecs int

	Dims  []Dimension
	Attrs []Attribute
	Vars  []*Variable

	data    []byte
	recSize int64
}

// Variable is a header entry plus lazy access to its data.
type Variable struct {
	Name  string
	Type  Type
	Dims  []Dimension
	Attrs []Attribute

	file   *File
	vsize  int64
	begin  int64
	record bool
}

// Open reads and decodes the file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a classic NetCDF file from data. The slice is retained.
func Decode(data []byte) (*File, error) {
	if len(data) < 4 || string(data[:3]) != "CDF" {
		return nil, ErrNotNetCDF
	}
	version := data[3]
	if version != 1 && version != 2 {
		return nil, ErrNotNetCDF
	}

	r := &cursor{buf: data, off: 4, version: version}
	numrecs, err := r.u32()
	if err != nil {
		return nil, err
	}

	f := &File{Version: int(version), data: data}

	if f.Dims, err = r.dimensions(); err != nil {
		return nil, err
	}
	if f.Attrs, err = r.attributes(); err != nil {
		return nil, err
	}
	if f.Vars, err = r.variables(f); err != nil {
		return nil, err
	}

	if err := checkSizes(f.Vars, int64(len(data))); err != nil {
		return nil, err
	}
	f.recSize = recordSize(f.Vars)

	switch {
	case numrecs != streamingRecords:
		f.NumRecs = int(numrecs)
	case f.recSize > 0:
		f.NumRecs = int((int64(len(data)) - firstRecordBegin(f.Vars)) / f.recSize)
	}
	if err := f.checkRecords(); err != nil {
		return nil, err
	}
	for i := range f.Dims {
		if f.Dims[i].Unlimited {
			f.Dims[i].Len = f.NumRecs
		}
	}
	for _, v := range f.Vars {
		for i := range v.Dims {
			if v.Dims[i].Unlimited {
				v.Dims[i].Len = f.NumRecs
			}
		}
	}

	return f, nil
}

// Var returns the named variable.
func (f *File) Var(name string) (*Variable, bool) {
	for _, v := range f.Vars {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Dim returns the named dimension.
func (f *File) Dim(name string) (Dimension, bool) {
	for _, d := range f.Dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Attr returns the named global attribute.
func (f *File) Attr(name string) (Attribute, bool) {
	return findAttr(f.Attrs, name)
}

// Shape returns the length of each dimension.
func (v *Variable) Shape() []int {
	shape := make([]int, len(v.Dims))
	for i, d := range v.Dims {
		shape[i] = d.Len
	}
	return shape
}

// Len returns the total number of values.
func (v *Variable) Len() int {
	n := 1
	for _, d := range v.Dims {
		n *= d.Len
	}
	return n
}

// RowLen returns the number of values per index of the first dimension.
func (v *Variable) RowLen() int {
	n := 1
	for _, d := range v.Dims[min(1, len(v.Dims)):] {
		n *= d.Len
	}
	return n
}

// Attr returns the named variable attribute.
func (v *Variable) Attr(name string) (Attribute, bool) {
	return findAttr(v.Attrs, name)
}

// FillValue returns the _FillValue attribute, or the type's default fill.
func (v *Variable) FillValue() float64 {
	if a, ok := v.Attr("_FillValue"); ok {
		if f, ok := a.Float(); ok {
			return f
		}
	}
	return v.Type.DefaultFill()
}

// IsFill reports whether x equals the variable's fill value.
func (v *Variable) IsFill(x float64) bool {
	return x == v.FillValue()
}

// Float64s returns every value converted to float64 in row-major order.
func (v *Variable) Float64s() ([]float64, error) {
	raw, err := v.raw()
	if err != nil {
		return nil, err
	}
	return decodeValues(v.Type, raw), nil
}

// Row returns the values at index i of the first dimension.
func (v *Variable) Row(i int) ([]float64, error) {
	raw, err := v.rawRow(i)
	if err != nil {
		return nil, err
	}
	return decodeValues(v.Type, raw), nil
}

// Text returns the raw characters of a char variable with trailing NULs removed.
func (v *Variable) Text() (string, error) {
	if v.Type != Char {
		return "", fmt.Errorf("netcdf: variable %s is %s, not char", v.Name, v.Type)
	}
	raw, err := v.raw()
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}

// TextRow returns row i of a char variable with trailing NULs removed.
func (v *Variable) TextRow(i int) (string, error) {
	if v.Type != Char {
		return "", fmt.Errorf("netcdf: variable %s is %s, not char", v.Name, v.Type)
	}
	raw, err := v.rawRow(i)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}

func (v *Variable) rawRow(i int) ([]byte, error) {
	if len(v.Dims) == 0 {
		if i != 0 {
			return nil, fmt.Errorf("netcdf: row %d out of range for scalar %s", i, v.Name)
		}
		return v.raw()
	}
	if i < 0 || i >= v.Dims[0].Len {
		return nil, fmt.Errorf("netcdf: row %d out of range for %s (len %d)", i, v.Name, v.Dims[0].Len)
	}
	size := int64(v.RowLen() * v.Type.Size())
	if v.record {
		return v.file.slice(v.begin+int64(i)*v.file.recSize, size)
	}
	return v.file.slice(v.begin+int64(i)*size, size)
}

func (v *Variable) raw() ([]byte, error) {
	limit := int64(len(v.file.data))
	if !v.record {
		size, ok := byteSize(v.Dims, v.Type, limit)
		if !ok {
			return nil, malformed("variable %s larger than file", v.Name)
		}
		return v.file.slice(v.begin, size)
	}
	size, ok := byteSize(v.Dims, v.Type, limit)
	if !ok || (size > 0 && int64(v.file.NumRecs) > limit/size) {
		return nil, malformed("%d records of variable %s larger than file", v.file.NumRecs, v.Name)
	}
	out := make([]byte, 0, int64(v.file.NumRecs)*size)
	for rec := 0; rec < v.file.NumRecs; rec++ {
		b, err := v.file.slice(v.begin+int64(rec)*v.file.recSize, size)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

func (f *File) slice(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off+n > int64(len(f.data)) {
		return nil, malformed("data [%d,%d) beyond end of file (%d bytes)", off, off+n, len(f.data))
	}
	return f.data[off : off+n], nil
}

func findAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// recordSize is the stride between consecutive records. A file with a
// single record variable stores records without padding.
func recordSize(vars []*Variable) int64 {
	var total int64
	var records []*Variable
	for _, v := range vars {
		if v.record {
			records = append(records, v)
			total += v.vsize
		}
	}
	if len(records) == 1 {
		return int64(records[0].RowLen() * records[0].Type.Size())
	}
	return total
}

// checkSizes rejects variables whose fixed extent cannot fit in limit bytes.
func checkSizes(vars []*Variable, limit int64) error {
	for _, v := range vars {
		if _, ok := byteSize(v.Dims, v.Type, limit); !ok {
			return malformed("variable %s larger than file (%d bytes)", v.Name, limit)
		}
	}
	return nil
}

// checkRecords rejects a record count whose last record starts past the end
// of the data.
func (f *File) checkRecords() error {
	if f.NumRecs <= 0 || f.recSize <= 0 {
		return nil
	}
	begin := firstRecordBegin(f.Vars)
	limit := int64(len(f.data))
	if begin < 0 || begin > limit || int64(f.NumRecs-1) > (limit-begin)/f.recSize {
		return malformed("%d records of %d bytes exceed file size %d", f.NumRecs, f.recSize, limit)
	}
	return nil
}

// byteSize multiplies the non-record dimension lengths by the type size.
// It reports false when the product is negative or exceeds limit.
func byteSize(dims []Dimension, t Type, limit int64) (int64, bool) {
	n := int64(t.Size())
	for _, d := range dims {
		if d.Unlimited {
			continue
		}
		if d.Len < 0 {
			return 0, false
		}
		if d.Len == 0 {
			return 0, true
		}
		if n > limit/int64(d.Len) {
			return 0, false
		}
		n *= int64(d.Len)
	}
	return n, n <= limit
}

func firstRecordBegin(vars []*Variable) int64 {
	first := int64(-1)
	for _, v := range vars {
		if v.record && (first < 0 || v.begin < first) {
			first = v.begin
		}
	}
	return first
}

func decodeValues(t Type, b []byte) []float64 {
	size := t.Size()
	out := make([]float64, len(b)/size)
	for i := range out {
		p := b[i*size:]
		switch t {
		case Byte:
			out[i] = float64(int8(p[0]))
		case Char:
			out[i] = float64(p[0])
		case Short:
			out[i] = float64(int16(binary.BigEndian.Uint16(p)))
		case Int:
			out[i] = float64(int32(binary.BigEndian.Uint32(p)))
		case Float:
			out[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(p)))
		case Double:
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(p))
		}
	}
	return out
}

// cursor walks the header.
type cursor struct {
	buf     []byte
	off     int64
	version byte
}

func (c *cursor) need(n int64) error {
	if n < 0 || c.off+n > int64(len(c.buf)) {
		return malformed("header truncated at offset %d", c.off)
	}
	return nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// count reads a non-negative element count and bounds it by the bytes left,
// each element occupying at least minSize bytes.
func (c *cursor) count(minSize int64) (int, error) {
	n, err := c.u32()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 || int64(n)*minSize > int64(len(c.buf))-c.off {
		return 0, malformed("element count %d exceeds file size", n)
	}
	return int(n), nil
}

func (c *cursor) offset() (int64, error) {
	if c.version == 1 {
		v, err := c.u32()
		return int64(int32(v)), err
	}
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.off:])
	c.off += 8
	if v > math.MaxInt64 {
		return 0, malformed("offset overflows")
	}
	return int64(v), nil
}

func (c *cursor) name() (string, error) {
	n, err := c.count(1)
	if err != nil {
		return "", err
	}
	padded := pad4(int64(n))
	if err := c.need(padded); err != nil {
		return "", err
	}
	s := string(c.buf[c.off : c.off+int64(n)])
	c.off += padded
	return s, nil
}

// listHeader reads a list tag and element count. ABSENT is encoded as two zero words.
func (c *cursor) listHeader(tag uint32) (int, error) {
	t, err := c.u32()
	if err != nil {
		return 0, err
	}
	n, err := c.count(4)
	if err != nil {
		return 0, err
	}
	if t == 0 && n == 0 {
		return 0, nil
	}
	if t != tag {
		return 0, malformed("expected list tag 0x%02x, got 0x%02x", tag, t)
	}
	return n, nil
}

func (c *cursor) dimensions() ([]Dimension, error) {
	n, err := c.listHeader(tagDimension)
	if err != nil {
		return nil, err
	}
	dims := make([]Dimension, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		size, err := c.u32()
		if err != nil {
			return nil, err
		}
		if size > math.MaxInt32 {
			return nil, malformed("dimension %s too large", name)
		}
		dims = append(dims, Dimension{Name: name, Len: int(size), Unlimited: size == 0})
	}
	return dims, nil
}

func (c *cursor) attributes() ([]Attribute, error) {
	n, err := c.listHeader(tagAttribute)
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		t, err := c.u32()
		if err != nil {
			return nil, err
		}
		typ := Type(int32(t))
		if typ.Size() == 0 {
			return nil, malformed("attribute %s has unknown type %d", name, t)
		}
		count, err := c.count(int64(typ.Size()))
		if err != nil {
			return nil, err
		}
		size := int64(count * typ.Size())
		if err := c.need(pad4(size)); err != nil {
			return nil, err
		}
		raw := c.buf[c.off : c.off+size]
		c.off += pad4(size)

		a := Attribute{Name: name, Type: typ}
		if typ == Char {
			a.Text = strings.TrimRight(string(raw), "\x00")
		} else {
			a.Values = decodeValues(typ, raw)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func (c *cursor) variables(f *File) ([]*Variable, error) {
	n, err := c.listHeader(tagVariable)
	if err != nil {
		return nil, err
	}
	vars := make([]*Variable, 0, n)
	for i := 0; i < n; i++ {
		name, err := c.name()
		if err != nil {
			return nil, err
		}
		ndims, err := c.count(4)
		if err != nil {
			return nil, err
		}
		v := &Variable{Name: name, file: f, Dims: make([]Dimension, 0, ndims)}
		for j := 0; j < ndims; j++ {
			id, err := c.u32()
			if err != nil {
				return nil, err
			}
			if int(id) >= len(f.Dims) {
				return nil, malformed("variable %s references dimension %d of %d", name, id, len(f.Dims))
			}
			d := f.Dims[id]
			if d.Unlimited && j != 0 {
				return nil, malformed("variable %s uses the unlimited dimension after position 0", name)
			}
			v.Dims = append(v.Dims, d)
		}
		v.record = ndims > 0 && v.Dims[0].Unlimited

		if v.Attrs, err = c.attributes(); err != nil {
			return nil, err
		}
		t, err := c.u32()
		if err != nil {
			return nil, err
		}
		v.Type = Type(int32(t))
		if v.Type.Size() == 0 {
			return nil, malformed("variable %s has unknown type %d", name, t)
		}
		vsize, err := c.u32()
		if err != nil {
			return nil, err
		}
		v.vsize = int64(vsize)
		if v.begin, err = c.offset(); err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}
