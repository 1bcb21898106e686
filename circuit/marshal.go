package circuit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"

	"github.com/zkmock/plonkish/constraint"
	"github.com/zkmock/plonkish/field"
	"github.com/zkmock/plonkish/internal/ioutils"
)

const maxSection = 1 << 32

// ToBytes serializes the completed assignment for hand-off to a proving
// backend. The snapshot embeds the fingerprint of the constraint system it
// was synthesized against; it fails on any unknown witness value, since a
// backend needs the complete matrix.
func (a *Assignment[F]) ToBytes() ([]byte, error) {
	var cells, selectors, equalities, tables, instances []byte

	// the five sections are independent; build them in parallel
	var g errgroup.Group
	g.Go(func() error {
		var err error
		cells, err = a.cellsToBytes()
		return err
	})
	g.Go(func() error {
		var err error
		selectors, err = a.selectorsToBytes()
		return err
	})
	g.Go(func() error {
		var err error
		equalities, err = a.equalitiesToBytes()
		return err
	})
	g.Go(func() error {
		var err error
		tables, err = a.columnsToBytes(a.tables)
		return err
	})
	g.Go(func() error {
		var err error
		instances, err = a.columnsToBytes(a.instances)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fp, err := a.sys.Fingerprint()
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.Write(fp[:])
	if err := binary.Write(buf, binary.LittleEndian, uint64(a.rows)); err != nil {
		return nil, err
	}
	for _, section := range [][]byte{cells, selectors, equalities, tables, instances} {
		if err := ioutils.WriteBlock(buf, section); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// AssignmentFromBytes deserializes a snapshot written by ToBytes, verifying
// that it was produced for sys.
func AssignmentFromBytes[F field.Element[F]](sys *constraint.System[F], data []byte) (*Assignment[F], error) {
	fp, err := sys.Fingerprint()
	if err != nil {
		return nil, err
	}
	if len(data) < blake2b.Size256+8 {
		return nil, errors.New("invalid snapshot length")
	}
	if !bytes.Equal(fp[:], data[:blake2b.Size256]) {
		return nil, errors.New("assignment snapshot does not match constraint system")
	}

	r := bytes.NewReader(data[blake2b.Size256:])
	var rows uint64
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}

	a := &Assignment[F]{
		sys:   sys,
		cells: make(map[Cell]Value[F]),
	}
	a.rows = int(rows)

	sections := make([][]byte, 5)
	for i := range sections {
		if sections[i], err = ioutils.ReadBlock(r, maxSection); err != nil {
			return nil, err
		}
	}

	var g errgroup.Group
	g.Go(func() error { return a.cellsFromBytes(sections[0]) })
	g.Go(func() error { return a.selectorsFromBytes(sections[1]) })
	g.Go(func() error { return a.equalitiesFromBytes(sections[2]) })
	g.Go(func() error {
		var err error
		a.tables, err = columnsFromBytes[F](sections[3])
		return err
	})
	g.Go(func() error {
		var err error
		a.instances, err = columnsFromBytes[F](sections[4])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a, nil
}

func elementLen[F field.Element[F]]() int {
	var z F
	return len(z.Bytes())
}

func (a *Assignment[F]) cellsToBytes() ([]byte, error) {
	addrs := make([]Cell, 0, len(a.cells))
	for c := range a.cells {
		addrs = append(addrs, c)
	}
	slices.SortFunc(addrs, func(x, y Cell) int {
		if x.Column.Kind != y.Column.Kind {
			return int(x.Column.Kind) - int(y.Column.Kind)
		}
		if x.Column.Index != y.Column.Index {
			return x.Column.Index - y.Column.Index
		}
		return x.Row - y.Row
	})

	kinds := make([]uint32, len(addrs))
	indices := make([]uint32, len(addrs))
	rows := make([]uint32, len(addrs))
	values := make([]byte, 0, len(addrs)*elementLen[F]())
	for i, c := range addrs {
		v, ok := a.cells[c].Get()
		if !ok {
			return nil, fmt.Errorf("%s: %w", c, ErrValueUnknown)
		}
		kinds[i] = uint32(c.Column.Kind)
		indices[i] = uint32(c.Column.Index)
		rows[i] = uint32(c.Row)
		values = append(values, v.Bytes()...)
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(addrs))); err != nil {
		return nil, err
	}
	var scratch []uint32
	var err error
	for _, s := range [][]uint32{kinds, indices, rows} {
		if scratch, err = ioutils.CompressAndWriteUints32(buf, s, scratch); err != nil {
			return nil, err
		}
	}
	if err := ioutils.WriteBlock(buf, values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Assignment[F]) cellsFromBytes(data []byte) error {
	r := bytes.NewReader(data)
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	streams := make([][]uint32, 3)
	var err error
	for i := range streams {
		if streams[i], err = ioutils.ReadAndDecompressUints32(r); err != nil {
			return err
		}
		if uint64(len(streams[i])) != count {
			return errors.New("invalid cell section")
		}
	}
	values, err := ioutils.ReadBlock(r, maxSection)
	if err != nil {
		return err
	}
	n := elementLen[F]()
	if len(values) != int(count)*n {
		return errors.New("invalid cell value section")
	}
	var z F
	for i := uint64(0); i < count; i++ {
		c := Cell{
			Column: constraint.Column{Kind: constraint.ColumnKind(streams[0][i]), Index: int(streams[1][i])},
			Row:    int(streams[2][i]),
		}
		a.cells[c] = Known(z.FromBytes(values[int(i)*n : (int(i)+1)*n]))
	}
	return nil
}

func (a *Assignment[F]) selectorsToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(a.selectors))); err != nil {
		return nil, err
	}
	for _, s := range a.selectors {
		b, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := ioutils.WriteBlock(buf, b); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (a *Assignment[F]) selectorsFromBytes(data []byte) error {
	r := bytes.NewReader(data)
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	a.selectors = make([]*bitset.BitSet, count)
	for i := range a.selectors {
		b, err := ioutils.ReadBlock(r, maxSection)
		if err != nil {
			return err
		}
		a.selectors[i] = bitset.New(0)
		if err := a.selectors[i].UnmarshalBinary(b); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assignment[F]) equalitiesToBytes() ([]byte, error) {
	// six parallel uint32 streams; they compress well
	streams := make([][]uint32, 6)
	for i := range streams {
		streams[i] = make([]uint32, len(a.equal))
	}
	for i, eq := range a.equal {
		streams[0][i] = uint32(eq.A.Column.Kind)
		streams[1][i] = uint32(eq.A.Column.Index)
		streams[2][i] = uint32(eq.A.Row)
		streams[3][i] = uint32(eq.B.Column.Kind)
		streams[4][i] = uint32(eq.B.Column.Index)
		streams[5][i] = uint32(eq.B.Row)
	}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(a.equal))); err != nil {
		return nil, err
	}
	var scratch []uint32
	var err error
	for _, s := range streams {
		if scratch, err = ioutils.CompressAndWriteUints32(buf, s, scratch); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (a *Assignment[F]) equalitiesFromBytes(data []byte) error {
	r := bytes.NewReader(data)
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return err
	}
	streams := make([][]uint32, 6)
	var err error
	for i := range streams {
		if streams[i], err = ioutils.ReadAndDecompressUints32(r); err != nil {
			return err
		}
		if uint64(len(streams[i])) != count {
			return errors.New("invalid equality section")
		}
	}
	a.equal = make([]Equality, count)
	for i := range a.equal {
		a.equal[i] = Equality{
			A: Cell{
				Column: constraint.Column{Kind: constraint.ColumnKind(streams[0][i]), Index: int(streams[1][i])},
				Row:    int(streams[2][i]),
			},
			B: Cell{
				Column: constraint.Column{Kind: constraint.ColumnKind(streams[3][i]), Index: int(streams[4][i])},
				Row:    int(streams[5][i]),
			},
		}
	}
	return nil
}

func (a *Assignment[F]) columnsToBytes(cols [][]F) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, uint64(len(cols))); err != nil {
		return nil, err
	}
	for _, col := range cols {
		values := make([]byte, 0, len(col)*elementLen[F]())
		for _, v := range col {
			values = append(values, v.Bytes()...)
		}
		if err := ioutils.WriteBlock(buf, values); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func columnsFromBytes[F field.Element[F]](data []byte) ([][]F, error) {
	r := bytes.NewReader(data)
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	n := elementLen[F]()
	var z F
	cols := make([][]F, count)
	for i := range cols {
		values, err := ioutils.ReadBlock(r, maxSection)
		if err != nil {
			return nil, err
		}
		if len(values)%n != 0 {
			return nil, errors.New("invalid column section")
		}
		col := make([]F, len(values)/n)
		for j := range col {
			col[j] = z.FromBytes(values[j*n : (j+1)*n])
		}
		cols[i] = col
	}
	return cols, nil
}
