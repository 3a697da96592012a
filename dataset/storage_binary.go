package dataset

import (
	"encoding/binary"
	"io"

	gbterrors "github.com/binsetlab/gbdtbin/pkg/errors"
)

const (
	storageKindDense  byte = 0
	storageKindSparse byte = 1
)

func writeBinStorage(w io.Writer, storage BinStorage) error {
	switch s := storage.(type) {
	case *DenseBinStorage:
		if _, err := w.Write([]byte{storageKindDense}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(s.numRows)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(s.binOffsets))); err != nil {
			return err
		}
		offsets32 := make([]int32, len(s.binOffsets))
		for i, v := range s.binOffsets {
			offsets32[i] = int32(v)
		}
		if err := binary.Write(w, binary.LittleEndian, offsets32); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, s.data)

	case *SparseBinStorage:
		if _, err := w.Write([]byte{storageKindSparse}); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(s.numRows)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(len(s.binOffsets))); err != nil {
			return err
		}
		offsets32 := make([]int32, len(s.binOffsets))
		for i, v := range s.binOffsets {
			offsets32[i] = int32(v)
		}
		if err := binary.Write(w, binary.LittleEndian, offsets32); err != nil {
			return err
		}
		mostFreq32 := make([]int32, len(s.mostFreqBin))
		for i, v := range s.mostFreqBin {
			mostFreq32[i] = int32(v)
		}
		if err := binary.Write(w, binary.LittleEndian, mostFreq32); err != nil {
			return err
		}
		for _, cells := range s.entries {
			if err := binary.Write(w, binary.LittleEndian, int32(len(cells))); err != nil {
				return err
			}
			for _, cell := range cells {
				if err := binary.Write(w, binary.LittleEndian, cell.row); err != nil {
					return err
				}
				if err := binary.Write(w, binary.LittleEndian, cell.bin); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return gbterrors.NewContractViolation("writeBinStorage", "BinStorage %T does not support binary serialization", storage)
	}
}

func readBinStorage(r io.Reader, numRows int, mappers []BinMapper, isMultiVal bool) (BinStorage, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return nil, err
	}

	var storedRows int32
	if err := binary.Read(r, binary.LittleEndian, &storedRows); err != nil {
		return nil, err
	}
	var numOffsets int32
	if err := binary.Read(r, binary.LittleEndian, &numOffsets); err != nil {
		return nil, err
	}
	offsets32 := make([]int32, numOffsets)
	if err := binary.Read(r, binary.LittleEndian, offsets32); err != nil {
		return nil, err
	}
	offsets := make([]int, numOffsets)
	for i, v := range offsets32 {
		offsets[i] = int(v)
	}

	switch kind[0] {
	case storageKindDense:
		data := make([]uint32, storedRows)
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, err
		}
		return &DenseBinStorage{numRows: int(storedRows), binOffsets: offsets, data: data}, nil

	case storageKindSparse:
		mostFreq32 := make([]int32, numOffsets-1)
		if err := binary.Read(r, binary.LittleEndian, mostFreq32); err != nil {
			return nil, err
		}
		mostFreq := make([]int, len(mostFreq32))
		for i, v := range mostFreq32 {
			mostFreq[i] = int(v)
		}
		entries := make([][]sparseCell, len(mostFreq))
		for i := range entries {
			var n int32
			if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
				return nil, err
			}
			cells := make([]sparseCell, n)
			for j := range cells {
				if err := binary.Read(r, binary.LittleEndian, &cells[j].row); err != nil {
					return nil, err
				}
				if err := binary.Read(r, binary.LittleEndian, &cells[j].bin); err != nil {
					return nil, err
				}
			}
			entries[i] = cells
		}
		return &SparseBinStorage{numRows: int(storedRows), binOffsets: offsets, mostFreqBin: mostFreq, entries: entries}, nil

	default:
		return nil, gbterrors.NewContractViolation("readBinStorage", "unknown storage kind byte %d", kind[0])
	}
}
