package tabula

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/tabula/codec"
)

// RegisterTable declares a table dataset on the orchestrator and returns
// its typed repository. Generated aggregator constructors call this once
// per table model; the repository is empty until the first load installs
// decoded records. rowCodec may be nil for datasets that never resolve to
// the row format.
func RegisterTable[K comparable, R Keyed[K]](c *Context, name, path string, format codec.Format, rowCodec codec.RowCodec[R]) *TableRepo[K, R] {
	repo := &TableRepo[K, R]{}
	s := &slot{
		name:     name,
		typeName: reflect.TypeFor[R]().String(),
		path:     path,
	}

	s.load = func(_ context.Context, data []byte) error {
		f, err := codec.Resolve(format, path)
		if err != nil {
			return err
		}
		var records []R
		if f == codec.FormatCSV {
			if rowCodec == nil {
				return fmt.Errorf("%w: %s", ErrNoRowCodec, s.typeName)
			}
			records, err = codec.DecodeRows(data, rowCodec)
		} else {
			records, err = codec.DecodeList[R](f, data)
		}
		if err != nil {
			return &DecodeError{Slot: name, Err: err}
		}
		repo.install(records)
		c.install(s, repo)
		return nil
	}

	s.save = func(context.Context) ([]byte, bool, error) {
		if _, installed := c.repoByName(name); !installed {
			return nil, false, nil
		}
		f, err := codec.Resolve(format, path)
		if err != nil {
			return nil, false, err
		}
		records := repo.records()
		if f == codec.FormatCSV {
			if rowCodec == nil {
				return nil, false, fmt.Errorf("%w: %s", ErrNoRowCodec, s.typeName)
			}
			return codec.EncodeRows(records, rowCodec), true, nil
		}
		data, err := codec.EncodeList(f, records)
		return data, err == nil, err
	}

	c.slots = append(c.slots, s)
	return repo
}

// RegisterSingle declares a single-record dataset on the orchestrator and
// returns its typed repository.
func RegisterSingle[R any](c *Context, name, path string, format codec.Format, rowCodec codec.RowCodec[R]) *SingleRepo[R] {
	repo := &SingleRepo[R]{}
	s := &slot{
		name:     name,
		typeName: reflect.TypeFor[R]().String(),
		path:     path,
	}

	s.load = func(_ context.Context, data []byte) error {
		f, err := codec.Resolve(format, path)
		if err != nil {
			return err
		}
		var record R
		if f == codec.FormatCSV {
			if rowCodec == nil {
				return fmt.Errorf("%w: %s", ErrNoRowCodec, s.typeName)
			}
			records, derr := codec.DecodeRows(data, rowCodec)
			if derr != nil {
				return &DecodeError{Slot: name, Err: derr}
			}
			if len(records) == 0 {
				return &DecodeError{Slot: name, Err: fmt.Errorf("single dataset has no data row")}
			}
			record = records[0]
		} else {
			record, err = codec.DecodeOne[R](f, data)
			if err != nil {
				return &DecodeError{Slot: name, Err: err}
			}
		}
		repo.install(record)
		c.install(s, repo)
		return nil
	}

	s.save = func(context.Context) ([]byte, bool, error) {
		if _, installed := c.repoByName(name); !installed {
			return nil, false, nil
		}
		f, err := codec.Resolve(format, path)
		if err != nil {
			return nil, false, err
		}
		record, ok := repo.Get()
		if !ok {
			return nil, false, nil
		}
		if f == codec.FormatCSV {
			if rowCodec == nil {
				return nil, false, fmt.Errorf("%w: %s", ErrNoRowCodec, s.typeName)
			}
			return codec.EncodeRows([]R{record}, rowCodec), true, nil
		}
		data, err := codec.EncodeOne(f, record)
		return data, err == nil, err
	}

	c.slots = append(c.slots, s)
	return repo
}
