// Package restart holds the persisted-state record each component writes to
// and restores from. Databases nest and encode as TOML tables.
package restart

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

var (
	ErrKeyNotFound   = errors.New("restart key not found")
	ErrWrongType     = errors.New("restart value has the wrong type")
	ErrRestartFormat = errors.New("restart record is malformed")
)

type Database struct {
	Name   string
	values map[string]interface{}
}

func NewDatabase(name string) *Database {
	return &Database{
		Name:   name,
		values: make(map[string]interface{}),
	}
}

func (db *Database) PutString(key, val string) { db.values[key] = val }

func (db *Database) PutDouble(key string, val float64) { db.values[key] = val }

func (db *Database) PutInteger(key string, val int) { db.values[key] = int64(val) }

func (db *Database) PutBool(key string, val bool) { db.values[key] = val }

func (db *Database) PutDoubleArray(key string, val []float64) {
	v := make([]float64, len(val))
	copy(v, val)
	db.values[key] = v
}

// PutDatabase creates (or replaces) a child database under key
func (db *Database) PutDatabase(key string) (child *Database) {
	child = NewDatabase(key)
	db.values[key] = child
	return
}

func (db *Database) KeyExists(key string) (ok bool) {
	_, ok = db.values[key]
	return
}

func (db *Database) Keys() (keys []string) {
	for k := range db.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func (db *Database) get(key string) (v interface{}, err error) {
	var ok bool
	if v, ok = db.values[key]; !ok {
		err = fmt.Errorf("%w: %q in database %q", ErrKeyNotFound, key, db.Name)
	}
	return
}

func (db *Database) wrongType(key string, err error) error {
	return fmt.Errorf("%w: %q in database %q: %v", ErrWrongType, key, db.Name, err)
}

func (db *Database) GetString(key string) (s string, err error) {
	var v interface{}
	if v, err = db.get(key); err != nil {
		return
	}
	if s, err = cast.ToStringE(v); err != nil {
		err = db.wrongType(key, err)
	}
	return
}

func (db *Database) GetDouble(key string) (f float64, err error) {
	var v interface{}
	if v, err = db.get(key); err != nil {
		return
	}
	if f, err = cast.ToFloat64E(v); err != nil {
		err = db.wrongType(key, err)
	}
	return
}

func (db *Database) GetInteger(key string) (i int, err error) {
	var v interface{}
	if v, err = db.get(key); err != nil {
		return
	}
	if i, err = cast.ToIntE(v); err != nil {
		err = db.wrongType(key, err)
	}
	return
}

func (db *Database) GetBool(key string) (b bool, err error) {
	var v interface{}
	if v, err = db.get(key); err != nil {
		return
	}
	if b, err = cast.ToBoolE(v); err != nil {
		err = db.wrongType(key, err)
	}
	return
}

func (db *Database) GetDoubleArray(key string) (f []float64, err error) {
	var v interface{}
	if v, err = db.get(key); err != nil {
		return
	}
	if f, err = ToFloat64Slice(v); err != nil {
		err = db.wrongType(key, err)
	}
	return
}

func (db *Database) GetDatabase(key string) (child *Database, err error) {
	var (
		v  interface{}
		ok bool
	)
	if v, err = db.get(key); err != nil {
		return
	}
	if child, ok = v.(*Database); !ok {
		err = db.wrongType(key, fmt.Errorf("value is %T", v))
	}
	return
}

// ToFloat64Slice converts the loosely typed arrays produced by TOML or YAML
// decoding into []float64
func ToFloat64Slice(v interface{}) (f []float64, err error) {
	var (
		items []interface{}
	)
	switch vv := v.(type) {
	case []float64:
		f = make([]float64, len(vv))
		copy(f, vv)
		return
	case float64, float32, int, int64:
		var x float64
		if x, err = cast.ToFloat64E(vv); err == nil {
			f = []float64{x}
		}
		return
	}
	if items, err = cast.ToSliceE(v); err != nil {
		return
	}
	f = make([]float64, len(items))
	for i, item := range items {
		if f[i], err = cast.ToFloat64E(item); err != nil {
			return nil, err
		}
	}
	return
}

func (db *Database) toMap() (m map[string]interface{}) {
	m = make(map[string]interface{}, len(db.values))
	for k, v := range db.values {
		if child, ok := v.(*Database); ok {
			m[k] = child.toMap()
			continue
		}
		m[k] = v
	}
	return
}

func fromMap(name string, m map[string]interface{}) (db *Database) {
	db = NewDatabase(name)
	for k, v := range m {
		if child, ok := v.(map[string]interface{}); ok {
			db.values[k] = fromMap(k, child)
			continue
		}
		db.values[k] = v
	}
	return
}

func (db *Database) Encode(w io.Writer) (err error) {
	return toml.NewEncoder(w).Encode(db.toMap())
}

func Decode(r io.Reader, name string) (db *Database, err error) {
	var (
		m = make(map[string]interface{})
	)
	if _, err = toml.NewDecoder(r).Decode(&m); err != nil {
		err = fmt.Errorf("%w: %v", ErrRestartFormat, err)
		return
	}
	db = fromMap(name, m)
	return
}
