package io

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/stampgrid/pkg/catalog"
	"github.com/matzehuels/stampgrid/pkg/errors"
	"github.com/matzehuels/stampgrid/pkg/profile"
)

const (
	keyID   = "id"
	keyIX   = "ix"
	keyIY   = "iy"
	keyX    = "x"
	keyY    = "y"
	keyType = profile.FieldType
)

type document struct {
	Meta catalog.Meta     `json:"meta"`
	Rows []map[string]any `json:"rows"`
}

// WriteJSON encodes cat as JSON and writes it to w.
func WriteJSON(cat *catalog.Catalog, w io.Writer) error {
	doc := document{Meta: cat.Meta, Rows: make([]map[string]any, len(cat.Rows))}
	for i, r := range cat.Rows {
		m := make(map[string]any, len(r.Fields)+6)
		for k, v := range r.Fields {
			m[k] = v
		}
		m[keyID] = r.ID
		m[keyIX] = r.IX
		m[keyIY] = r.IY
		m[keyX] = r.X
		m[keyY] = r.Y
		m[keyType] = string(r.Type)
		doc.Rows[i] = m
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode catalog")
	}
	return nil
}

// ReadJSON decodes a catalog from r. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*catalog.Catalog, error) {
	var raw struct {
		Meta catalog.Meta                 `json:"meta"`
		Rows []map[string]json.RawMessage `json:"rows"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode catalog")
	}

	cat := &catalog.Catalog{Meta: raw.Meta, Rows: make([]catalog.Row, len(raw.Rows))}
	for i, m := range raw.Rows {
		row, err := decodeRow(m)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "row %d", i)
		}
		cat.Rows[i] = row
	}
	return cat, nil
}

func decodeRow(m map[string]json.RawMessage) (catalog.Row, error) {
	row := catalog.Row{Fields: make(profile.Fields, len(m))}
	for k, v := range m {
		var err error
		switch k {
		case keyID:
			err = json.Unmarshal(v, &row.ID)
		case keyIX:
			err = json.Unmarshal(v, &row.IX)
		case keyIY:
			err = json.Unmarshal(v, &row.IY)
		case keyX:
			err = json.Unmarshal(v, &row.X)
		case keyY:
			err = json.Unmarshal(v, &row.Y)
		case keyType:
			row.Type, err = decodeKind(v)
		default:
			var f float64
			if err = json.Unmarshal(v, &f); err == nil {
				row.Fields[k] = f
			}
		}
		if err != nil {
			return row, errors.Wrap(errors.ErrCodeInvalidFormat, err, "column %s", k)
		}
	}
	return row, nil
}

func decodeKind(v json.RawMessage) (profile.Kind, error) {
	v = bytes.TrimSpace(v)
	if len(v) > 0 && v[0] == '"' {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", nil
		}
		return profile.ParseKind(s)
	}
	var code int
	if err := json.Unmarshal(v, &code); err != nil {
		return "", err
	}
	return profile.ParseKind(strconv.Itoa(code))
}

// ImportJSON reads the catalog file at path.
func ImportJSON(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ExportJSON writes cat to a JSON file at path.
func ExportJSON(cat *catalog.Catalog, path string) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	if err := WriteJSON(cat, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
