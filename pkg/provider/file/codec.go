package file

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	settings "github.com/goliatone/go-settings"
	"github.com/pelletier/go-toml/v2"
)

// Document is the on-disk content of one provider file.
type Document struct {
	Groups    map[string][]settings.Entry `json:"groups" yaml:"groups" toml:"groups"`
	GroupInfo []settings.GroupInfo        `json:"group_info,omitempty" yaml:"group_info,omitempty" toml:"group_info,omitempty"`
}

func (d *Document) normalize() {
	if d.Groups == nil {
		d.Groups = map[string][]settings.Entry{}
	}
	for group, entries := range d.Groups {
		if len(entries) == 0 {
			delete(d.Groups, group)
			continue
		}
		for i := range entries {
			entries[i].Group = group
		}
	}
}

// Codec converts a Document to and from bytes.
type Codec interface {
	Name() string
	Encode(doc Document) ([]byte, error)
	Decode(data []byte) (Document, error)
}

// CodecForPath picks a codec from the file extension.
func CodecForPath(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONCodec{}, nil
	case ".yaml", ".yml":
		return YAMLCodec{}, nil
	case ".toml":
		return TOMLCodec{}, nil
	case ".csv":
		return CSVCodec{}, nil
	default:
		return nil, fmt.Errorf("file: no codec for %q", path)
	}
}

// JSONCodec stores documents as indented JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Encode(doc Document) ([]byte, error) {
	return sonic.MarshalIndent(doc, "", "  ")
}

func (JSONCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// YAMLCodec stores documents as YAML.
type YAMLCodec struct{}

func (YAMLCodec) Name() string { return "yaml" }

func (YAMLCodec) Encode(doc Document) ([]byte, error) {
	return yaml.Marshal(doc)
}

func (YAMLCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// TOMLCodec stores documents as TOML, one array of tables per group.
type TOMLCodec struct{}

func (TOMLCodec) Name() string { return "toml" }

func (TOMLCodec) Encode(doc Document) ([]byte, error) {
	return toml.Marshal(doc)
}

func (TOMLCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// CSVCodec stores one row per entry and one row per group metadata record,
// distinguished by the record column.
type CSVCodec struct{}

const (
	csvRecordEntry = "entry"
	csvRecordGroup = "group"
)

var csvHeader = []string{"record", "group", "key", "value", "value_kind", "tag", "hidden", "display_name", "priority"}

func (CSVCodec) Name() string { return "csv" }

func (CSVCodec) Encode(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}

	groups := make([]string, 0, len(doc.Groups))
	for group := range doc.Groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		for _, entry := range doc.Groups[group] {
			row := []string{csvRecordEntry, group, entry.Key, entry.Value, entry.ValueKind, entry.Tag, strconv.FormatBool(entry.Hidden), "", ""}
			if err := writer.Write(row); err != nil {
				return nil, err
			}
		}
	}
	for _, info := range doc.GroupInfo {
		row := []string{csvRecordGroup, info.Group, "", "", "", "", "", info.DisplayName, strconv.Itoa(info.Priority)}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func (CSVCodec) Decode(data []byte) (Document, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = len(csvHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return Document{}, err
	}

	doc := Document{Groups: map[string][]settings.Entry{}}
	for i, record := range records {
		if i == 0 && record[0] == csvHeader[0] {
			continue
		}
		switch record[0] {
		case csvRecordEntry:
			hidden := false
			if record[6] != "" {
				if hidden, err = strconv.ParseBool(record[6]); err != nil {
					return Document{}, fmt.Errorf("file: csv row %d hidden: %w", i+1, err)
				}
			}
			doc.Groups[record[1]] = append(doc.Groups[record[1]], settings.Entry{
				Group:     record[1],
				Key:       record[2],
				Value:     record[3],
				ValueKind: record[4],
				Tag:       record[5],
				Hidden:    hidden,
			})
		case csvRecordGroup:
			priority := 0
			if record[8] != "" {
				if priority, err = strconv.Atoi(record[8]); err != nil {
					return Document{}, fmt.Errorf("file: csv row %d priority: %w", i+1, err)
				}
			}
			doc.GroupInfo = append(doc.GroupInfo, settings.GroupInfo{Group: record[1], DisplayName: record[7], Priority: priority})
		default:
			return Document{}, fmt.Errorf("file: csv row %d has unknown record %q", i+1, record[0])
		}
	}
	return doc, nil
}
