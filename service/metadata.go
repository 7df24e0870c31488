package service

import (
	"camera-ingest/entities"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MetadataHeader is the first row of every metadata table.
var MetadataHeader = []string{"Frame Name", "Camera Name", "Latitude", "Longitude", "Timestamp"}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteMetadata writes the header and one row per frame record, in order.
// Fields holding a carriage return are rejected because the CSV reader
// folds CRLF inside quoted fields into LF.
func WriteMetadata(w io.Writer, rows []entities.FrameRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(MetadataHeader); err != nil {
		return err
	}
	for i, row := range rows {
		record := []string{
			row.FrameName,
			row.CameraName,
			formatCoordinate(row.Latitude),
			formatCoordinate(row.Longitude),
			row.Timestamp,
		}
		for j, field := range record {
			if strings.ContainsRune(field, '\r') {
				return fmt.Errorf("row %d: %s contains a carriage return", i+1, MetadataHeader[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveMetadata writes the metadata table to path.
func SaveMetadata(path string, rows []entities.FrameRecord) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	return WriteMetadata(f, rows)
}

// ReadMetadata parses a table written by WriteMetadata.
func ReadMetadata(r io.Reader) ([]entities.FrameRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(MetadataHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read metadata header: %w", err)
	}
	for i, col := range MetadataHeader {
		if header[i] != col {
			return nil, fmt.Errorf("metadata column %d is %q, want %q", i, header[i], col)
		}
	}

	var rows []entities.FrameRecord
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		lat, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: longitude: %w", line, err)
		}

		rows = append(rows, entities.FrameRecord{
			FrameName:  record[0],
			CameraName: record[1],
			Latitude:   lat,
			Longitude:  lon,
			Timestamp:  record[4],
		})
	}
	return rows, nil
}

// LoadMetadata reads the metadata table at path.
func LoadMetadata(path string) ([]entities.FrameRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMetadata(f)
}
