package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

const CurrentSchemaVersion = 1

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeSessionRecord(record SessionRecord) ([]byte, error) {
	record.SchemaVersion = CurrentSchemaVersion
	return json.Marshal(record)
}

func DecodeSessionRecord(data []byte) (SessionRecord, error) {
	var record SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return SessionRecord{}, err
	}
	if record.SchemaVersion != CurrentSchemaVersion {
		return SessionRecord{}, fmt.Errorf("%w: schema %d", ErrVersionMismatch, record.SchemaVersion)
	}
	return record, nil
}
