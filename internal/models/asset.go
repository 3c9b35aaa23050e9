// Package models defines data structures for folio
package models

import (
	"encoding/json"
)

// Record is a raw row from a Vika datasheet. Field projection into domain
// types is the accessor layer's responsibility.
type Record struct {
	RecordID string         `json:"recordId"`
	Fields   map[string]any `json:"fields"`
}

// Asset is a read-only projection of one row of the asset datasheet.
// Name is the join key correlating assets to trades across datasheets.
type Asset struct {
	RecordID     string  `json:"record_id"`
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	CurrentPrice float64 `json:"current_price"`
	HeldQty      float64 `json:"held_qty"`
	HeldAmount   float64 `json:"held_amount"`
	WeightRatio  float64 `json:"weight_ratio"`
	TotalAmount  float64 `json:"total_amount"`
	SecID        string  `json:"sec_id"` // market-data instrument identifier
}

// AssetRef is how the trade ledger points at an asset. The spreadsheet is
// inconsistent: a linked-record column yields a list of record IDs, a plain
// text column yields the asset name. Matches is the single resolution point.
type AssetRef struct {
	recordIDs []string
	name      string
}

// RefByRecordIDs builds a reference from linked record IDs.
func RefByRecordIDs(ids []string) AssetRef {
	return AssetRef{recordIDs: ids}
}

// RefByName builds a reference from a bare asset name.
func RefByName(name string) AssetRef {
	return AssetRef{name: name}
}

// IsZero reports whether the reference is empty.
func (r AssetRef) IsZero() bool {
	return len(r.recordIDs) == 0 && r.name == ""
}

// Name returns the referenced name, or "" for record-ID references.
func (r AssetRef) Name() string {
	return r.name
}

// Matches reports whether the reference points at the asset identified by
// recordID or name.
func (r AssetRef) Matches(recordID, name string) bool {
	for _, id := range r.recordIDs {
		if id == recordID {
			return true
		}
	}
	return r.name != "" && r.name == name
}

// UnmarshalJSON accepts either a JSON string (name reference) or an array of
// strings (record-ID reference).
func (r *AssetRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*r = RefByName(name)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*r = RefByRecordIDs(ids)
	return nil
}

// MarshalJSON emits the name form when present, otherwise the ID list.
func (r AssetRef) MarshalJSON() ([]byte, error) {
	if r.name != "" {
		return json.Marshal(r.name)
	}
	return json.Marshal(r.recordIDs)
}
