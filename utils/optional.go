package utils

import "encoding/json"

// Optional is a tri-state JSON field: absent, present-but-null, or a value.
// The booking PATCH endpoint needs the distinction — `"master_id": null`
// clears the assignment while an absent key leaves it untouched, which a
// plain pointer field cannot express.
type Optional[T any] struct {
	Present bool
	Value   *T
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
