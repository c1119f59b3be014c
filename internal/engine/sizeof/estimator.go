// File: internal/engine/sizeof/estimator.go
package sizeof

import "encoding/json"

// DefaultFallbackBytes is charged when a value cannot be serialized for
// measurement. Sizing is best-effort accounting, not exact accounting.
const DefaultFallbackBytes = 512

// Estimate returns the approximate in-memory cost of a value in bytes.
// Byte slices and strings are measured directly; everything else is
// JSON-serialized and the encoded length is used. Estimate never fails:
// unserializable values are charged DefaultFallbackBytes.
func Estimate(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case []byte:
		return int64(len(v))
	case string:
		return int64(len(v))
	case bool:
		return 1
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return 8
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return DefaultFallbackBytes
		}
		return int64(len(data))
	}
}
