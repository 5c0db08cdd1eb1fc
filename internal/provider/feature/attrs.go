package feature

import "time"

// Attribute codecs. The service transports dates as epoch milliseconds and
// every number as float64 once decoded from JSON; nil means a null attribute.

func attrString(attrs map[string]interface{}, name string) string {
	if v, ok := attrs[name].(string); ok {
		return v
	}
	return ""
}

func attrInt(attrs map[string]interface{}, name string) int {
	if v, ok := attrs[name].(float64); ok {
		return int(v)
	}
	return 0
}

func attrIntPtr(attrs map[string]interface{}, name string) *int {
	if v, ok := attrs[name].(float64); ok {
		n := int(v)
		return &n
	}
	return nil
}

func attrFloat(attrs map[string]interface{}, name string) float64 {
	if v, ok := attrs[name].(float64); ok {
		return v
	}
	return 0
}

func attrFloatPtr(attrs map[string]interface{}, name string) *float64 {
	if v, ok := attrs[name].(float64); ok {
		f := v
		return &f
	}
	return nil
}

func attrDate(attrs map[string]interface{}, name string) *time.Time {
	if v, ok := attrs[name].(float64); ok {
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	}
	return nil
}

func putDate(attrs map[string]interface{}, name string, t *time.Time) {
	if t == nil {
		attrs[name] = nil
		return
	}
	attrs[name] = t.UnixMilli()
}

func putIntPtr(attrs map[string]interface{}, name string, v *int) {
	if v == nil {
		attrs[name] = nil
		return
	}
	attrs[name] = *v
}

func putFloatPtr(attrs map[string]interface{}, name string, v *float64) {
	if v == nil {
		attrs[name] = nil
		return
	}
	attrs[name] = *v
}
