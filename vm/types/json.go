package types

// JSON returns a structure that encoding/json renders as
// {"type": <type name>, "value": ...}. Integers are decimal strings so they
// survive 128 bits.
func JSON(v Value) map[string]interface{} {
	out := map[string]interface{}{"type": v.TypeName()}
	switch val := v.(type) {
	case IntValue:
		out["value"] = val.Decimal()
	case UIntValue:
		out["value"] = val.Decimal()
	case BoolValue:
		out["value"] = bool(val)
	case BufferValue:
		out["value"] = val.String()
	case StringASCIIValue:
		out["value"] = string(val)
	case StandardPrincipal, ContractIdentifier:
		out["value"] = val.String()
	case OptionalValue:
		if val.Data == nil {
			out["value"] = nil
		} else {
			out["value"] = JSON(val.Data)
		}
	case ResponseValue:
		out["committed"] = val.Committed
		out["value"] = JSON(val.Data)
	case ListValue:
		items := make([]interface{}, 0, len(val))
		for _, item := range val {
			items = append(items, JSON(item))
		}
		out["value"] = items
	case TupleValue:
		fields := make(map[string]interface{}, len(val.fields))
		for _, f := range val.fields {
			fields[f.Name] = JSON(f.Value)
		}
		out["value"] = fields
	}
	return out
}
