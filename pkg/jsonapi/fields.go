package jsonapi

// ProjectAttributes emits the attribute map for one row: the sparse
// fieldset for the row's type when the request declares one, all declared
// attributes otherwise. Identity (id, type) is carried on the resource
// object itself and is never subject to projection.
func ProjectAttributes(row Row, desc *ResourceDescriptor, fields map[string][]string) map[string]interface{} {
	projection, ok := fields[desc.Type]
	if !ok {
		projection = desc.Attributes
	}

	attrs := make(map[string]interface{}, len(projection))
	for _, name := range projection {
		if value, present := row[name]; present {
			attrs[name] = value
		}
	}
	return attrs
}
