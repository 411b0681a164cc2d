package document

import "maps"

// Document is a stored record: an identifier plus an opaque JSON body.
type Document struct {
	id   string
	body map[string]any
}

// New creates a Document. An empty id lets the store assign one on write.
func New(id string, body map[string]any) Document {
	return Document{id: id, body: cloneBody(body)}
}

// ID returns the document identifier.
func (d Document) ID() string { return d.id }

// Body returns a shallow copy of the document body.
func (d Document) Body() map[string]any { return cloneBody(d.body) }

// Field returns a top-level body value.
func (d Document) Field(name string) (any, bool) {
	v, ok := d.body[name]
	return v, ok
}

// WithID returns a copy of the document carrying the given id.
func (d Document) WithID(id string) Document {
	return Document{id: id, body: d.body}
}

func cloneBody(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
