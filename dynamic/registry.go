package dynamic

import (
	"sort"

	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/wire"
)

// Registry is an explicit collection of planned dialects. Lookups always
// name the dialect: two dialects may give the same id to unrelated
// messages, so there is no lookup by id alone.
type Registry struct {
	dialects map[string]*layout.Dialect
	names    []string
}

// NewRegistry registers dialects under their names. A name registered twice
// is ErrDuplicateDialect.
func NewRegistry(dialects ...*layout.Dialect) (*Registry, error) {
	r := &Registry{dialects: make(map[string]*layout.Dialect, len(dialects))}
	for _, d := range dialects {
		if _, ok := r.dialects[d.Name()]; ok {
			return nil, errors.Wrapf(errors.ErrDuplicateDialect, "%s", d.Name())
		}
		r.dialects[d.Name()] = d
		r.names = append(r.names, d.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Dialects lists the registered dialect names, sorted.
func (r *Registry) Dialects() []string {
	return append([]string(nil), r.names...)
}

// Dialect returns the dialect registered as tag.
func (r *Registry) Dialect(tag string) (*layout.Dialect, error) {
	d, ok := r.dialects[tag]
	if !ok {
		return nil, wire.UnknownDialect(tag)
	}
	return d, nil
}

// Message returns message id of dialect tag.
func (r *Registry) Message(tag string, id uint32) (*layout.Message, error) {
	d, err := r.Dialect(tag)
	if err != nil {
		return nil, err
	}
	msg := d.Message(id)
	if msg == nil {
		return nil, wire.UnknownMessageID(tag, id)
	}
	return msg, nil
}

// Decoded is a payload decoded against one dialect.
type Decoded struct {
	Dialect string
	Message *layout.Message
	Fields  Fields
}

// Dispatch decodes payload as message id of dialect tag.
func (r *Registry) Dispatch(tag string, id uint32, payload []byte) (*Decoded, error) {
	msg, err := r.Message(tag, id)
	if err != nil {
		return nil, err
	}
	fields, err := Decode(msg, payload)
	if err != nil {
		return nil, errors.WithDetailf(err, "dialect: %s", tag)
	}
	return &Decoded{Dialect: tag, Message: msg, Fields: fields}, nil
}

// Encode serializes fields as message id of dialect tag.
func (r *Registry) Encode(tag string, id uint32, fields Fields, opts Options) ([]byte, error) {
	msg, err := r.Message(tag, id)
	if err != nil {
		return nil, err
	}
	return Encode(msg, fields, opts)
}
