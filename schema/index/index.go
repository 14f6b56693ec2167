// Package index declares table indexes for mapped types.
//
// Types return indexes from an Indexes method:
//
//	func (OrderLine) Indexes() []index.Index {
//	    return []index.Index{
//	        index.Fields("OrderId", "ProductId").StorageKey("IX_OrderProduct"),
//	    }
//	}
package index

// A Descriptor for index configuration.
type Descriptor struct {
	Unique     bool            // unique index.
	Fields     []string        // column or Go field names, in order.
	Desc       map[string]bool // descending columns.
	StorageKey string          // custom index name.
}

// Index is implemented by index builders.
type Index interface {
	Descriptor() *Descriptor
}

// Builder for indexes on fields.
type Builder struct {
	desc *Descriptor
}

// Fields creates an index on the given columns.
//
//	index.Fields("Title", "Released")
func Fields(fields ...string) *Builder {
	return &Builder{desc: &Descriptor{Fields: fields}}
}

// Unique sets the index to be a unique index.
func (b *Builder) Unique() *Builder {
	b.desc.Unique = true
	return b
}

// StorageKey sets the storage key of the index. When not set, the name is
// derived from the table and column names.
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Descending marks the given index columns as sorted in descending order.
func (b *Builder) Descending(fields ...string) *Builder {
	if b.desc.Desc == nil {
		b.desc.Desc = make(map[string]bool, len(fields))
	}
	for _, f := range fields {
		b.desc.Desc[f] = true
	}
	return b
}

// Descriptor implements the Index interface.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
