package model

import (
	"fmt"

	"github.com/roach88/recstore/internal/record"
	"github.com/roach88/recstore/internal/schema"
)

// Project builds the public shape of recs through fields.
//
// derived holds the derived values per record (by position). It must cover
// every record when any public or group-key field is derived.
//
// The result depends on the fields:
//   - no group key: []record.Record in record order
//   - group key: map[string]record.Record, last record wins
//   - group key with GroupBy: map[string][]record.Record
//
// In single mode only the first element is returned (the first record, or
// the group of the first record), or nil when recs is empty.
//
// Nil values are omitted from public objects.
func Project(recs []record.Record, fields []schema.Field, derived []record.Record, single bool) (any, error) {
	var group *schema.Field
	for i, f := range fields {
		if f.GroupKey {
			if group != nil {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleGroupKeys, group.Name, f.Name)
			}
			group = &fields[i]
		}
	}
	if needsDerived(fields) && len(derived) != len(recs) {
		return nil, fmt.Errorf("%w: have %d of %d records", ErrDerivedNotGenerated, len(derived), len(recs))
	}

	value := func(i int, f schema.Field) any {
		if f.Derived != nil {
			return derived[i][f.Name]
		}
		return recs[i][f.Name]
	}

	objects := make([]record.Record, len(recs))
	for i := range recs {
		obj := make(record.Record)
		for _, f := range fields {
			if !f.Public {
				continue
			}
			if v := value(i, f); v != nil {
				obj[f.PublicName()] = v
			}
		}
		objects[i] = obj
	}

	if group == nil {
		if single {
			if len(objects) == 0 {
				return nil, nil
			}
			return objects[0], nil
		}
		return objects, nil
	}

	var firstKey string
	if group.GroupBy {
		groups := make(map[string][]record.Record)
		for i, obj := range objects {
			k := groupKey(value(i, *group))
			if i == 0 {
				firstKey = k
			}
			groups[k] = append(groups[k], obj)
		}
		if single {
			if len(objects) == 0 {
				return nil, nil
			}
			return groups[firstKey], nil
		}
		return groups, nil
	}

	groups := make(map[string]record.Record)
	for i, obj := range objects {
		k := groupKey(value(i, *group))
		if i == 0 {
			firstKey = k
		}
		groups[k] = obj
	}
	if single {
		if len(objects) == 0 {
			return nil, nil
		}
		return groups[firstKey], nil
	}
	return groups, nil
}

// needsDerived reports whether projecting through fields reads a derived
// value.
func needsDerived(fields []schema.Field) bool {
	for _, f := range fields {
		if f.Derived != nil && (f.Public || f.GroupKey) {
			return true
		}
	}
	return false
}

// groupKey renders a group key value as a map key.
func groupKey(v any) string {
	switch k := v.(type) {
	case nil:
		return "null"
	case string:
		return k
	}
	return fmt.Sprint(v)
}
