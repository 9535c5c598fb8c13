package materialize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// columnBuilder accumulates typed values for a single output column. The
// concrete variant is chosen at construction time from the field schema, so
// appending never reflects on the column type at runtime.
type columnBuilder interface {
	append(v any) error
	len() int
	// finish hands ownership of the built array to the caller.
	finish() arrow.Array
	release()
}

func newColumnBuilder(mem memory.Allocator, kind ValueKind) columnBuilder {
	switch kind {
	case KindUint64:
		return &uint64Column{b: array.NewUint64Builder(mem)}
	case KindBool:
		return &boolColumn{b: array.NewBooleanBuilder(mem)}
	case KindHexBytesArray:
		lb := array.NewListBuilder(mem, arrow.BinaryTypes.String)
		return &stringListColumn{b: lb, values: lb.ValueBuilder().(*array.StringBuilder)}
	default:
		return &stringColumn{b: array.NewStringBuilder(mem)}
	}
}

type uint64Column struct {
	b *array.Uint64Builder
}

func (c *uint64Column) append(v any) error {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("value %s is not a non-negative integer", n.String())
		}
		c.b.Append(u)
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return fmt.Errorf("value %v is not a non-negative integer", n)
		}
		c.b.Append(uint64(n))
	case int:
		if n < 0 {
			return fmt.Errorf("value %d is not a non-negative integer", n)
		}
		c.b.Append(uint64(n))
	case uint64:
		c.b.Append(n)
	default:
		return fmt.Errorf("expected unsigned integer, got %T", v)
	}
	return nil
}

func (c *uint64Column) len() int           { return c.b.Len() }
func (c *uint64Column) finish() arrow.Array { return c.b.NewArray() }
func (c *uint64Column) release()            { c.b.Release() }

type stringColumn struct {
	b *array.StringBuilder
}

func (c *stringColumn) append(v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	c.b.Append(s)
	return nil
}

func (c *stringColumn) len() int            { return c.b.Len() }
func (c *stringColumn) finish() arrow.Array { return c.b.NewArray() }
func (c *stringColumn) release()            { c.b.Release() }

type boolColumn struct {
	b *array.BooleanBuilder
}

func (c *boolColumn) append(v any) error {
	val, ok := v.(bool)
	if !ok {
		return fmt.Errorf("expected boolean, got %T", v)
	}
	c.b.Append(val)
	return nil
}

func (c *boolColumn) len() int            { return c.b.Len() }
func (c *boolColumn) finish() arrow.Array { return c.b.NewArray() }
func (c *boolColumn) release()            { c.b.Release() }

type stringListColumn struct {
	b      *array.ListBuilder
	values *array.StringBuilder
}

func (c *stringListColumn) append(v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected array of strings, got %T", v)
	}
	// validate all elements before touching the builder so a bad element
	// cannot leave a half-appended list behind
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("expected string list element, got %T", item)
		}
	}
	c.b.Append(true)
	for _, item := range items {
		c.values.Append(item.(string))
	}
	return nil
}

func (c *stringListColumn) len() int            { return c.b.Len() }
func (c *stringListColumn) finish() arrow.Array { return c.b.NewArray() }
func (c *stringListColumn) release()            { c.b.Release() }
