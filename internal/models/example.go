package models

import (
	"time"

	"github.com/prasenjit/go-requester/internal/textutil"
)

const (
	isoDateTime = "2006-01-02T15:04:05.000Z"
	isoDate     = "2006-01-02"
)

// clock is swapped in tests
var clock = time.Now

// exampleWalker builds a sample value for a schema. Definitions being resolved on
// the current path are tracked so a cyclic $ref ends in a nil leaf.
type exampleWalker struct {
	definitions map[string]*Schema
	now         time.Time
	resolving   map[string]bool
}

func newExampleWalker(definitions map[string]*Schema) *exampleWalker {
	return &exampleWalker{
		definitions: definitions,
		now:         clock().UTC(),
		resolving:   make(map[string]bool),
	}
}

func (w *exampleWalker) walk(schema *Schema) any {
	switch schema.Kind() {
	case KindRef:
		// the array wrapper survives a $ref next to it
		if schema.Type == "array" {
			return []any{w.walkRef(schema.RefName())}
		}
		return w.walkRef(schema.RefName())
	case KindInteger:
		return 0
	case KindNumber:
		return 0.0
	case KindBoolean:
		return false
	case KindString:
		switch schema.Format {
		case "date-time":
			return w.now.Format(isoDateTime)
		case "date":
			return w.now.Format(isoDate)
		default:
			return ""
		}
	case KindFile:
		return "file"
	case KindArray:
		return []any{w.walk(schema.Items)}
	case KindObject:
		obj := textutil.NewObject(len(schema.Properties))
		for _, name := range schema.PropertyNames() {
			obj.Set(name, w.walk(schema.Properties[name]))
		}
		return obj
	default:
		return nil
	}
}

func (w *exampleWalker) walkRef(name string) any {
	if w.resolving[name] {
		return nil
	}
	w.resolving[name] = true
	defer delete(w.resolving, name)

	return w.walk(w.definitions[name])
}
